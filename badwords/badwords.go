package badwords

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/joy095/travel/logger"
)

// Filter is a case-insensitive set of banned words used to screen booking
// notes and review comments.
type Filter struct {
	mu    sync.RWMutex
	words map[string]struct{}
}

// New builds a filter from an in-memory list.
func New(words ...string) *Filter {
	f := &Filter{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		_ = f.Add(w)
	}
	return f
}

// Load reads one word per line; blank lines and lines starting with # are
// skipped.
func Load(filename string) (*Filter, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read bad words file: %w", err)
	}

	f := New()
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f.words[strings.ToLower(line)] = struct{}{}
	}

	logger.InfoLogger.Infof("Loaded %d bad words from %s", f.Len(), filename)
	return f, nil
}

// ContainsBadWords splits text on anything that is not a letter or digit and
// reports whether any resulting word is banned. A nil filter allows all text.
func (f *Filter) ContainsBadWords(text string) bool {
	if f == nil {
		return false
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, word := range words {
		if _, found := f.words[word]; found {
			logger.InfoLogger.Infof("Bad word detected: %s", word)
			return true
		}
	}
	return false
}

func (f *Filter) Add(word string) error {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return errors.New("bad word must not be empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.words[word] = struct{}{}
	return nil
}

func (f *Filter) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.words)
}
