package shared_utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTinyID(t *testing.T) {
	id, err := GenerateTinyID(12)
	require.NoError(t, err)
	assert.Len(t, id, 12)
	for _, r := range id {
		assert.True(t, strings.ContainsRune(charset, r), "unexpected character %q", r)
	}

	_, err = GenerateTinyID(0)
	assert.Error(t, err)
	_, err = GenerateTinyID(1001)
	assert.Error(t, err)
}

func TestGenerateConfirmationCode(t *testing.T) {
	code, err := GenerateConfirmationCode()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(code, ConfirmationCodePrefix))
	assert.Len(t, code, len(ConfirmationCodePrefix)+confirmationCodeLength)

	other, err := GenerateConfirmationCode()
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}
