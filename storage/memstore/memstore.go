// Package memstore keeps catalog, bookings, reviews and outbox events in
// process memory. It backs the memory store driver and service tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/travel/models/booking_models"
	"github.com/joy095/travel/models/catalog_models"
	"github.com/joy095/travel/models/outbox_models"
	"github.com/joy095/travel/models/review_models"
	"github.com/shopspring/decimal"
)

// DB holds every table. Stores returned by its accessors share it.
type DB struct {
	mu        sync.RWMutex
	txMu      sync.Mutex
	offerable map[booking_models.OfferableRef]*catalog_models.Offerable
	bookings  map[uuid.UUID]*booking_models.Booking
	codes     map[string]uuid.UUID
	reviews   []*review_models.Review
	events    []*outbox_models.Event
}

func New() *DB {
	return &DB{
		offerable: make(map[booking_models.OfferableRef]*catalog_models.Offerable),
		bookings:  make(map[uuid.UUID]*booking_models.Booking),
		codes:     make(map[string]uuid.UUID),
	}
}

// PutOfferable adds or replaces a catalog row.
func (db *DB) PutOfferable(o catalog_models.Offerable) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.offerable[o.Ref] = &o
}

// Events returns a copy of every appended outbox event in order.
func (db *DB) Events() []outbox_models.Event {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]outbox_models.Event, len(db.events))
	for i, e := range db.events {
		out[i] = *e
	}
	return out
}

// WithinTransaction serialises fn against other transactions. Writes made
// before an error are not rolled back.
func (db *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	return fn(ctx)
}

func (db *DB) Catalog() *CatalogStore  { return &CatalogStore{db: db} }
func (db *DB) Bookings() *BookingStore { return &BookingStore{db: db} }
func (db *DB) Reviews() *ReviewStore   { return &ReviewStore{db: db} }
func (db *DB) Outbox() *OutboxStore    { return &OutboxStore{db: db} }

type CatalogStore struct{ db *DB }

func (s *CatalogStore) FindOfferable(_ context.Context, ref booking_models.OfferableRef) (*catalog_models.Offerable, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	o, ok := s.db.offerable[ref]
	if !ok {
		return nil, catalog_models.ErrOfferableNotFound
	}
	cp := *o
	return &cp, nil
}

// LockOfferable only checks existence; WithinTransaction already
// serialises writers.
func (s *CatalogStore) LockOfferable(ctx context.Context, ref booking_models.OfferableRef) error {
	_, err := s.FindOfferable(ctx, ref)
	return err
}

func (s *CatalogStore) UpdateRating(_ context.Context, ref booking_models.OfferableRef, rating decimal.Decimal, count int, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.offerable[ref]
	if !ok {
		return catalog_models.ErrOfferableNotFound
	}
	o.Rating = decimal.NewNullDecimal(rating)
	o.RatingCount = count
	o.UpdatedAt = at
	return nil
}

type BookingStore struct{ db *DB }

func (s *BookingStore) Insert(_ context.Context, b *booking_models.Booking) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, taken := s.db.codes[b.ConfirmationCode]; taken {
		return booking_models.ErrDuplicateConfirmationCode
	}
	cp := *b
	s.db.bookings[b.ID] = &cp
	s.db.codes[b.ConfirmationCode] = b.ID
	return nil
}

func (s *BookingStore) FindByID(_ context.Context, id uuid.UUID) (*booking_models.Booking, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	b, ok := s.db.bookings[id]
	if !ok {
		return nil, booking_models.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *BookingStore) TransitionStatus(_ context.Context, id uuid.UUID, from []booking_models.BookingStatus, change booking_models.StatusChange) (*booking_models.Booking, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	b, ok := s.db.bookings[id]
	if !ok {
		return nil, booking_models.ErrStatusChanged
	}
	allowed := false
	for _, st := range from {
		if b.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, booking_models.ErrStatusChanged
	}

	b.Status = change.To
	b.UpdatedAt = change.At
	if change.To == booking_models.StatusCancelled {
		at := change.At
		b.CancelledAt = &at
	}
	if change.CancellationReason != nil {
		reason := *change.CancellationReason
		b.CancellationReason = &reason
	}
	cp := *b
	return &cp, nil
}

func (s *BookingStore) ListByUser(_ context.Context, userID uuid.UUID, f booking_models.ListFilter) ([]booking_models.Booking, int, error) {
	items, total := s.list(func(b *booking_models.Booking) bool { return b.UserID == userID }, f)
	return items, total, nil
}

func (s *BookingStore) ListByCompany(_ context.Context, companyID uuid.UUID, f booking_models.ListFilter) ([]booking_models.Booking, int, error) {
	items, total := s.list(func(b *booking_models.Booking) bool { return b.CompanyID == companyID }, f)
	return items, total, nil
}

func (s *BookingStore) list(match func(*booking_models.Booking) bool, f booking_models.ListFilter) ([]booking_models.Booking, int) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var all []booking_models.Booking
	for _, b := range s.db.bookings {
		if match(b) && (f.Status == "" || b.Status == f.Status) {
			all = append(all, *b)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() > all[j].ID.String()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	page := make([]booking_models.Booking, end-start)
	copy(page, all[start:end])
	return page, len(all)
}

type ReviewStore struct{ db *DB }

func (s *ReviewStore) Insert(_ context.Context, r *review_models.Review) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.reviews {
		if existing.UserID == r.UserID && existing.BookingID == r.BookingID {
			return review_models.ErrDuplicateReview
		}
	}
	cp := *r
	s.db.reviews = append(s.db.reviews, &cp)
	return nil
}

func (s *ReviewStore) FindOne(_ context.Context, userID, bookingID uuid.UUID) (*review_models.Review, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, r := range s.db.reviews {
		if r.UserID == userID && r.BookingID == bookingID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

// AverageRating returns the exact mean, like AVG over a numeric column.
func (s *ReviewStore) AverageRating(_ context.Context, ref booking_models.OfferableRef) (decimal.Decimal, int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	sum, count := 0, 0
	for _, r := range s.db.reviews {
		if r.Reviewable == ref {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return decimal.Zero, 0, nil
	}
	return decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(count))), count, nil
}

type OutboxStore struct{ db *DB }

func (s *OutboxStore) Append(_ context.Context, e *outbox_models.Event) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cp := *e
	s.db.events = append(s.db.events, &cp)
	return nil
}
