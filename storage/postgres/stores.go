package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joy095/travel/models/booking_models"
	"github.com/joy095/travel/models/catalog_models"
	"github.com/joy095/travel/models/outbox_models"
	"github.com/joy095/travel/models/review_models"
	"github.com/shopspring/decimal"
)

type CatalogStore struct{ pool *pgxpool.Pool }

func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore { return &CatalogStore{pool: pool} }

func (s *CatalogStore) FindOfferable(ctx context.Context, ref booking_models.OfferableRef) (*catalog_models.Offerable, error) {
	return catalog_models.GetOfferable(ctx, querier(ctx, s.pool), ref)
}

func (s *CatalogStore) LockOfferable(ctx context.Context, ref booking_models.OfferableRef) error {
	return catalog_models.LockOfferable(ctx, querier(ctx, s.pool), ref)
}

func (s *CatalogStore) UpdateRating(ctx context.Context, ref booking_models.OfferableRef, rating decimal.Decimal, count int, at time.Time) error {
	return catalog_models.UpdateOfferableRating(ctx, querier(ctx, s.pool), ref, rating, count, at)
}

type BookingStore struct{ pool *pgxpool.Pool }

func NewBookingStore(pool *pgxpool.Pool) *BookingStore { return &BookingStore{pool: pool} }

func (s *BookingStore) Insert(ctx context.Context, b *booking_models.Booking) error {
	return booking_models.CreateBooking(ctx, querier(ctx, s.pool), b)
}

func (s *BookingStore) FindByID(ctx context.Context, id uuid.UUID) (*booking_models.Booking, error) {
	return booking_models.GetBookingByID(ctx, querier(ctx, s.pool), id)
}

func (s *BookingStore) TransitionStatus(ctx context.Context, id uuid.UUID, from []booking_models.BookingStatus, change booking_models.StatusChange) (*booking_models.Booking, error) {
	return booking_models.TransitionBookingStatus(ctx, querier(ctx, s.pool), id, from, change)
}

func (s *BookingStore) ListByUser(ctx context.Context, userID uuid.UUID, f booking_models.ListFilter) ([]booking_models.Booking, int, error) {
	return booking_models.GetBookingsByCustomer(ctx, querier(ctx, s.pool), userID, f)
}

func (s *BookingStore) ListByCompany(ctx context.Context, companyID uuid.UUID, f booking_models.ListFilter) ([]booking_models.Booking, int, error) {
	return booking_models.GetBookingsByCompany(ctx, querier(ctx, s.pool), companyID, f)
}

type ReviewStore struct{ pool *pgxpool.Pool }

func NewReviewStore(pool *pgxpool.Pool) *ReviewStore { return &ReviewStore{pool: pool} }

func (s *ReviewStore) Insert(ctx context.Context, r *review_models.Review) error {
	return review_models.CreateReview(ctx, querier(ctx, s.pool), r)
}

func (s *ReviewStore) FindOne(ctx context.Context, userID, bookingID uuid.UUID) (*review_models.Review, error) {
	return review_models.GetReviewByUserAndBooking(ctx, querier(ctx, s.pool), userID, bookingID)
}

func (s *ReviewStore) AverageRating(ctx context.Context, ref booking_models.OfferableRef) (decimal.Decimal, int, error) {
	return review_models.AverageRating(ctx, querier(ctx, s.pool), ref)
}

// OutboxStore appends events for the API and hands batches to the worker.
type OutboxStore struct{ pool *pgxpool.Pool }

func NewOutboxStore(pool *pgxpool.Pool) *OutboxStore { return &OutboxStore{pool: pool} }

func (s *OutboxStore) Append(ctx context.Context, e *outbox_models.Event) error {
	return outbox_models.CreateEvent(ctx, querier(ctx, s.pool), e)
}

func (s *OutboxStore) FetchBatch(ctx context.Context, limit int, lease time.Duration) ([]*outbox_models.Event, error) {
	return outbox_models.FetchBatch(ctx, querier(ctx, s.pool), limit, lease)
}

func (s *OutboxStore) MarkProcessed(ctx context.Context, ids []uuid.UUID) error {
	return outbox_models.MarkProcessed(ctx, querier(ctx, s.pool), ids)
}

func (s *OutboxStore) MarkFailed(ctx context.Context, ids []uuid.UUID) error {
	return outbox_models.MarkFailed(ctx, querier(ctx, s.pool), ids)
}
