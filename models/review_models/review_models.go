package review_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/joy095/travel/config/db"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/models/booking_models"
	"github.com/shopspring/decimal"
)

// ErrDuplicateReview is returned when the user already reviewed the booking.
var ErrDuplicateReview = errors.New("booking already reviewed by this user")

// Review is a user's 1..5 rating of the offerable behind one booking.
type Review struct {
	ID         uuid.UUID                   `json:"id"`
	UserID     uuid.UUID                   `json:"user_id"`
	BookingID  uuid.UUID                   `json:"booking_id"`
	Reviewable booking_models.OfferableRef `json:"reviewable"`
	Rating     int                         `json:"rating"`
	Comment    string                      `json:"comment,omitempty"`
	CreatedAt  time.Time                   `json:"created_at"`
}

func NewReview(userID, bookingID uuid.UUID, reviewable booking_models.OfferableRef, rating int, comment string, now time.Time) (*Review, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID for review: %w", err)
	}
	return &Review{
		ID:         id,
		UserID:     userID,
		BookingID:  bookingID,
		Reviewable: reviewable,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  now,
	}, nil
}

// CreateReview inserts a review. A second review for the same user and
// booking fails on the reviews_user_booking_key unique index.
func CreateReview(ctx context.Context, q db.DBTX, review *Review) error {
	query := `
		INSERT INTO reviews (id, user_id, booking_id, reviewable_type, reviewable_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`

	_, err := q.Exec(ctx, query,
		review.ID, review.UserID, review.BookingID,
		string(review.Reviewable.Kind), review.Reviewable.ID,
		review.Rating, review.Comment, review.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateReview
		}
		logger.ErrorLogger.Errorf("Failed to insert review for booking %s: %v", review.BookingID, err)
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// GetReviewByUserAndBooking returns nil, nil when the user has not reviewed
// the booking yet.
func GetReviewByUserAndBooking(ctx context.Context, q db.DBTX, userID, bookingID uuid.UUID) (*Review, error) {
	var (
		r    Review
		kind string
	)
	err := q.QueryRow(ctx, `
		SELECT id, user_id, booking_id, reviewable_type, reviewable_id, rating, COALESCE(comment, ''), created_at
		FROM reviews
		WHERE user_id = $1 AND booking_id = $2`, userID, bookingID,
	).Scan(&r.ID, &r.UserID, &r.BookingID, &kind, &r.Reviewable.ID, &r.Rating, &r.Comment, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch review: %w", err)
	}
	r.Reviewable.Kind = booking_models.OfferableKind(kind)
	return &r, nil
}

// AverageRating returns the exact mean rating and the number of reviews for
// a reviewable. The mean is zero when there are no reviews.
func AverageRating(ctx context.Context, q db.DBTX, ref booking_models.OfferableRef) (decimal.Decimal, int, error) {
	var (
		avg   decimal.Decimal
		count int
	)
	err := q.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews
		WHERE reviewable_type = $1 AND reviewable_id = $2`, string(ref.Kind), ref.ID,
	).Scan(&avg, &count)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to aggregate ratings for %s: %w", ref, err)
	}
	return avg, count, nil
}
