package catalog_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joy095/travel/config/db"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/models/booking_models"
	"github.com/shopspring/decimal"
)

var ErrOfferableNotFound = errors.New("offerable not found")

// Offerable is the priced part of a destination, package or offer.
type Offerable struct {
	Ref           booking_models.OfferableRef `json:"ref"`
	CompanyID     uuid.UUID                   `json:"company_id"`
	Name          string                      `json:"name"`
	Price         decimal.Decimal             `json:"price"`
	DiscountPrice decimal.NullDecimal         `json:"discount_price"`
	Rating        decimal.NullDecimal         `json:"rating"`
	RatingCount   int                         `json:"rating_count"`
	IsActive      bool                        `json:"is_active"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

var tables = map[booking_models.OfferableKind]string{
	booking_models.KindDestination: "destinations",
	booking_models.KindPackage:     "packages",
	booking_models.KindOffer:       "offers",
}

// TableFor returns the catalog table holding rows of the given kind.
func TableFor(kind booking_models.OfferableKind) (string, error) {
	table, ok := tables[kind]
	if !ok {
		return "", fmt.Errorf("unknown offerable kind %q", kind)
	}
	return table, nil
}

// GetOfferable fetches the price fields of one catalog row.
func GetOfferable(ctx context.Context, q db.DBTX, ref booking_models.OfferableRef) (*Offerable, error) {
	table, err := TableFor(ref.Kind)
	if err != nil {
		return nil, err
	}

	o := &Offerable{Ref: ref}
	query := `SELECT company_id, name, price, discount_price, rating, rating_count, is_active, updated_at
		FROM ` + table + ` WHERE id = $1`

	err = q.QueryRow(ctx, query, ref.ID).Scan(
		&o.CompanyID, &o.Name, &o.Price, &o.DiscountPrice, &o.Rating, &o.RatingCount, &o.IsActive, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.WarnLogger.Warnf("Offerable %s not found", ref)
			return nil, ErrOfferableNotFound
		}
		return nil, fmt.Errorf("failed to fetch offerable %s: %w", ref, err)
	}
	return o, nil
}

// LockOfferable takes a row lock that serialises rating write-backs for the
// offerable until the surrounding transaction ends.
func LockOfferable(ctx context.Context, q db.DBTX, ref booking_models.OfferableRef) error {
	table, err := TableFor(ref.Kind)
	if err != nil {
		return err
	}

	var id uuid.UUID
	if err := q.QueryRow(ctx, `SELECT id FROM `+table+` WHERE id = $1 FOR UPDATE`, ref.ID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOfferableNotFound
		}
		return fmt.Errorf("failed to lock offerable %s: %w", ref, err)
	}
	return nil
}

// UpdateOfferableRating overwrites the displayed rating and its review count.
func UpdateOfferableRating(ctx context.Context, q db.DBTX, ref booking_models.OfferableRef, rating decimal.Decimal, count int, at time.Time) error {
	table, err := TableFor(ref.Kind)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `UPDATE `+table+` SET rating = $2, rating_count = $3, updated_at = $4 WHERE id = $1`,
		ref.ID, rating, count, at)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to update rating on %s: %v", ref, err)
		return fmt.Errorf("failed to update offerable rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOfferableNotFound
	}

	logger.InfoLogger.Infof("Rating on %s set to %s over %d reviews", ref, rating.StringFixed(1), count)
	return nil
}
