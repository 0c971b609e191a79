package booking_models

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
	"github.com/shopspring/decimal"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	// ErrStatusChanged means a conditional status update matched no row
	// because the booking was no longer in one of the expected states.
	ErrStatusChanged = errors.New("booking status changed concurrently")
	// ErrDuplicateConfirmationCode is returned by CreateBooking when the
	// generated code is already taken; callers retry with a new code.
	ErrDuplicateConfirmationCode = errors.New("confirmation code already in use")
)

const (
	uniqueViolation       = "23505"
	confirmationCodeIndex = "bookings_confirmation_code_key"
)

// DateLayout is the wire and storage format of check-in / check-out dates.
const DateLayout = "2006-01-02"

// Booking is a user's reservation of one destination, package or offer.
type Booking struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             uuid.UUID       `json:"user_id"`
	CompanyID          uuid.UUID       `json:"company_id"`
	Offerable          OfferableRef    `json:"offerable"`
	CheckIn            time.Time       `json:"check_in"`
	CheckOut           time.Time       `json:"check_out"`
	Guests             int             `json:"guests"`
	Nights             int             `json:"nights"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	Status             BookingStatus   `json:"status"`
	Notes              string          `json:"notes,omitempty"`
	ContactEmail       string          `json:"contact_email,omitempty"`
	ConfirmationCode   string          `json:"confirmation_code"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// NewBooking creates a pending booking with a fresh v7 id.
func NewBooking(userID, companyID uuid.UUID, ref OfferableRef, checkIn, checkOut time.Time, guests int, now time.Time) (*Booking, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID for booking: %w", err)
	}
	return &Booking{
		ID:        id,
		UserID:    userID,
		CompanyID: companyID,
		Offerable: ref,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    guests,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

const bookingColumns = `
	id, user_id, company_id, offerable_type, offerable_id, check_in, check_out,
	guests, nights, unit_price, total_price, status, COALESCE(notes, ''),
	COALESCE(contact_email, ''), confirmation_code, cancelled_at, cancellation_reason, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b      Booking
		kind   string
		status string
	)
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.CompanyID,
		&kind,
		&b.Offerable.ID,
		&b.CheckIn,
		&b.CheckOut,
		&b.Guests,
		&b.Nights,
		&b.UnitPrice,
		&b.TotalPrice,
		&status,
		&b.Notes,
		&b.ContactEmail,
		&b.ConfirmationCode,
		&b.CancelledAt,
		&b.CancellationReason,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Offerable.Kind = OfferableKind(kind)
	b.Status = BookingStatus(status)
	return &b, nil
}

// CreateBooking inserts a new booking record.
func CreateBooking(ctx context.Context, q db.DBTX, booking *Booking) error {
	logger.InfoLogger.Infof("Attempting to create booking %s for %s", booking.ID, booking.Offerable)

	query := `
		INSERT INTO bookings (
			id, user_id, company_id, offerable_type, offerable_id, check_in, check_out,
			guests, nights, unit_price, total_price, status, notes, contact_email,
			confirmation_code, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), NULLIF($14, ''), $15, $16, $17
		)`

	_, err := q.Exec(ctx, query,
		booking.ID, booking.UserID, booking.CompanyID, string(booking.Offerable.Kind), booking.Offerable.ID,
		booking.CheckIn, booking.CheckOut, booking.Guests, booking.Nights,
		booking.UnitPrice, booking.TotalPrice, string(booking.Status), booking.Notes, booking.ContactEmail,
		booking.ConfirmationCode, booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == confirmationCodeIndex {
			logger.WarnLogger.Warnf("Confirmation code %s collided, booking %s not inserted", booking.ConfirmationCode, booking.ID)
			return ErrDuplicateConfirmationCode
		}
		logger.ErrorLogger.Errorf("Failed to insert booking %s: %v", booking.ID, err)
		return fmt.Errorf("failed to create booking: %w", err)
	}

	logger.InfoLogger.Infof("Booking %s created with code %s", booking.ID, booking.ConfirmationCode)
	return nil
}

// GetBookingByID fetches a booking record by its ID.
func GetBookingByID(ctx context.Context, q db.DBTX, bookingID uuid.UUID) (*Booking, error) {
	booking, err := scanBooking(q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.WarnLogger.Warnf("Booking with ID %s not found", bookingID)
			return nil, ErrBookingNotFound
		}
		logger.ErrorLogger.Errorf("Failed to fetch booking %s: %v", bookingID, err)
		return nil, fmt.Errorf("database error fetching booking: %w", err)
	}
	return booking, nil
}

// StatusChange carries the columns written alongside a status transition.
type StatusChange struct {
	To                 BookingStatus
	At                 time.Time
	CancellationReason *string
}

// TransitionBookingStatus moves a booking to change.To only if its current
// status is one of from. It returns ErrStatusChanged when no row matched.
func TransitionBookingStatus(ctx context.Context, q db.DBTX, bookingID uuid.UUID, from []BookingStatus, change StatusChange) (*Booking, error) {
	logger.InfoLogger.Infof("Updating status for booking %s to %s", bookingID, change.To)

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	var cancelledAt *time.Time
	if change.To == StatusCancelled {
		at := change.At
		cancelledAt = &at
	}

	query := `
		UPDATE bookings
		SET status = $3,
			updated_at = $4,
			cancelled_at = COALESCE($5, cancelled_at),
			cancellation_reason = COALESCE($6, cancellation_reason)
		WHERE id = $1 AND status = ANY($2)
		RETURNING ` + bookingColumns

	booking, err := scanBooking(q.QueryRow(ctx, query,
		bookingID, allowed, string(change.To), change.At, cancelledAt, change.CancellationReason,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		logger.ErrorLogger.Errorf("Failed to update booking %s status: %v", bookingID, err)
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	logger.InfoLogger.Infof("Booking %s status updated to %s", bookingID, change.To)
	return booking, nil
}

// ListFilter narrows a paginated booking listing.
type ListFilter struct {
	Status BookingStatus
	Page   int
	Limit  int
}

func (f ListFilter) offset() int {
	return (f.Page - 1) * f.Limit
}

// GetBookingsByCustomer retrieves bookings for a user, newest first.
func GetBookingsByCustomer(ctx context.Context, q db.DBTX, userID uuid.UUID, filter ListFilter) ([]Booking, int, error) {
	logger.InfoLogger.Infof("Fetching bookings for user %s with status filter: %q", userID, filter.Status)
	return listBookings(ctx, q, "user_id", userID, filter)
}

// GetBookingsByCompany retrieves bookings for a company's listings, newest first.
func GetBookingsByCompany(ctx context.Context, q db.DBTX, companyID uuid.UUID, filter ListFilter) ([]Booking, int, error) {
	logger.InfoLogger.Infof("Fetching bookings for company %s with status filter: %q", companyID, filter.Status)
	return listBookings(ctx, q, "company_id", companyID, filter)
}

// column is one of the two fixed owner columns above, never user input.
func listBookings(ctx context.Context, q db.DBTX, column string, ownerID uuid.UUID, filter ListFilter) ([]Booking, int, error) {
	where := ` WHERE ` + column + ` = $1 AND ($2::text = '' OR status = $2::text)`

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`+where, ownerID, string(filter.Status)).Scan(&total); err != nil {
		logger.ErrorLogger.Errorf("Failed to count bookings for %s %s: %v", column, ownerID, err)
		return nil, 0, fmt.Errorf("failed to get booking count: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings`+where+` ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		ownerID, string(filter.Status), filter.Limit, filter.offset(),
	)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to fetch bookings for %s %s: %v", column, ownerID, err)
		return nil, 0, fmt.Errorf("failed to fetch bookings: %w", err)
	}
	defer rows.Close()

	bookings := []Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	logger.InfoLogger.Infof("Fetched %d bookings for %s %s (total: %d)", len(bookings), column, ownerID, total)
	return bookings, total, nil
}
