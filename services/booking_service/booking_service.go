package booking_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joy095/travel/badwords"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/metrics"
	"github.com/joy095/travel/models/booking_models"
	"github.com/joy095/travel/models/catalog_models"
	"github.com/joy095/travel/models/outbox_models"
	"github.com/joy095/travel/models/review_models"
	"github.com/joy095/travel/pricing"
	"github.com/joy095/travel/utils/shared_utils"
	"github.com/shopspring/decimal"
)

const (
	DefaultCancellationWindow = 12 * time.Hour
	DefaultMaxGuests          = 8

	// confirmationCodeAttempts bounds retries after a code collision.
	confirmationCodeAttempts = 3
)

type CatalogStore interface {
	FindOfferable(ctx context.Context, ref booking_models.OfferableRef) (*catalog_models.Offerable, error)
	LockOfferable(ctx context.Context, ref booking_models.OfferableRef) error
	UpdateRating(ctx context.Context, ref booking_models.OfferableRef, rating decimal.Decimal, count int, at time.Time) error
}

type BookingStore interface {
	Insert(ctx context.Context, booking *booking_models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking_models.Booking, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from []booking_models.BookingStatus, change booking_models.StatusChange) (*booking_models.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter booking_models.ListFilter) ([]booking_models.Booking, int, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID, filter booking_models.ListFilter) ([]booking_models.Booking, int, error)
}

type ReviewStore interface {
	Insert(ctx context.Context, review *review_models.Review) error
	// FindOne returns nil, nil when no review exists.
	FindOne(ctx context.Context, userID, bookingID uuid.UUID) (*review_models.Review, error)
	AverageRating(ctx context.Context, ref booking_models.OfferableRef) (decimal.Decimal, int, error)
}

type EventStore interface {
	Append(ctx context.Context, event *outbox_models.Event) error
}

// Transactor runs fn so that every store call made with the context it
// receives commits or rolls back together.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Stores struct {
	Catalog  CatalogStore
	Bookings BookingStore
	Reviews  ReviewStore
	Events   EventStore
	Tx       Transactor
}

type Options struct {
	CancellationWindow time.Duration
	MaxGuests          int
	// Filter screens notes, comments and reasons. Nil accepts all text.
	Filter *badwords.Filter
	Now    func() time.Time
	// NewCode generates confirmation codes.
	NewCode func() (string, error)
}

// BookingService prices checkouts and drives bookings through their
// lifecycle.
type BookingService struct {
	stores    Stores
	window    time.Duration
	maxGuests int
	now       func() time.Time
	newCode   func() (string, error)
	validate  *validator.Validate
}

func NewBookingService(stores Stores, opts Options) *BookingService {
	s := &BookingService{
		stores:    stores,
		window:    opts.CancellationWindow,
		maxGuests: opts.MaxGuests,
		now:       opts.Now,
		newCode:   opts.NewCode,
		validate:  newValidator(opts.Filter),
	}
	if s.window <= 0 {
		s.window = DefaultCancellationWindow
	}
	if s.maxGuests <= 0 {
		s.maxGuests = DefaultMaxGuests
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newCode == nil {
		s.newCode = shared_utils.GenerateConfirmationCode
	}
	return s
}

// RatingResult is a stored review and the offerable's recomputed rating.
type RatingResult struct {
	Review      *review_models.Review
	Rating      decimal.Decimal
	RatingCount int
}

// BookingPage is one page of a listing plus the total across all pages.
type BookingPage struct {
	Items []booking_models.Booking
	Total int
	Page  int
	Limit int
}

// resolve loads the active offerable a request points at.
func (s *BookingService) resolve(ctx context.Context, ref booking_models.OfferableRef) (*catalog_models.Offerable, error) {
	offerable, err := s.stores.Catalog.FindOfferable(ctx, ref)
	if err != nil {
		if errors.Is(err, catalog_models.ErrOfferableNotFound) {
			return nil, fmt.Errorf("%s: %w", ref.Kind, ErrNotFound)
		}
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}
	if !offerable.IsActive {
		logger.WarnLogger.Warnf("Offerable %s is inactive", ref)
		return nil, fmt.Errorf("%s: %w", ref.Kind, ErrNotFound)
	}
	return offerable, nil
}

// Quote validates a checkout request and prices it without storing
// anything.
func (s *BookingService) Quote(ctx context.Context, in BookingInput) (*pricing.Quote, error) {
	if err := s.validateBooking(in); err != nil {
		return nil, err
	}
	offerable, err := s.resolve(ctx, in.Offerable)
	if err != nil {
		return nil, err
	}
	q := pricing.NewQuote(offerable.Price, offerable.DiscountPrice, in.CheckIn, in.CheckOut, in.Guests)
	return &q, nil
}

// CreateBooking prices the request and stores it as a pending booking with
// a fresh confirmation code.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, in BookingInput) (*booking_models.Booking, error) {
	logger.InfoLogger.Infof("CreateBooking: user %s, %s, %d guests", userID, in.Offerable, in.Guests)

	if err := s.validateBooking(in); err != nil {
		metrics.BookingRejections.WithLabelValues("create", "validation").Inc()
		return nil, err
	}
	offerable, err := s.resolve(ctx, in.Offerable)
	if err != nil {
		return nil, err
	}

	now := s.now()
	booking, err := booking_models.NewBooking(userID, offerable.CompanyID, in.Offerable,
		pricing.Date(in.CheckIn), pricing.Date(in.CheckOut), in.Guests, now)
	if err != nil {
		return nil, err
	}
	quote := pricing.NewQuote(offerable.Price, offerable.DiscountPrice, booking.CheckIn, booking.CheckOut, booking.Guests)
	booking.UnitPrice = quote.UnitPrice
	booking.Nights = quote.Nights
	booking.TotalPrice = quote.Total
	booking.Notes = in.Notes
	booking.ContactEmail = in.ContactEmail

	for attempt := 1; attempt <= confirmationCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate confirmation code: %w", err)
		}
		booking.ConfirmationCode = code

		err = s.stores.Tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			if err := s.stores.Bookings.Insert(txCtx, booking); err != nil {
				return err
			}
			return s.appendBookingEvent(txCtx, outbox_models.EventBookingCreated, booking, now)
		})
		if errors.Is(err, booking_models.ErrDuplicateConfirmationCode) {
			logger.WarnLogger.Warnf("Confirmation code collision on attempt %d for booking %s", attempt, booking.ID)
			continue
		}
		if err != nil {
			logger.ErrorLogger.Errorf("Failed to store booking %s: %v", booking.ID, err)
			return nil, fmt.Errorf("create booking: %w", err)
		}

		metrics.BookingTransitions.WithLabelValues(string(booking_models.StatusPending)).Inc()
		logger.InfoLogger.Infof("Booking %s created (%s) total %s", booking.ID, booking.ConfirmationCode, booking.TotalPrice.StringFixed(2))
		return booking, nil
	}

	return nil, ErrCodeExhausted
}

// ownedBy loads a booking and checks that owner returns the caller's id.
func (s *BookingService) ownedBy(ctx context.Context, bookingID, callerID uuid.UUID, owner func(*booking_models.Booking) uuid.UUID) (*booking_models.Booking, error) {
	booking, err := s.stores.Bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, booking_models.ErrBookingNotFound) {
			return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
		}
		return nil, fmt.Errorf("load booking %s: %w", bookingID, err)
	}
	if owner(booking) != callerID {
		logger.WarnLogger.Warnf("Account %s tried to act on booking %s", callerID, bookingID)
		return nil, ErrForbidden
	}
	return booking, nil
}

func bookingUser(b *booking_models.Booking) uuid.UUID    { return b.UserID }
func bookingCompany(b *booking_models.Booking) uuid.UUID { return b.CompanyID }

// GetBooking returns one of the user's bookings.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*booking_models.Booking, error) {
	return s.ownedBy(ctx, bookingID, userID, bookingUser)
}

// CancelBooking cancels a pending or confirmed booking of the requester,
// allowed up to the cancellation window after creation.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, requesterID uuid.UUID, reason string) (*booking_models.Booking, error) {
	logger.InfoLogger.Infof("CancelBooking: booking %s by %s", bookingID, requesterID)

	if err := s.validateReason(reason); err != nil {
		return nil, err
	}
	booking, err := s.ownedBy(ctx, bookingID, requesterID, bookingUser)
	if err != nil {
		return nil, err
	}

	if !booking_models.CanTransition(booking.Status, booking_models.StatusCancelled) {
		metrics.BookingRejections.WithLabelValues("cancel", "invalid_state").Inc()
		return nil, fmt.Errorf("cancel %s booking: %w", booking.Status, ErrInvalidState)
	}

	now := s.now()
	if now.Sub(booking.CreatedAt) > s.window {
		metrics.BookingRejections.WithLabelValues("cancel", "expired_window").Inc()
		return nil, ErrExpiredWindow
	}

	change := booking_models.StatusChange{To: booking_models.StatusCancelled, At: now}
	if reason != "" {
		change.CancellationReason = &reason
	}
	return s.transition(ctx, booking, change, outbox_models.EventBookingCancelled)
}

// ConfirmBooking accepts a pending booking on behalf of its company.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, companyID uuid.UUID) (*booking_models.Booking, error) {
	logger.InfoLogger.Infof("ConfirmBooking: booking %s by company %s", bookingID, companyID)
	return s.companyTransition(ctx, bookingID, companyID, booking_models.StatusConfirmed, outbox_models.EventBookingConfirmed)
}

// CompleteBooking marks a confirmed booking as fulfilled.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID, companyID uuid.UUID) (*booking_models.Booking, error) {
	logger.InfoLogger.Infof("CompleteBooking: booking %s by company %s", bookingID, companyID)
	return s.companyTransition(ctx, bookingID, companyID, booking_models.StatusCompleted, outbox_models.EventBookingCompleted)
}

func (s *BookingService) companyTransition(ctx context.Context, bookingID, companyID uuid.UUID, to booking_models.BookingStatus, eventType string) (*booking_models.Booking, error) {
	booking, err := s.ownedBy(ctx, bookingID, companyID, bookingCompany)
	if err != nil {
		return nil, err
	}
	if !booking_models.CanTransition(booking.Status, to) {
		metrics.BookingRejections.WithLabelValues(string(to), "invalid_state").Inc()
		return nil, fmt.Errorf("move %s booking to %s: %w", booking.Status, to, ErrInvalidState)
	}
	return s.transition(ctx, booking, booking_models.StatusChange{To: to, At: s.now()}, eventType)
}

// transition applies change only if the booking is still in a status that
// may reach change.To, and records the matching event in the same
// transaction.
func (s *BookingService) transition(ctx context.Context, booking *booking_models.Booking, change booking_models.StatusChange, eventType string) (*booking_models.Booking, error) {
	var updated *booking_models.Booking
	err := s.stores.Tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.stores.Bookings.TransitionStatus(txCtx, booking.ID, booking_models.SourcesOf(change.To), change)
		if err != nil {
			return err
		}
		return s.appendBookingEvent(txCtx, eventType, updated, change.At)
	})
	if err != nil {
		if errors.Is(err, booking_models.ErrStatusChanged) {
			logger.WarnLogger.Warnf("Booking %s changed status concurrently", booking.ID)
			return nil, fmt.Errorf("booking %s: %w", booking.ID, ErrInvalidState)
		}
		return nil, fmt.Errorf("update booking %s: %w", booking.ID, err)
	}

	metrics.BookingTransitions.WithLabelValues(string(change.To)).Inc()
	logger.InfoLogger.Infof("Booking %s is now %s", updated.ID, updated.Status)
	return updated, nil
}

// SubmitRating stores the user's review of a completed, checked-out
// booking and recomputes the offerable's average rating.
func (s *BookingService) SubmitRating(ctx context.Context, bookingID, userID uuid.UUID, in RatingInput) (*RatingResult, error) {
	logger.InfoLogger.Infof("SubmitRating: booking %s by %s, rating %d", bookingID, userID, in.Rating)

	if err := s.validateRating(in); err != nil {
		return nil, err
	}
	booking, err := s.ownedBy(ctx, bookingID, userID, bookingUser)
	if err != nil {
		return nil, err
	}

	if booking.Status != booking_models.StatusCompleted {
		metrics.BookingRejections.WithLabelValues("rate", "invalid_state").Inc()
		return nil, fmt.Errorf("rate %s booking: %w", booking.Status, ErrInvalidState)
	}

	now := s.now()
	if !now.After(pricing.Date(booking.CheckOut)) {
		metrics.BookingRejections.WithLabelValues("rate", "too_early").Inc()
		return nil, ErrTooEarly
	}

	existing, err := s.stores.Reviews.FindOne(ctx, userID, bookingID)
	if err != nil {
		return nil, fmt.Errorf("look up review: %w", err)
	}
	if existing != nil {
		metrics.BookingRejections.WithLabelValues("rate", "duplicate").Inc()
		return nil, ErrDuplicate
	}

	reviewable := booking.Offerable
	if !reviewable.Valid() {
		return nil, fieldError("offerable", "booking has no reviewable destination, package or offer")
	}

	review, err := review_models.NewReview(userID, bookingID, reviewable, in.Rating, in.Comment, now)
	if err != nil {
		return nil, err
	}

	result := &RatingResult{Review: review}
	err = s.stores.Tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.stores.Catalog.LockOfferable(txCtx, reviewable); err != nil {
			return err
		}
		if err := s.stores.Reviews.Insert(txCtx, review); err != nil {
			return err
		}

		mean, count, err := s.stores.Reviews.AverageRating(txCtx, reviewable)
		if err != nil {
			return err
		}
		result.Rating = pricing.RoundRating(mean)
		result.RatingCount = count

		if err := s.stores.Catalog.UpdateRating(txCtx, reviewable, result.Rating, count, now); err != nil {
			return err
		}

		event, err := outbox_models.NewEvent(outbox_models.EventBookingRated, booking.ID, outbox_models.RatedPayload{
			BookingID:      booking.ID,
			UserID:         userID,
			ReviewID:       review.ID,
			ReviewableType: string(reviewable.Kind),
			ReviewableID:   reviewable.ID,
			Rating:         review.Rating,
			AverageRating:  result.Rating.StringFixed(1),
			RatingCount:    count,
		}, now)
		if err != nil {
			return err
		}
		return s.stores.Events.Append(txCtx, event)
	})
	if err != nil {
		switch {
		case errors.Is(err, review_models.ErrDuplicateReview):
			return nil, ErrDuplicate
		case errors.Is(err, catalog_models.ErrOfferableNotFound):
			return nil, fmt.Errorf("%s: %w", reviewable.Kind, ErrNotFound)
		}
		logger.ErrorLogger.Errorf("Failed to store rating for booking %s: %v", bookingID, err)
		return nil, fmt.Errorf("submit rating: %w", err)
	}

	metrics.RatingsSubmitted.Inc()
	logger.InfoLogger.Infof("Rating on %s is now %s over %d reviews", reviewable, result.Rating.StringFixed(1), result.RatingCount)
	return result, nil
}

// ListUserBookings pages through the user's bookings, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, userID uuid.UUID, q ListQuery) (*BookingPage, error) {
	return s.list(ctx, q, func(f booking_models.ListFilter) ([]booking_models.Booking, int, error) {
		return s.stores.Bookings.ListByUser(ctx, userID, f)
	})
}

// ListCompanyBookings pages through bookings of the company's listings.
func (s *BookingService) ListCompanyBookings(ctx context.Context, companyID uuid.UUID, q ListQuery) (*BookingPage, error) {
	return s.list(ctx, q, func(f booking_models.ListFilter) ([]booking_models.Booking, int, error) {
		return s.stores.Bookings.ListByCompany(ctx, companyID, f)
	})
}

func (s *BookingService) list(ctx context.Context, q ListQuery, fetch func(booking_models.ListFilter) ([]booking_models.Booking, int, error)) (*BookingPage, error) {
	filter, err := q.filter()
	if err != nil {
		return nil, err
	}
	items, total, err := fetch(filter)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return &BookingPage{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *BookingService) appendBookingEvent(ctx context.Context, eventType string, b *booking_models.Booking, now time.Time) error {
	payload := outbox_models.BookingPayload{
		BookingID:        b.ID,
		UserID:           b.UserID,
		CompanyID:        b.CompanyID,
		OfferableType:    string(b.Offerable.Kind),
		OfferableID:      b.Offerable.ID,
		Status:           string(b.Status),
		ConfirmationCode: b.ConfirmationCode,
		CheckIn:          b.CheckIn.Format(booking_models.DateLayout),
		CheckOut:         b.CheckOut.Format(booking_models.DateLayout),
		Guests:           b.Guests,
		TotalPrice:       b.TotalPrice.StringFixed(2),
		ContactEmail:     b.ContactEmail,
	}
	if b.CancellationReason != nil {
		payload.CancellationReason = *b.CancellationReason
	}

	event, err := outbox_models.NewEvent(eventType, b.ID, payload, now)
	if err != nil {
		return err
	}
	return s.stores.Events.Append(ctx, event)
}
