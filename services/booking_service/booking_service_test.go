package booking_service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/travel/badwords"
	"github.com/joy095/travel/models/booking_models"
	"github.com/joy095/travel/models/catalog_models"
	"github.com/joy095/travel/models/outbox_models"
	"github.com/joy095/travel/storage/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	db      *memstore.DB
	svc     *BookingService
	clock   *clock
	company uuid.UUID
	ref     booking_models.OfferableRef
}

func date(s string) time.Time {
	t, err := time.Parse(booking_models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newFixture(t *testing.T, opts ...func(*Options)) *fixture {
	t.Helper()

	f := &fixture{
		db:      memstore.New(),
		clock:   &clock{t: time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)},
		company: uuid.New(),
		ref:     booking_models.OfferableRef{Kind: booking_models.KindPackage, ID: uuid.New()},
	}
	f.db.PutOfferable(catalog_models.Offerable{
		Ref:           f.ref,
		CompanyID:     f.company,
		Name:          "Coastal Trek",
		Price:         decimal.RequireFromString("100"),
		DiscountPrice: decimal.NewNullDecimal(decimal.RequireFromString("80")),
		IsActive:      true,
	})

	o := Options{
		Now:    f.clock.Now,
		Filter: badwords.New("scam"),
	}
	for _, fn := range opts {
		fn(&o)
	}

	f.svc = NewBookingService(Stores{
		Catalog:  f.db.Catalog(),
		Bookings: f.db.Bookings(),
		Reviews:  f.db.Reviews(),
		Events:   f.db.Outbox(),
		Tx:       f.db,
	}, o)
	return f
}

func (f *fixture) input() BookingInput {
	return BookingInput{
		Offerable: f.ref,
		CheckIn:   date("2025-06-01"),
		CheckOut:  date("2025-06-04"),
		Guests:    2,
	}
}

func (f *fixture) book(t *testing.T, userID uuid.UUID) *booking_models.Booking {
	t.Helper()
	b, err := f.svc.CreateBooking(context.Background(), userID, f.input())
	require.NoError(t, err)
	return b
}

// completed books, confirms and completes a stay for userID.
func (f *fixture) completed(t *testing.T, userID uuid.UUID) *booking_models.Booking {
	t.Helper()
	ctx := context.Background()
	b := f.book(t, userID)
	_, err := f.svc.ConfirmBooking(ctx, b.ID, f.company)
	require.NoError(t, err)
	b, err = f.svc.CompleteBooking(ctx, b.ID, f.company)
	require.NoError(t, err)
	return b
}

func (f *fixture) offerable(t *testing.T) *catalog_models.Offerable {
	t.Helper()
	o, err := f.db.Catalog().FindOfferable(context.Background(), f.ref)
	require.NoError(t, err)
	return o
}

func eventTypes(events []outbox_models.Event) []string {
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType
	}
	return types
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	names := make([]string, len(verr.Fields))
	for i, fe := range verr.Fields {
		names[i] = fe.Field
	}
	return names
}

func TestCreateBookingPricesWithDiscount(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	b := f.book(t, user)

	assert.Equal(t, "480.00", b.TotalPrice.StringFixed(2))
	assert.Equal(t, "80.00", b.UnitPrice.StringFixed(2))
	assert.Equal(t, 3, b.Nights)
	assert.Equal(t, booking_models.StatusPending, b.Status)
	assert.Equal(t, user, b.UserID)
	assert.Equal(t, f.company, b.CompanyID)
	assert.Equal(t, f.ref, b.Offerable)
	assert.True(t, strings.HasPrefix(b.ConfirmationCode, "TRV-"))
	assert.Equal(t, f.clock.Now(), b.CreatedAt)

	stored, err := f.db.Bookings().FindByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ConfirmationCode, stored.ConfirmationCode)

	events := f.db.Events()
	require.Len(t, events, 1)
	assert.Equal(t, outbox_models.EventBookingCreated, events[0].EventType)
	assert.Equal(t, b.ID, events[0].CorrelationID)
	assert.Contains(t, string(events[0].Payload), `"total_price":"480.00"`)
}

func TestCreateBookingUsesListPriceWithoutDiscount(t *testing.T) {
	f := newFixture(t)
	f.db.PutOfferable(catalog_models.Offerable{
		Ref:       f.ref,
		CompanyID: f.company,
		Price:     decimal.RequireFromString("99.99"),
		IsActive:  true,
	})

	in := f.input()
	in.Guests = 3
	in.CheckOut = date("2025-06-02")

	b, err := f.svc.CreateBooking(context.Background(), uuid.New(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Nights)
	assert.Equal(t, "299.97", b.TotalPrice.StringFixed(2))
}

func TestCreateBookingValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BookingInput)
		field  string
	}{
		{"no offerable", func(in *BookingInput) { in.Offerable = booking_models.OfferableRef{} }, "offerable"},
		{"unknown kind", func(in *BookingInput) { in.Offerable.Kind = "hotel" }, "offerable"},
		{"check_out equals check_in", func(in *BookingInput) { in.CheckOut = in.CheckIn }, "check_out"},
		{"check_out before check_in", func(in *BookingInput) { in.CheckOut = date("2025-05-31") }, "check_out"},
		{"check_in in the past", func(in *BookingInput) { in.CheckIn = date("2025-05-29") }, "check_in"},
		{"missing check_in", func(in *BookingInput) { in.CheckIn = time.Time{} }, "check_in"},
		{"no guests", func(in *BookingInput) { in.Guests = 0 }, "guests"},
		{"too many guests", func(in *BookingInput) { in.Guests = 9 }, "guests"},
		{"long notes", func(in *BookingInput) { in.Notes = strings.Repeat("a", MaxTextLength+1) }, "notes"},
		{"banned word in notes", func(in *BookingInput) { in.Notes = "is this a SCAM?" }, "notes"},
		{"bad contact email", func(in *BookingInput) { in.ContactEmail = "nope" }, "contact_email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := f.input()
			tt.mutate(&in)

			_, err := f.svc.CreateBooking(context.Background(), uuid.New(), in)
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, fieldNames(t, err), tt.field)
			assert.Empty(t, f.db.Events())
		})
	}
}

func TestCreateBookingAcceptsBoundaryValues(t *testing.T) {
	f := newFixture(t)
	in := f.input()
	in.CheckIn = date("2025-05-30")
	in.CheckOut = date("2025-05-31")
	in.Guests = 8
	in.Notes = strings.Repeat("é", MaxTextLength)

	b, err := f.svc.CreateBooking(context.Background(), uuid.New(), in)
	require.NoError(t, err)
	assert.Equal(t, "640.00", b.TotalPrice.StringFixed(2))
}

func TestCreateBookingNotFound(t *testing.T) {
	f := newFixture(t)

	in := f.input()
	in.Offerable = booking_models.OfferableRef{Kind: booking_models.KindOffer, ID: uuid.New()}
	_, err := f.svc.CreateBooking(context.Background(), uuid.New(), in)
	assert.ErrorIs(t, err, ErrNotFound)

	f.db.PutOfferable(catalog_models.Offerable{Ref: f.ref, CompanyID: f.company, Price: decimal.NewFromInt(10)})
	_, err = f.svc.CreateBooking(context.Background(), uuid.New(), f.input())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBookingRetriesConfirmationCode(t *testing.T) {
	codes := []string{"TRV-AAAAAAAA", "TRV-AAAAAAAA", "TRV-BBBBBBBB"}
	f := newFixture(t, func(o *Options) {
		o.NewCode = func() (string, error) {
			code := codes[0]
			codes = codes[1:]
			return code, nil
		}
	})

	first := f.book(t, uuid.New())
	second := f.book(t, uuid.New())

	assert.Equal(t, "TRV-AAAAAAAA", first.ConfirmationCode)
	assert.Equal(t, "TRV-BBBBBBBB", second.ConfirmationCode)
}

func TestCreateBookingGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.NewCode = func() (string, error) { return "TRV-SAMESAME", nil }
	})
	f.book(t, uuid.New())

	_, err := f.svc.CreateBooking(context.Background(), uuid.New(), f.input())
	assert.ErrorIs(t, err, ErrCodeExhausted)
}

func TestQuoteDoesNotPersist(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.Quote(context.Background(), f.input())
	require.NoError(t, err)
	assert.Equal(t, "480.00", q.Total.StringFixed(2))
	assert.Equal(t, 3, q.Nights)
	assert.Equal(t, 2, q.Guests)

	page, err := f.svc.ListCompanyBookings(context.Background(), f.company, ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, f.db.Events())
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("pending within window", func(t *testing.T) {
		f := newFixture(t)
		user := uuid.New()
		b := f.book(t, user)
		f.clock.Advance(2 * time.Hour)

		cancelled, err := f.svc.CancelBooking(ctx, b.ID, user, "plans changed")
		require.NoError(t, err)
		assert.Equal(t, booking_models.StatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelledAt)
		assert.Equal(t, f.clock.Now(), *cancelled.CancelledAt)
		require.NotNil(t, cancelled.CancellationReason)
		assert.Equal(t, "plans changed", *cancelled.CancellationReason)
		assert.Equal(t, []string{outbox_models.EventBookingCreated, outbox_models.EventBookingCancelled}, eventTypes(f.db.Events()))
	})

	t.Run("confirmed at exactly the window edge", func(t *testing.T) {
		f := newFixture(t)
		user := uuid.New()
		b := f.book(t, user)
		_, err := f.svc.ConfirmBooking(ctx, b.ID, f.company)
		require.NoError(t, err)
		f.clock.Advance(12 * time.Hour)

		cancelled, err := f.svc.CancelBooking(ctx, b.ID, user, "")
		require.NoError(t, err)
		assert.Nil(t, cancelled.CancellationReason)
	})

	t.Run("after the window", func(t *testing.T) {
		f := newFixture(t)
		user := uuid.New()
		b := f.book(t, user)
		f.clock.Advance(13 * time.Hour)

		_, err := f.svc.CancelBooking(ctx, b.ID, user, "")
		assert.ErrorIs(t, err, ErrExpiredWindow)

		stored, err := f.db.Bookings().FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, booking_models.StatusPending, stored.Status)
	})

	t.Run("twice", func(t *testing.T) {
		f := newFixture(t)
		user := uuid.New()
		b := f.book(t, user)

		_, err := f.svc.CancelBooking(ctx, b.ID, user, "")
		require.NoError(t, err)
		_, err = f.svc.CancelBooking(ctx, b.ID, user, "")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("completed", func(t *testing.T) {
		f := newFixture(t)
		user := uuid.New()
		b := f.completed(t, user)

		_, err := f.svc.CancelBooking(ctx, b.ID, user, "")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("someone else's booking", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t, uuid.New())

		_, err := f.svc.CancelBooking(ctx, b.ID, uuid.New(), "")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CancelBooking(ctx, uuid.New(), uuid.New(), "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("reason with banned word", func(t *testing.T) {
		f := newFixture(t)
		user := uuid.New()
		b := f.book(t, user)

		_, err := f.svc.CancelBooking(ctx, b.ID, user, "total scam")
		require.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, []string{"reason"}, fieldNames(t, err))
	})
}

func TestCancelBookingHonoursConfiguredWindow(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.CancellationWindow = time.Hour })
	user := uuid.New()
	b := f.book(t, user)
	f.clock.Advance(61 * time.Minute)

	_, err := f.svc.CancelBooking(context.Background(), b.ID, user, "")
	assert.ErrorIs(t, err, ErrExpiredWindow)
}

func TestCompanyTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.book(t, uuid.New())

	_, err := f.svc.CompleteBooking(ctx, b.ID, f.company)
	assert.ErrorIs(t, err, ErrInvalidState, "pending cannot skip to completed")

	_, err = f.svc.ConfirmBooking(ctx, b.ID, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)

	confirmed, err := f.svc.ConfirmBooking(ctx, b.ID, f.company)
	require.NoError(t, err)
	assert.Equal(t, booking_models.StatusConfirmed, confirmed.Status)

	_, err = f.svc.ConfirmBooking(ctx, b.ID, f.company)
	assert.ErrorIs(t, err, ErrInvalidState)

	completed, err := f.svc.CompleteBooking(ctx, b.ID, f.company)
	require.NoError(t, err)
	assert.Equal(t, booking_models.StatusCompleted, completed.Status)

	assert.Equal(t, []string{
		outbox_models.EventBookingCreated,
		outbox_models.EventBookingConfirmed,
		outbox_models.EventBookingCompleted,
	}, eventTypes(f.db.Events()))
}

func TestSubmitRating(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := uuid.New()
	b := f.completed(t, user)

	f.clock.t = date("2025-06-04")
	_, err := f.svc.SubmitRating(ctx, b.ID, user, RatingInput{Rating: 5})
	assert.ErrorIs(t, err, ErrTooEarly, "check-out day at midnight is not yet past")

	f.clock.Advance(time.Second)
	res, err := f.svc.SubmitRating(ctx, b.ID, user, RatingInput{Rating: 4, Comment: "Great guides"})
	require.NoError(t, err)
	assert.Equal(t, "4.0", res.Rating.StringFixed(1))
	assert.Equal(t, 1, res.RatingCount)
	assert.Equal(t, f.ref, res.Review.Reviewable)

	_, err = f.svc.SubmitRating(ctx, b.ID, user, RatingInput{Rating: 1})
	assert.ErrorIs(t, err, ErrDuplicate)

	o := f.offerable(t)
	require.True(t, o.Rating.Valid)
	assert.Equal(t, "4.0", o.Rating.Decimal.StringFixed(1))
	assert.Equal(t, 1, o.RatingCount)

	events := f.db.Events()
	assert.Equal(t, outbox_models.EventBookingRated, events[len(events)-1].EventType)
}

func TestSubmitRatingTooEarlyEvenWhenCompleted(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	b := f.completed(t, user)

	_, err := f.svc.SubmitRating(context.Background(), b.ID, user, RatingInput{Rating: 3})
	assert.ErrorIs(t, err, ErrTooEarly)
}

func TestSubmitRatingRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := uuid.New()
	pending := f.book(t, user)
	done := f.completed(t, user)
	f.clock.t = date("2025-06-10")

	_, err := f.svc.SubmitRating(ctx, pending.ID, user, RatingInput{Rating: 5})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.SubmitRating(ctx, done.ID, uuid.New(), RatingInput{Rating: 5})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.SubmitRating(ctx, uuid.New(), user, RatingInput{Rating: 5})
	assert.ErrorIs(t, err, ErrNotFound)

	for _, rating := range []int{0, 6} {
		_, err = f.svc.SubmitRating(ctx, done.ID, user, RatingInput{Rating: rating})
		require.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, []string{"rating"}, fieldNames(t, err))
	}

	_, err = f.svc.SubmitRating(ctx, done.ID, user, RatingInput{Rating: 5, Comment: strings.Repeat("x", MaxTextLength+1)})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, []string{"comment"}, fieldNames(t, err))
}

func TestRatingIsRoundedMeanRegardlessOfOrder(t *testing.T) {
	orders := [][]int{
		{5, 4, 4},
		{4, 5, 4},
		{4, 4, 5},
	}
	for _, ratings := range orders {
		t.Run(fmt.Sprint(ratings), func(t *testing.T) {
			f := newFixture(t)
			var last *RatingResult
			for _, r := range ratings {
				user := uuid.New()
				b := f.completed(t, user)
				f.clock.t = date("2025-06-05")

				var err error
				last, err = f.svc.SubmitRating(context.Background(), b.ID, user, RatingInput{Rating: r})
				require.NoError(t, err)
				f.clock.t = time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)
			}

			assert.Equal(t, "4.3", last.Rating.StringFixed(1))
			assert.Equal(t, 3, last.RatingCount)
			assert.Equal(t, "4.3", f.offerable(t).Rating.Decimal.StringFixed(1))
		})
	}
}

func TestRatingRoundsHalfAwayFromZero(t *testing.T) {
	f := newFixture(t)
	var last *RatingResult
	for _, r := range []int{5, 5, 4, 3} {
		user := uuid.New()
		b := f.completed(t, user)
		f.clock.t = date("2025-06-05")

		var err error
		last, err = f.svc.SubmitRating(context.Background(), b.ID, user, RatingInput{Rating: r})
		require.NoError(t, err)
		f.clock.t = time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)
	}

	assert.Equal(t, "4.3", last.Rating.StringFixed(1))
}

func TestGetBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := uuid.New()
	b := f.book(t, user)

	got, err := f.svc.GetBooking(ctx, b.ID, user)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.svc.GetBooking(ctx, b.ID, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListBookings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		ids = append(ids, f.book(t, user).ID)
		f.clock.Advance(time.Minute)
	}
	f.book(t, uuid.New())
	_, err := f.svc.CancelBooking(ctx, ids[0], user, "")
	require.NoError(t, err)

	page, err := f.svc.ListUserBookings(ctx, user, ListQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[4], page.Items[0].ID, "newest first")
	assert.Equal(t, ids[3], page.Items[1].ID)

	page, err = f.svc.ListUserBookings(ctx, user, ListQuery{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID)

	page, err = f.svc.ListUserBookings(ctx, user, ListQuery{Status: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, DefaultPage, page.Page)
	assert.Equal(t, DefaultLimit, page.Limit)

	page, err = f.svc.ListCompanyBookings(ctx, f.company, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total)

	_, err = f.svc.ListUserBookings(ctx, user, ListQuery{Status: "archived"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.ListUserBookings(ctx, user, ListQuery{Limit: MaxLimit + 1})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.ListUserBookings(ctx, user, ListQuery{Page: -1})
	assert.ErrorIs(t, err, ErrValidation)
}
