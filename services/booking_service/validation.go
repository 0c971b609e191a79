package booking_service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joy095/travel/badwords"
	"github.com/joy095/travel/models/booking_models"
	"github.com/joy095/travel/pricing"
)

// MaxTextLength bounds notes, review comments and cancellation reasons.
const MaxTextLength = 500

// BookingInput is a checkout request. CheckIn and CheckOut are calendar
// dates; any clock part is ignored.
type BookingInput struct {
	Offerable    booking_models.OfferableRef `json:"offerable"`
	CheckIn      time.Time                   `json:"check_in"`
	CheckOut     time.Time                   `json:"check_out"`
	Guests       int                         `json:"guests" validate:"min=1"`
	Notes        string                      `json:"notes" validate:"max=500,clean"`
	ContactEmail string                      `json:"contact_email" validate:"omitempty,email"`
}

type RatingInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=500,clean"`
}

type cancelInput struct {
	Reason string `json:"reason" validate:"max=500,clean"`
}

func newValidator(filter *badwords.Filter) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("clean", func(fl validator.FieldLevel) bool {
		return !filter.ContainsBadWords(fl.Field().String())
	})
	return v
}

// structErrors runs the tag rules on s and appends failures to verr.
func (s *BookingService) structErrors(in any, verr *ValidationError) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %T: %w", in, err)
	}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), fieldMessage(fe))
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "clean":
		return "contains inappropriate language"
	default:
		return "is invalid"
	}
}

// validateBooking checks a checkout request against today's date in UTC.
func (s *BookingService) validateBooking(in BookingInput) error {
	verr := &ValidationError{}

	switch {
	case in.Offerable.IsZero():
		verr.add("offerable", booking_models.ErrNoOfferable.Error())
	case !in.Offerable.Valid():
		verr.add("offerable", "must reference a destination, package or offer")
	}

	if in.CheckIn.IsZero() {
		verr.add("check_in", "is required")
	} else if pricing.Date(in.CheckIn).Before(pricing.Date(s.now())) {
		verr.add("check_in", "must be today or later")
	}

	if in.CheckOut.IsZero() {
		verr.add("check_out", "is required")
	} else if !in.CheckIn.IsZero() && !pricing.Date(in.CheckOut).After(pricing.Date(in.CheckIn)) {
		verr.add("check_out", "must be after check_in")
	}

	if err := s.structErrors(in, verr); err != nil {
		return err
	}
	if in.Guests > s.maxGuests {
		verr.add("guests", fmt.Sprintf("must be at most %d", s.maxGuests))
	}

	return verr.orNil()
}

func (s *BookingService) validateRating(in RatingInput) error {
	verr := &ValidationError{}
	if err := s.structErrors(in, verr); err != nil {
		return err
	}
	return verr.orNil()
}

func (s *BookingService) validateReason(reason string) error {
	verr := &ValidationError{}
	if err := s.structErrors(cancelInput{Reason: reason}, verr); err != nil {
		return err
	}
	return verr.orNil()
}

// ListQuery selects one page of a booking listing. Zero Page and Limit take
// the defaults.
type ListQuery struct {
	Status string
	Page   int
	Limit  int
}

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

func (q ListQuery) filter() (booking_models.ListFilter, error) {
	verr := &ValidationError{}
	f := booking_models.ListFilter{Page: q.Page, Limit: q.Limit}

	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Page < 1 {
		verr.add("page", "must be at least 1")
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		verr.add("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}
	if q.Status != "" {
		f.Status = booking_models.BookingStatus(q.Status)
		if !f.Status.Valid() {
			verr.add("status", "must be one of pending, confirmed, cancelled, completed")
		}
	}

	if err := verr.orNil(); err != nil {
		return booking_models.ListFilter{}, err
	}
	return f, nil
}
