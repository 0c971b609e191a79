package responses

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travel/models/booking_models"
	"github.com/joy095/travel/pricing"
	"github.com/joy095/travel/services/booking_service"
)

// BookingRequest is the checkout body. Exactly one of the three ids must be
// set.
type BookingRequest struct {
	DestinationID *uuid.UUID `json:"destination_id"`
	PackageID     *uuid.UUID `json:"package_id"`
	OfferID       *uuid.UUID `json:"offer_id"`
	CheckIn       string     `json:"check_in"`
	CheckOut      string     `json:"check_out"`
	Guests        int        `json:"guests"`
	Notes         string     `json:"notes"`
	ContactEmail  string     `json:"contact_email"`
}

// ToInput converts the wire shape into a service request. Problems that
// only the wire shape can have come back as a ValidationError.
func (r BookingRequest) ToInput() (booking_service.BookingInput, error) {
	verr := &booking_service.ValidationError{}

	ref, err := booking_models.RefFromFields(r.DestinationID, r.PackageID, r.OfferID)
	if err != nil {
		verr.Fields = append(verr.Fields, booking_service.FieldError{Field: "offerable", Message: err.Error()})
	}

	checkIn, ok := parseDate(r.CheckIn)
	if !ok {
		verr.Fields = append(verr.Fields, dateError("check_in"))
	}
	checkOut, ok := parseDate(r.CheckOut)
	if !ok {
		verr.Fields = append(verr.Fields, dateError("check_out"))
	}

	if len(verr.Fields) > 0 {
		return booking_service.BookingInput{}, verr
	}
	return booking_service.BookingInput{
		Offerable:    ref,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Guests:       r.Guests,
		Notes:        strings.TrimSpace(r.Notes),
		ContactEmail: strings.TrimSpace(r.ContactEmail),
	}, nil
}

// parseDate accepts an empty string as the zero time so the service can
// report the field as required.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(booking_models.DateLayout, s)
	return t, err == nil
}

func dateError(field string) booking_service.FieldError {
	return booking_service.FieldError{Field: field, Message: "must be a date in YYYY-MM-DD format"}
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type RatingRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type BookingResponse struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	CompanyID          uuid.UUID  `json:"company_id"`
	OfferableType      string     `json:"offerable_type"`
	OfferableID        uuid.UUID  `json:"offerable_id"`
	CheckIn            string     `json:"check_in"`
	CheckOut           string     `json:"check_out"`
	Guests             int        `json:"guests"`
	Nights             int        `json:"nights"`
	UnitPrice          string     `json:"unit_price"`
	TotalPrice         string     `json:"total_price"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes,omitempty"`
	ContactEmail       string     `json:"contact_email,omitempty"`
	ConfirmationCode   string     `json:"confirmation_code"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func NewBookingResponse(b *booking_models.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		UserID:             b.UserID,
		CompanyID:          b.CompanyID,
		OfferableType:      string(b.Offerable.Kind),
		OfferableID:        b.Offerable.ID,
		CheckIn:            b.CheckIn.Format(booking_models.DateLayout),
		CheckOut:           b.CheckOut.Format(booking_models.DateLayout),
		Guests:             b.Guests,
		Nights:             b.Nights,
		UnitPrice:          b.UnitPrice.StringFixed(2),
		TotalPrice:         b.TotalPrice.StringFixed(2),
		Status:             string(b.Status),
		Notes:              b.Notes,
		ContactEmail:       b.ContactEmail,
		ConfirmationCode:   b.ConfirmationCode,
		CancelledAt:        b.CancelledAt,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

type QuoteResponse struct {
	UnitPrice  string `json:"unit_price"`
	Nights     int    `json:"nights"`
	Guests     int    `json:"guests"`
	TotalPrice string `json:"total_price"`
}

func NewQuoteResponse(q *pricing.Quote) QuoteResponse {
	return QuoteResponse{
		UnitPrice:  q.UnitPrice.StringFixed(2),
		Nights:     q.Nights,
		Guests:     q.Guests,
		TotalPrice: q.Total.StringFixed(2),
	}
}

type RatingResponse struct {
	ReviewID       uuid.UUID `json:"review_id"`
	BookingID      uuid.UUID `json:"booking_id"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment,omitempty"`
	ReviewableType string    `json:"reviewable_type"`
	ReviewableID   uuid.UUID `json:"reviewable_id"`
	AverageRating  string    `json:"average_rating"`
	RatingCount    int       `json:"rating_count"`
}

func NewRatingResponse(r *booking_service.RatingResult) RatingResponse {
	return RatingResponse{
		ReviewID:       r.Review.ID,
		BookingID:      r.Review.BookingID,
		Rating:         r.Review.Rating,
		Comment:        r.Review.Comment,
		ReviewableType: string(r.Review.Reviewable.Kind),
		ReviewableID:   r.Review.Reviewable.ID,
		AverageRating:  r.Rating.StringFixed(1),
		RatingCount:    r.RatingCount,
	}
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type PageResponse struct {
	Success    bool              `json:"success"`
	Data       []BookingResponse `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

func NewPageResponse(p *booking_service.BookingPage) PageResponse {
	items := make([]BookingResponse, len(p.Items))
	for i := range p.Items {
		items[i] = NewBookingResponse(&p.Items[i])
	}
	return PageResponse{
		Success: true,
		Data:    items,
		Pagination: Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: (p.Total + p.Limit - 1) / p.Limit,
		},
	}
}

// ListQueryFromRequest reads ?status=&page=&limit=. Missing values keep
// their zero value and take the service defaults.
func ListQueryFromRequest(c *gin.Context) (booking_service.ListQuery, error) {
	q := booking_service.ListQuery{Status: c.Query("status")}
	verr := &booking_service.ValidationError{}

	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &q.Page}, {"limit", &q.Limit}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			verr.Fields = append(verr.Fields, booking_service.FieldError{Field: p.name, Message: "must be an integer"})
			continue
		}
		*p.dst = n
	}

	if len(verr.Fields) > 0 {
		return q, verr
	}
	return q, nil
}

var ErrInvalidBookingID = errors.New("invalid booking ID")

// BookingIDParam parses the :booking_id path segment.
func BookingIDParam(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		return uuid.Nil, &booking_service.ValidationError{Fields: []booking_service.FieldError{{Field: "booking_id", Message: ErrInvalidBookingID.Error()}}}
	}
	return id, nil
}
