package outbox_models

import "github.com/google/uuid"

// BookingPayload is the body of every booking.* lifecycle event except
// booking.rated. Money is a string with two decimals.
type BookingPayload struct {
	BookingID          uuid.UUID `json:"booking_id"`
	UserID             uuid.UUID `json:"user_id"`
	CompanyID          uuid.UUID `json:"company_id"`
	OfferableType      string    `json:"offerable_type"`
	OfferableID        uuid.UUID `json:"offerable_id"`
	Status             string    `json:"status"`
	ConfirmationCode   string    `json:"confirmation_code"`
	CheckIn            string    `json:"check_in"`
	CheckOut           string    `json:"check_out"`
	Guests             int       `json:"guests"`
	TotalPrice         string    `json:"total_price"`
	ContactEmail       string    `json:"contact_email,omitempty"`
	CancellationReason string    `json:"cancellation_reason,omitempty"`
}

// RatedPayload is the body of booking.rated.
type RatedPayload struct {
	BookingID      uuid.UUID `json:"booking_id"`
	UserID         uuid.UUID `json:"user_id"`
	ReviewID       uuid.UUID `json:"review_id"`
	ReviewableType string    `json:"reviewable_type"`
	ReviewableID   uuid.UUID `json:"reviewable_id"`
	Rating         int       `json:"rating"`
	AverageRating  string    `json:"average_rating"`
	RatingCount    int       `json:"rating_count"`
}
