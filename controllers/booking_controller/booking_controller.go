package booking_controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travel/controllers/responses"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/models/booking_models"
	"github.com/joy095/travel/pricing"
	"github.com/joy095/travel/services/booking_service"
	"github.com/joy095/travel/utils"
)

type BookingService interface {
	Quote(ctx context.Context, in booking_service.BookingInput) (*pricing.Quote, error)
	CreateBooking(ctx context.Context, userID uuid.UUID, in booking_service.BookingInput) (*booking_models.Booking, error)
	GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*booking_models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, requesterID uuid.UUID, reason string) (*booking_models.Booking, error)
}

// BookingController serves checkout and a user's actions on one booking.
type BookingController struct {
	Service BookingService
}

func NewBookingController(service BookingService) *BookingController {
	return &BookingController{Service: service}
}

func (bc *BookingController) bindBooking(c *gin.Context) (booking_service.BookingInput, bool) {
	var req responses.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnLogger.Warnf("Invalid booking request body: %v", err)
		responses.BadRequest(c, "Invalid request body")
		return booking_service.BookingInput{}, false
	}
	in, err := req.ToInput()
	if err != nil {
		responses.Error(c, err)
		return booking_service.BookingInput{}, false
	}
	return in, true
}

// Quote prices a checkout without booking it.
func (bc *BookingController) Quote(c *gin.Context) {
	in, ok := bc.bindBooking(c)
	if !ok {
		return
	}

	quote, err := bc.Service.Quote(c.Request.Context(), in)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.OK(c, http.StatusOK, responses.NewQuoteResponse(quote))
}

// CreateBooking handles checkout.
func (bc *BookingController) CreateBooking(c *gin.Context) {
	logger.InfoLogger.Info("CreateBooking controller hit...")

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, err)
		return
	}
	in, ok := bc.bindBooking(c)
	if !ok {
		return
	}

	booking, err := bc.Service.CreateBooking(c.Request.Context(), userID, in)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.OK(c, http.StatusCreated, responses.NewBookingResponse(booking))
}

func (bc *BookingController) GetBooking(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, err)
		return
	}
	bookingID, err := responses.BookingIDParam(c)
	if err != nil {
		responses.Error(c, err)
		return
	}

	booking, err := bc.Service.GetBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.OK(c, http.StatusOK, responses.NewBookingResponse(booking))
}

// CancelBooking cancels the caller's booking. The body is optional.
func (bc *BookingController) CancelBooking(c *gin.Context) {
	logger.InfoLogger.Info("CancelBooking controller hit...")

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, err)
		return
	}
	bookingID, err := responses.BookingIDParam(c)
	if err != nil {
		responses.Error(c, err)
		return
	}

	var req responses.CancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.BadRequest(c, "Invalid request body")
			return
		}
	}

	booking, err := bc.Service.CancelBooking(c.Request.Context(), bookingID, userID, req.Reason)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.OK(c, http.StatusOK, responses.NewBookingResponse(booking))
}
