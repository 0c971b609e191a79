package user_bookings_controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travel/controllers/responses"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/services/booking_service"
	"github.com/joy095/travel/utils"
)

type BookingService interface {
	ListUserBookings(ctx context.Context, userID uuid.UUID, q booking_service.ListQuery) (*booking_service.BookingPage, error)
	SubmitRating(ctx context.Context, bookingID, userID uuid.UUID, in booking_service.RatingInput) (*booking_service.RatingResult, error)
}

type UserBookingsController struct {
	Service BookingService
}

func NewUserBookingsController(service BookingService) *UserBookingsController {
	return &UserBookingsController{Service: service}
}

// ListBookings returns the caller's bookings, newest first.
func (uc *UserBookingsController) ListBookings(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, err)
		return
	}
	q, err := responses.ListQueryFromRequest(c)
	if err != nil {
		responses.Error(c, err)
		return
	}

	page, err := uc.Service.ListUserBookings(c.Request.Context(), userID, q)
	if err != nil {
		responses.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.NewPageResponse(page))
}

// SubmitRating reviews a completed booking.
func (uc *UserBookingsController) SubmitRating(c *gin.Context) {
	logger.InfoLogger.Info("SubmitRating controller hit...")

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

	var req responses.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request body")
		return
	}

	result, err := uc.Service.SubmitRating(c.Request.Context(), bookingID, userID, booking_service.RatingInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.OK(c, http.StatusCreated, responses.NewRatingResponse(result))
}
