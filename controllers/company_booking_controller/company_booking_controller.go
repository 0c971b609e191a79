package company_booking_controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travel/controllers/responses"
	"github.com/joy095/travel/models/booking_models"
	"github.com/joy095/travel/services/booking_service"
	"github.com/joy095/travel/utils"
)

type BookingService interface {
	ListCompanyBookings(ctx context.Context, companyID uuid.UUID, q booking_service.ListQuery) (*booking_service.BookingPage, error)
	ConfirmBooking(ctx context.Context, bookingID, companyID uuid.UUID) (*booking_models.Booking, error)
	CompleteBooking(ctx context.Context, bookingID, companyID uuid.UUID) (*booking_models.Booking, error)
}

// CompanyBookingController lets a company manage bookings of its listings.
type CompanyBookingController struct {
	Service BookingService
}

func NewCompanyBookingController(service BookingService) *CompanyBookingController {
	return &CompanyBookingController{Service: service}
}

func (cc *CompanyBookingController) ListBookings(c *gin.Context) {
	companyID, err := utils.GetCompanyIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, err)
		return
	}
	q, err := responses.ListQueryFromRequest(c)
	if err != nil {
		responses.Error(c, err)
		return
	}

	page, err := cc.Service.ListCompanyBookings(c.Request.Context(), companyID, q)
	if err != nil {
		responses.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.NewPageResponse(page))
}

func (cc *CompanyBookingController) ConfirmBooking(c *gin.Context) {
	cc.transition(c, cc.Service.ConfirmBooking)
}

func (cc *CompanyBookingController) CompleteBooking(c *gin.Context) {
	cc.transition(c, cc.Service.CompleteBooking)
}

func (cc *CompanyBookingController) transition(c *gin.Context, apply func(context.Context, uuid.UUID, uuid.UUID) (*booking_models.Booking, error)) {
	companyID, err := utils.GetCompanyIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, err)
		return
	}
	bookingID, err := responses.BookingIDParam(c)
	if err != nil {
		responses.Error(c, err)
		return
	}

	booking, err := apply(c.Request.Context(), bookingID, companyID)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.OK(c, http.StatusOK, responses.NewBookingResponse(booking))
}
