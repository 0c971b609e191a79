package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joy095/travel/controllers/booking_controller"
	"github.com/joy095/travel/controllers/company_booking_controller"
	"github.com/joy095/travel/controllers/user_bookings_controller"
	middleware "github.com/joy095/travel/middlewares"
	"github.com/joy095/travel/middlewares/auth"
	"github.com/joy095/travel/middlewares/idempotency"
	"github.com/joy095/travel/services/booking_service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Dependencies struct {
	Service   *booking_service.BookingService
	JWTSecret []byte
	// Redis enables Idempotency-Key handling; nil disables it.
	Redis *redis.Client
}

func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok from booking service"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterBookingRoutes(router, deps)
	RegisterUserBookingRoutes(router, deps)
	RegisterCompanyBookingRoutes(router, deps)
}

func RegisterBookingRoutes(router *gin.Engine, deps Dependencies) {
	controller := booking_controller.NewBookingController(deps.Service)

	protected := router.Group("/bookings")
	protected.Use(auth.AuthMiddleware(deps.JWTSecret))
	{
		protected.POST("/quote",
			middleware.NewRateLimiter("60-1m", "quote-booking"),
			controller.Quote)

		protected.POST("",
			middleware.CombinedRateLimiter("create-booking", "10-1m", "50-1h"),
			idempotency.Middleware(deps.Redis),
			controller.CreateBooking)

		protected.GET("/:booking_id",
			middleware.NewRateLimiter("30-1m", "get-booking"),
			controller.GetBooking)

		protected.PATCH("/:booking_id/cancel",
			middleware.CombinedRateLimiter("cancel-booking", "5-1m", "20-10m"),
			controller.CancelBooking)
	}
}

func RegisterUserBookingRoutes(router *gin.Engine, deps Dependencies) {
	controller := user_bookings_controller.NewUserBookingsController(deps.Service)

	protected := router.Group("/user/bookings")
	protected.Use(auth.AuthMiddleware(deps.JWTSecret))
	{
		protected.GET("",
			middleware.NewRateLimiter("30-1m", "my-bookings"),
			controller.ListBookings)

		protected.POST("/:booking_id/rating",
			middleware.CombinedRateLimiter("submit-rating", "5-1m", "20-1h"),
			controller.SubmitRating)
	}
}

func RegisterCompanyBookingRoutes(router *gin.Engine, deps Dependencies) {
	controller := company_booking_controller.NewCompanyBookingController(deps.Service)

	company := router.Group("/company/bookings")
	company.Use(auth.AuthMiddleware(deps.JWTSecret), auth.RequireCompany())
	{
		company.GET("",
			middleware.NewRateLimiter("30-1m", "company-bookings"),
			controller.ListBookings)

		company.PATCH("/:booking_id/confirm",
			middleware.NewRateLimiter("30-1m", "confirm-booking"),
			controller.ConfirmBooking)

		company.PATCH("/:booking_id/complete",
			middleware.NewRateLimiter("30-1m", "complete-booking"),
			controller.CompleteBooking)
	}
}
