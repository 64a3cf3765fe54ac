package http

import (
	"net/http"

	libHttp "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/labstack/echo/v4"
)

func NewHttpRouter(bookingService BookingService) *echo.Echo {
	e := libHttp.NewEcho()

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	handler := Handler{
		bookingService: bookingService,
	}

	e.POST("/bookings/hold", handler.PostHoldSeats)
	e.POST("/bookings/:booking_id/confirm", handler.PostConfirmBooking)
	e.POST("/bookings/:booking_id/cancel", handler.PostCancelBooking)
	e.GET("/bookings/:booking_id", handler.GetBooking)
	e.GET("/bookings", handler.GetBookings)

	return e
}
