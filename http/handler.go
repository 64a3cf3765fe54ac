package http

import (
	"context"

	"bookings/entities"

	"github.com/google/uuid"
)

type Handler struct {
	bookingService BookingService
}

type BookingService interface {
	HoldSeats(ctx context.Context, userID, gameID uuid.UUID, seatIDs []uuid.UUID) (entities.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID, userID uuid.UUID) (entities.Booking, error)
	CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (entities.Booking, error)
	GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (entities.Booking, error)
	ListBookings(ctx context.Context, userID uuid.UUID) ([]entities.Booking, error)
}
