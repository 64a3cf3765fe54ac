package http

import (
	"errors"
	"net/http"

	"bookings/entities"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type holdSeatsRequest struct {
	GameID  uuid.UUID   `json:"game_id"`
	SeatIDs []uuid.UUID `json:"seat_ids"`
}

func (h *Handler) PostHoldSeats(c echo.Context) error {
	userID, err := userIDFromHeader(c)
	if err != nil {
		return err
	}

	var req holdSeatsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.GameID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "game_id is required")
	}

	booking, err := h.bookingService.HoldSeats(c.Request().Context(), userID, req.GameID, req.SeatIDs)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, booking)
}

func (h *Handler) PostConfirmBooking(c echo.Context) error {
	userID, err := userIDFromHeader(c)
	if err != nil {
		return err
	}
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	booking, err := h.bookingService.ConfirmBooking(c.Request().Context(), bookingID, userID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, booking)
}

func (h *Handler) PostCancelBooking(c echo.Context) error {
	userID, err := userIDFromHeader(c)
	if err != nil {
		return err
	}
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	booking, err := h.bookingService.CancelBooking(c.Request().Context(), bookingID, userID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, booking)
}

func (h *Handler) GetBooking(c echo.Context) error {
	userID, err := userIDFromHeader(c)
	if err != nil {
		return err
	}
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	booking, err := h.bookingService.GetBooking(c.Request().Context(), bookingID, userID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, booking)
}

func (h *Handler) GetBookings(c echo.Context) error {
	userID, err := userIDFromHeader(c)
	if err != nil {
		return err
	}

	bookings, err := h.bookingService.ListBookings(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, bookings)
}

func userIDFromHeader(c echo.Context) (uuid.UUID, error) {
	raw := c.Request().Header.Get("X-User-Id")
	if raw == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "X-User-Id header is required")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "X-User-Id must be a UUID")
	}
	return userID, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, entities.ErrNoSeatsRequested),
		errors.Is(err, entities.ErrTooManySeats),
		errors.Is(err, entities.ErrDuplicateSeats):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, entities.ErrBookingNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrSeatNotAvailable),
		errors.Is(err, entities.ErrSeatConflict),
		errors.Is(err, entities.ErrBookingConflict),
		errors.Is(err, entities.ErrSeatLimitExceeded),
		errors.Is(err, entities.ErrInvalidState):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, entities.ErrBookingExpired):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	case errors.Is(err, entities.ErrLockUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return err
	}
}
