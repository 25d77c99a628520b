// Package handler contains the HTTP handlers of the booking API.  All
// endpoints answer with the same envelope: a success flag, an
// optional data payload and a human-readable message on failure.
// Business-rule failures use client-error statuses and missing
// entities use 404 so clients can tell the two apart.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cinepass/booking-api/internal/repository"
	"github.com/cinepass/booking-api/internal/service"
)

// response is the JSON envelope every endpoint returns.
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
}

// ok writes a success envelope with the given payload.
func ok(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, response{Success: true, Data: data})
}

// okList writes a success envelope with a count alongside the data,
// used by list endpoints.
func okList(c echo.Context, data interface{}, count int) error {
	return c.JSON(http.StatusOK, response{Success: true, Data: data, Count: &count})
}

// okMessage writes a success envelope carrying only a message.
func okMessage(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, response{Success: true, Message: msg})
}

// fail writes a failure envelope with an explicit status.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, response{Success: false, Message: msg})
}

// failErr translates service/repository errors into the two-tier
// status scheme: 404 for missing entities, 409 for state conflicts,
// 400 for everything the caller can fix, 500 otherwise.  Seat
// conflicts keep their label list in the message so the client can
// re-render seat selection.
func failErr(c echo.Context, err error) error {
	var seatErr *repository.SeatConflictError
	switch {
	case errors.Is(err, repository.ErrMovieNotFound),
		errors.Is(err, repository.ErrShowNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.As(err, &seatErr):
		return fail(c, http.StatusConflict, seatErr.Error())
	case errors.Is(err, repository.ErrAlreadyCancelled),
		errors.Is(err, repository.ErrInsufficientSeats),
		errors.Is(err, service.ErrInvalidTransition):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrEmailTaken),
		errors.Is(err, repository.ErrAlreadyFavorite),
		errors.Is(err, service.ErrNoSeats):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, err.Error())
	}
	return fail(c, http.StatusInternalServerError, "internal error")
}

// getUserID extracts the authenticated user id that the JWT
// middleware stored in the context.  JWT number claims arrive as
// float64; string and integer forms are accepted for robustness.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
