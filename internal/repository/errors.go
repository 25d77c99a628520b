// Package repository contains the MySQL persistence layer.  This file
// defines error values shared across repositories.  Sentinel errors
// let handlers distinguish failure scenarios without inspecting
// driver-level errors: not-found conditions map to HTTP 404,
// business-rule conflicts to 409 and ownership violations to 403.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMovieNotFound indicates the referenced movie does not exist or
// has been deactivated.
var ErrMovieNotFound = errors.New("movie not found")

// ErrShowNotFound indicates the referenced show does not exist or has
// been deactivated.
var ErrShowNotFound = errors.New("show not found")

// ErrBookingNotFound indicates the referenced booking does not exist,
// or does not belong to the requesting user when the lookup is
// user-scoped.
var ErrBookingNotFound = errors.New("booking not found")

// ErrUserNotFound indicates the referenced user does not exist or is
// deactivated.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken indicates a registration attempt with an email that
// already has an account.
var ErrEmailTaken = errors.New("email already registered")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrAlreadyCancelled is returned when a cancellation targets a
// booking that is already cancelled.  Cancelled is terminal, so the
// second attempt has no side effects.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrInsufficientSeats is returned when a show does not have enough
// available seats left for the requested booking.
var ErrInsufficientSeats = errors.New("not enough available seats")

// ErrAlreadyFavorite is returned when a movie is added to a user's
// favorites twice.
var ErrAlreadyFavorite = errors.New("movie already in favorites")

// SeatConflictError reports which requested seat labels are already
// claimed on a show.  Carrying the labels lets the client re-render
// seat selection with the offending seats marked.
type SeatConflictError struct {
	Labels []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats %s are already booked", strings.Join(e.Labels, ", "))
}
