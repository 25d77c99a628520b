// Package service contains the booking service, the only component
// allowed to drive the booking flow: it checks availability, claims
// seats, writes the ledger entry and later reconciles state on
// payment confirmation or cancellation.  Persistence and the payment
// gateway are consumed through interfaces so the logic can be
// exercised without MySQL or Stripe.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cinepass/booking-api/internal/model"
	"github.com/cinepass/booking-api/internal/queue"
	"github.com/cinepass/booking-api/internal/repository"
	"github.com/cinepass/booking-api/internal/utils"
)

// ErrNoSeats is returned when a booking request carries no seats.
var ErrNoSeats = errors.New("at least one seat is required")

// ErrInvalidTransition is returned when an operation would move a
// booking into a state the transition table forbids.
var ErrInvalidTransition = errors.New("invalid booking state transition")

// Store is the persistence contract the booking service depends on.
// The production implementation is repository.BookingRepo; tests use
// an in-memory store.  Every mutating method is atomic as a unit:
// either all of its writes become visible or none do.
type Store interface {
	// ActiveShow loads an active show with its current seat claims.
	ActiveShow(ctx context.Context, showID uint64) (*model.Show, []model.SeatClaim, error)
	// CreateBooking atomically persists the booking, claims its seats
	// and decrements availability.  It fails with *SeatConflictError
	// or ErrInsufficientSeats without partial effects.
	CreateBooking(ctx context.Context, b *model.Booking) error
	// BookingByID returns a booking enriched with user/show/movie data.
	BookingByID(ctx context.Context, id uint64) (*model.BookingDetail, error)
	// BookingForUser returns a booking only when owned by userID.
	BookingForUser(ctx context.Context, id, userID uint64) (*model.Booking, error)
	// SetPaymentIntent stores the gateway intent id on the booking.
	SetPaymentIntent(ctx context.Context, bookingID uint64, intentID string) error
	// ConfirmBooking marks the booking paid and its seats booked.
	ConfirmBooking(ctx context.Context, b *model.Booking) error
	// CancelBooking marks the booking cancelled and releases exactly
	// the seats it held, returning how many were released.
	CancelBooking(ctx context.Context, b *model.Booking) (int, error)
	// BookingsByUser lists a user's bookings, newest first.
	BookingsByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
	// Bookings lists all bookings matching the filter, newest first.
	Bookings(ctx context.Context, f repository.BookingFilter) ([]model.BookingDetail, error)
}

// PaymentIntent is the gateway's answer to an openIntent call.
type PaymentIntent struct {
	ID           string // gateway-side intent identifier
	ClientSecret string // client-side confirmation token
}

// PaymentProvider abstracts the payment gateway.  Metadata must carry
// the booking id and reference so the gateway side can reconcile.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error)
}

// EventPublisher receives domain events after state changes commit.
// Publish failures are logged and ignored; events are a side channel,
// never part of the booking contract.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, evt queue.BookingConfirmedEvent) error
}

// BookingService orchestrates the booking flow.
type BookingService struct {
	store    Store
	payments PaymentProvider
	events   EventPublisher // optional; nil disables event publishing
	currency string
	log      *logrus.Logger
}

// NewBookingService wires a booking service.  events may be nil.
func NewBookingService(store Store, payments PaymentProvider, events EventPublisher, currency string, log *logrus.Logger) *BookingService {
	if store == nil || payments == nil {
		panic("nil dependency passed to NewBookingService")
	}
	if currency == "" {
		currency = "usd"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BookingService{store: store, payments: payments, events: events, currency: currency, log: log}
}

// CreateBooking reserves seats on a show for a user and writes the
// ledger entry.  The booking starts out pending with payment pending
// and its seats reserved; payment confirmation is a separate step.
//
// The seat-availability pre-check here is advisory and exists to give
// callers a precise conflict message; the authoritative guard is the
// store's atomic claim, which rejects concurrent double bookings even
// when both requests pass this check.
func (s *BookingService) CreateBooking(ctx context.Context, userID, showID uint64, seats []model.BookedSeat, paymentMethod string) (*model.BookingDetail, error) {
	seats = dedupeSeats(seats)
	if len(seats) == 0 {
		return nil, ErrNoSeats
	}
	if paymentMethod == "" {
		paymentMethod = model.PayStripe
	}

	show, claims, err := s.store.ActiveShow(ctx, showID)
	if err != nil {
		return nil, err
	}

	claimed := make(map[string]bool, len(claims))
	for _, c := range claims {
		claimed[c.Label] = true
	}
	var conflicts []string
	for _, seat := range seats {
		if claimed[seat.Label] {
			conflicts = append(conflicts, seat.Label)
		}
	}
	if len(conflicts) > 0 {
		return nil, &repository.SeatConflictError{Labels: conflicts}
	}
	if show.AvailableSeats < uint32(len(seats)) {
		return nil, repository.ErrInsufficientSeats
	}

	ref, err := utils.NewBookingReference()
	if err != nil {
		return nil, err
	}
	booking := &model.Booking{
		UserID:           userID,
		ShowID:           showID,
		MovieID:          show.MovieID,
		Seats:            seats,
		TotalAmountCents: show.PriceCents * uint32(len(seats)),
		Status:           model.BookingPending,
		PaymentStatus:    model.PaymentPending,
		PaymentMethod:    paymentMethod,
		Reference:        ref,
	}
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"show_id":    showID,
		"user_id":    userID,
		"seats":      len(seats),
	}).Info("booking created")
	return s.store.BookingByID(ctx, booking.ID)
}

// CreatePaymentIntent opens a payment intent at the gateway for the
// booking's total and stores the intent id.  When the gateway call
// fails the booking is left in its prior state, still holding its
// seats.
func (s *BookingService) CreatePaymentIntent(ctx context.Context, bookingID uint64) (string, *model.BookingDetail, error) {
	detail, err := s.store.BookingByID(ctx, bookingID)
	if err != nil {
		return "", nil, err
	}
	intent, err := s.payments.CreateIntent(ctx, int64(detail.TotalAmountCents), s.currency, map[string]string{
		"booking_id":        fmt.Sprintf("%d", detail.ID),
		"booking_reference": detail.Reference,
	})
	if err != nil {
		return "", nil, fmt.Errorf("create payment intent: %w", err)
	}
	if err := s.store.SetPaymentIntent(ctx, detail.ID, intent.ID); err != nil {
		return "", nil, err
	}
	detail.PaymentIntentID = &intent.ID
	return intent.ClientSecret, detail, nil
}

// ConfirmPayment marks the booking paid: status confirmed, payment
// completed, seats flipped from reserved to booked with no change to
// the seat counters.  Confirming an already confirmed booking
// re-applies the same terminal state; confirming a cancelled booking
// is rejected.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID uint64) (*model.BookingDetail, error) {
	detail, err := s.store.BookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if detail.Status == model.BookingCancelled {
		return nil, repository.ErrAlreadyCancelled
	}
	if !model.CanTransition(detail.Status, model.BookingConfirmed) {
		return nil, ErrInvalidTransition
	}
	if err := s.store.ConfirmBooking(ctx, &detail.Booking); err != nil {
		return nil, err
	}
	s.publishConfirmed(ctx, detail)
	return detail, nil
}

// CancelBooking cancels a booking owned by userID, releasing exactly
// the seats it held back to the show.  Cancelled is terminal, so a
// repeat cancellation is rejected with no further side effects.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID uint64) (*model.Booking, error) {
	booking, err := s.store.BookingForUser(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if booking.Status == model.BookingCancelled {
		return nil, repository.ErrAlreadyCancelled
	}
	released, err := s.store.CancelBooking(ctx, booking)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"booking_id":     booking.ID,
		"seats_released": released,
	}).Info("booking cancelled")
	return booking, nil
}

// UserBookings returns all bookings of a user, newest first.
func (s *BookingService) UserBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	return s.store.BookingsByUser(ctx, userID)
}

// AllBookings returns every booking matching the filter, newest
// first.  Intended for the admin back-office.
func (s *BookingService) AllBookings(ctx context.Context, f repository.BookingFilter) ([]model.BookingDetail, error) {
	return s.store.Bookings(ctx, f)
}

// BookingByID returns one booking with its denormalized data.
func (s *BookingService) BookingByID(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	return s.store.BookingByID(ctx, id)
}

// publishConfirmed emits a booking.confirmed event.  Errors are
// logged and swallowed: the booking state has already committed and
// the event stream is best-effort.
func (s *BookingService) publishConfirmed(ctx context.Context, d *model.BookingDetail) {
	if s.events == nil {
		return
	}
	evt := queue.BookingConfirmedEvent{
		BookingID:        d.ID,
		Reference:        d.Reference,
		UserID:           d.UserID,
		ShowID:           d.ShowID,
		MovieTitle:       d.MovieTitle,
		Screen:           d.Screen,
		StartsAt:         d.ShowStarts,
		SeatLabels:       d.SeatLabels(),
		TotalAmountCents: d.TotalAmountCents,
		ConfirmedAt:      time.Now().UTC(),
	}
	if err := s.events.PublishBookingConfirmed(ctx, evt); err != nil {
		s.log.WithError(err).WithField("booking_id", d.ID).Warn("publish booking.confirmed failed")
	}
}

// dedupeSeats drops empty labels and duplicate labels, keeping the
// first occurrence of each.
func dedupeSeats(seats []model.BookedSeat) []model.BookedSeat {
	seen := make(map[string]bool, len(seats))
	out := make([]model.BookedSeat, 0, len(seats))
	for _, s := range seats {
		if s.Label == "" || seen[s.Label] {
			continue
		}
		seen[s.Label] = true
		out = append(out, s)
	}
	return out
}
