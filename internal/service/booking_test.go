package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinepass/booking-api/internal/model"
	"github.com/cinepass/booking-api/internal/repository"
)

func newTestService(store *memStore, gw *fakeGateway, pub EventPublisher) *BookingService {
	log := logrus.New()
	log.SetOutput(nopWriter{})
	return NewBookingService(store, gw, pub, "usd", log)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func seats(labels ...string) []model.BookedSeat {
	out := make([]model.BookedSeat, 0, len(labels))
	for _, l := range labels {
		out = append(out, model.BookedSeat{Label: l, Row: l[:1]})
	}
	return out
}

func TestCreateBookingStartsPending(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 50, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	detail, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1", "A2"), "")
	require.NoError(t, err)

	assert.Equal(t, model.BookingPending, detail.Status)
	assert.Equal(t, model.PaymentPending, detail.PaymentStatus)
	assert.Equal(t, model.PayStripe, detail.PaymentMethod)
	assert.Equal(t, uint32(2000), detail.TotalAmountCents)
	assert.Equal(t, []string{"A1", "A2"}, detail.SeatLabels())
	assert.True(t, strings.HasPrefix(detail.Reference, "BK"))
	assert.Equal(t, "Dune", detail.MovieTitle)
	assert.Equal(t, uint32(48), store.available(showID))
}

func TestCreateBookingRejectsEmptySeatList(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	_, err := svc.CreateBooking(context.Background(), 1, showID, nil, "")
	assert.ErrorIs(t, err, ErrNoSeats)

	// Empty labels are dropped before validation.
	_, err = svc.CreateBooking(context.Background(), 1, showID, []model.BookedSeat{{Label: "", Row: "A"}}, "")
	assert.ErrorIs(t, err, ErrNoSeats)
}

func TestCreateBookingDedupesSeats(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	detail, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1", "A1", "A2"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, detail.SeatLabels())
	assert.Equal(t, uint32(2000), detail.TotalAmountCents)
	assert.Equal(t, uint32(8), store.available(showID))
}

func TestCreateBookingSeatConflictNamesSeats(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	_, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1", "A2"), "")
	require.NoError(t, err)

	_, err = svc.CreateBooking(context.Background(), 2, showID, seats("A1", "A3"), "")
	var conflict *repository.SeatConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"A1"}, conflict.Labels)

	// The failed attempt reserved nothing.
	assert.Equal(t, uint32(8), store.available(showID))
	assert.Equal(t, 2, store.claimCount(showID))
}

func TestCreateBookingInsufficientSeats(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 2, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	_, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1", "A2", "A3"), "")
	assert.ErrorIs(t, err, repository.ErrInsufficientSeats)
	assert.Equal(t, uint32(2), store.available(showID))
}

func TestCreateBookingUnknownShow(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeGateway{}, nil)

	_, err := svc.CreateBooking(context.Background(), 1, 999, seats("A1"), "")
	assert.ErrorIs(t, err, repository.ErrShowNotFound)
}

// Under concurrent requests for the same seat exactly one booking may
// win; the rest must fail with a seat conflict and leave no trace on
// the counters.
func TestConcurrentBookingsSameSeatSingleWinner(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 50, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	const workers = 32
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := svc.CreateBooking(context.Background(), user, showID, seats("A1"), "")
			results <- err
		}(uint64(i + 1))
	}
	wg.Wait()
	close(results)

	wins, conflicts := 0, 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		var conflict *repository.SeatConflictError
		require.True(t, errors.As(err, &conflict), "unexpected error: %v", err)
		conflicts++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, uint32(49), store.available(showID))
	assert.Equal(t, 1, store.claimCount(showID))
}

// The availability counter must always equal capacity minus claimed
// seats, even with many bookings racing over disjoint and overlapping
// seat sets.
func TestCounterMatchesClaimsUnderLoad(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 100, 500)
	svc := newTestService(store, &fakeGateway{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			label := fmt.Sprintf("B%d", n%20) // forced overlap
			_, _ = svc.CreateBooking(context.Background(), uint64(n+1), showID, seats(label), "")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100-store.claimCount(showID), int(store.available(showID)))
	assert.Equal(t, 20, store.claimCount(showID))
}

// The total amount is locked in at creation; a later price change
// never rewrites existing ledger entries.
func TestAmountFixedAtCreation(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	detail, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1", "A2"), "")
	require.NoError(t, err)
	require.Equal(t, uint32(2000), detail.TotalAmountCents)

	store.setPrice(showID, 9999)

	reread, err := svc.BookingByID(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(2000), reread.TotalAmountCents)

	// New bookings pick up the new price.
	fresh, err := svc.CreateBooking(context.Background(), 2, showID, seats("B1"), "")
	require.NoError(t, err)
	assert.Equal(t, uint32(9999), fresh.TotalAmountCents)
}

func TestCreatePaymentIntent(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1500)
	gw := &fakeGateway{}
	svc := newTestService(store, gw, nil)

	detail, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1", "A2"), "")
	require.NoError(t, err)

	secret, updated, err := svc.CreatePaymentIntent(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_test_123_secret", secret)
	require.NotNil(t, updated.PaymentIntentID)
	assert.Equal(t, "pi_test_123", *updated.PaymentIntentID)
	assert.Equal(t, int64(3000), gw.lastAmt)
	assert.Equal(t, detail.Reference, gw.lastMeta["booking_reference"])

	// Intents do not advance booking state.
	assert.Equal(t, model.BookingPending, updated.Status)
	assert.Equal(t, model.PaymentPending, updated.PaymentStatus)
}

// A gateway outage leaves the booking untouched: still pending, seats
// still held, no intent recorded.
func TestPaymentIntentGatewayFailureKeepsSeats(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	gw := &fakeGateway{fail: true}
	svc := newTestService(store, gw, nil)

	detail, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1"), "")
	require.NoError(t, err)

	_, _, err = svc.CreatePaymentIntent(context.Background(), detail.ID)
	require.Error(t, err)

	reread, err := svc.BookingByID(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Nil(t, reread.PaymentIntentID)
	assert.Equal(t, model.BookingPending, reread.Status)
	assert.Equal(t, uint32(9), store.available(showID))
}

func TestConfirmPayment(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	pub := &capturePublisher{}
	svc := newTestService(store, &fakeGateway{}, pub)

	detail, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1", "A2"), "")
	require.NoError(t, err)

	confirmed, err := svc.ConfirmPayment(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, confirmed.Status)
	assert.Equal(t, model.PaymentCompleted, confirmed.PaymentStatus)

	// Confirmation flips claims but never the counter.
	assert.Equal(t, uint32(8), store.available(showID))
	assert.Equal(t, 2, store.claimCount(showID))

	require.Len(t, pub.events, 1)
	evt := pub.events[0]
	assert.Equal(t, detail.ID, evt.BookingID)
	assert.Equal(t, detail.Reference, evt.Reference)
	assert.Equal(t, []string{"A1", "A2"}, evt.SeatLabels)
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	detail, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1"), "")
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), detail.ID)
	require.NoError(t, err)
	again, err := svc.ConfirmPayment(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, again.Status)
	assert.Equal(t, uint32(9), store.available(showID))
}

func TestConfirmPaymentOnCancelledBooking(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	detail, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1"), "")
	require.NoError(t, err)
	_, err = svc.CancelBooking(context.Background(), detail.ID, 1)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), detail.ID)
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)
}

// A broker outage never fails the confirmation itself.
func TestConfirmPaymentSurvivesPublishFailure(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	svc := newTestService(store, &fakeGateway{}, &capturePublisher{fail: true})

	detail, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1"), "")
	require.NoError(t, err)

	confirmed, err := svc.ConfirmPayment(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, confirmed.Status)
}

func TestCancelBookingReleasesSeats(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	detail, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1", "A2", "A3"), "")
	require.NoError(t, err)
	require.Equal(t, uint32(7), store.available(showID))

	cancelled, err := svc.CancelBooking(context.Background(), detail.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
	assert.Equal(t, uint32(10), store.available(showID))
	assert.Equal(t, 0, store.claimCount(showID))

	// Released seats are immediately bookable by someone else.
	_, err = svc.CreateBooking(context.Background(), 2, showID, seats("A1"), "")
	assert.NoError(t, err)
}

func TestCancelBookingTwiceRejected(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	detail, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1"), "")
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), detail.ID, 1)
	require.NoError(t, err)
	_, err = svc.CancelBooking(context.Background(), detail.ID, 1)
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)

	// The double cancel released nothing extra.
	assert.Equal(t, uint32(10), store.available(showID))
}

func TestCancelBookingOwnedByAnotherUser(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	detail, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1"), "")
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), detail.ID, 2)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
	assert.Equal(t, uint32(9), store.available(showID))
}

func TestUserBookingsScopedToOwner(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	_, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1"), "")
	require.NoError(t, err)
	_, err = svc.CreateBooking(context.Background(), 2, showID, seats("B1"), "")
	require.NoError(t, err)

	mine, err := svc.UserBookings(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, uint64(1), mine[0].UserID)
}

func TestAllBookingsFilter(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 10, 1000)
	svc := newTestService(store, &fakeGateway{}, nil)

	first, err := svc.CreateBooking(context.Background(), 1, showID, seats("A1"), "")
	require.NoError(t, err)
	_, err = svc.CreateBooking(context.Background(), 2, showID, seats("B1"), "")
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(context.Background(), first.ID)
	require.NoError(t, err)

	confirmed, err := svc.AllBookings(context.Background(), repository.BookingFilter{Status: model.BookingConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, first.ID, confirmed[0].ID)

	all, err := svc.AllBookings(context.Background(), repository.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// End-to-end walk through the booking lifecycle on one show.
func TestBookingLifecycle(t *testing.T) {
	store := newMemStore()
	showID := store.addShow("Dune", 50, 1000)
	svc := newTestService(store, &fakeGateway{}, &capturePublisher{})
	ctx := context.Background()

	// User 1 books A1+A2 and pays.
	b1, err := svc.CreateBooking(ctx, 1, showID, seats("A1", "A2"), "")
	require.NoError(t, err)
	require.Equal(t, uint32(48), store.available(showID))

	secret, _, err := svc.CreatePaymentIntent(ctx, b1.ID)
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	_, err = svc.ConfirmPayment(ctx, b1.ID)
	require.NoError(t, err)

	// User 2 collides on A1.
	_, err = svc.CreateBooking(ctx, 2, showID, seats("A1", "A3"), "")
	var conflict *repository.SeatConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"A1"}, conflict.Labels)

	// User 1 cancels; all seats return.
	_, err = svc.CancelBooking(ctx, b1.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(50), store.available(showID))

	// Now user 2 gets A1.
	b2, err := svc.CreateBooking(ctx, 2, showID, seats("A1", "A3"), "")
	require.NoError(t, err)
	assert.Equal(t, uint32(2000), b2.TotalAmountCents)
	assert.Equal(t, uint32(48), store.available(showID))
}
