package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cinepass/booking-api/internal/model"
	"github.com/cinepass/booking-api/internal/queue"
	"github.com/cinepass/booking-api/internal/repository"
)

// memStore is an in-memory Store used to exercise the booking flow
// without MySQL.  It mirrors the production store's guarantees: every
// mutating call takes the lock for its whole duration, so each call
// is atomic, and seat claims are the arbiter of double bookings.
type memStore struct {
	mu       sync.Mutex
	nextID   uint64
	shows    map[uint64]*memShow
	bookings map[uint64]*model.Booking
}

type memShow struct {
	show       model.Show
	movieTitle string
	claims     map[string]model.SeatClaim // keyed by seat label
}

func newMemStore() *memStore {
	return &memStore{
		nextID:   1,
		shows:    map[uint64]*memShow{},
		bookings: map[uint64]*model.Booking{},
	}
}

// addShow seeds a show and returns its id.
func (m *memStore) addShow(movieTitle string, totalSeats, priceCents uint32) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.shows[id] = &memShow{
		show: model.Show{
			ID:             id,
			MovieID:        id,
			StartsAt:       time.Now().Add(24 * time.Hour),
			Screen:         "Screen 1",
			TotalSeats:     totalSeats,
			AvailableSeats: totalSeats,
			PriceCents:     priceCents,
			IsActive:       true,
		},
		movieTitle: movieTitle,
		claims:     map[string]model.SeatClaim{},
	}
	return id
}

// setPrice changes a show's per-seat price without touching bookings.
func (m *memStore) setPrice(showID uint64, priceCents uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shows[showID].show.PriceCents = priceCents
}

// available reports the show's availability counter.
func (m *memStore) available(showID uint64) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shows[showID].show.AvailableSeats
}

// claimCount reports how many seats are claimed on the show.
func (m *memStore) claimCount(showID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shows[showID].claims)
}

func (m *memStore) ActiveShow(ctx context.Context, showID uint64) (*model.Show, []model.SeatClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.shows[showID]
	if !ok || !ms.show.IsActive {
		return nil, nil, repository.ErrShowNotFound
	}
	show := ms.show
	claims := make([]model.SeatClaim, 0, len(ms.claims))
	for _, c := range ms.claims {
		claims = append(claims, c)
	}
	return &show, claims, nil
}

func (m *memStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.shows[b.ShowID]
	if !ok || !ms.show.IsActive {
		return repository.ErrShowNotFound
	}
	var conflicts []string
	for _, s := range b.Seats {
		if _, taken := ms.claims[s.Label]; taken {
			conflicts = append(conflicts, s.Label)
		}
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return &repository.SeatConflictError{Labels: conflicts}
	}
	if ms.show.AvailableSeats < uint32(len(b.Seats)) {
		return repository.ErrInsufficientSeats
	}

	b.ID = m.nextID
	m.nextID++
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	for _, s := range b.Seats {
		ms.claims[s.Label] = model.SeatClaim{
			ShowID:    b.ShowID,
			BookingID: b.ID,
			Label:     s.Label,
			Row:       s.Row,
			Status:    model.SeatReserved,
		}
	}
	ms.show.AvailableSeats -= uint32(len(b.Seats))
	stored := *b
	stored.Seats = append([]model.BookedSeat(nil), b.Seats...)
	m.bookings[b.ID] = &stored
	return nil
}

func (m *memStore) BookingByID(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detailLocked(id)
}

func (m *memStore) detailLocked(id uint64) (*model.BookingDetail, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	d := &model.BookingDetail{Booking: *b}
	d.Seats = append([]model.BookedSeat(nil), b.Seats...)
	if ms, ok := m.shows[b.ShowID]; ok {
		d.MovieTitle = ms.movieTitle
		d.ShowStarts = ms.show.StartsAt
		d.Screen = ms.show.Screen
	}
	return d, nil
}

func (m *memStore) BookingForUser(ctx context.Context, id, userID uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.UserID != userID {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	cp.Seats = append([]model.BookedSeat(nil), b.Seats...)
	return &cp, nil
}

func (m *memStore) SetPaymentIntent(ctx context.Context, bookingID uint64, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.PaymentIntentID = &intentID
	return nil
}

func (m *memStore) ConfirmBooking(ctx context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bookings[b.ID]
	if !ok {
		return repository.ErrBookingNotFound
	}
	stored.Status = model.BookingConfirmed
	stored.PaymentStatus = model.PaymentCompleted
	if ms, ok := m.shows[stored.ShowID]; ok {
		for label, c := range ms.claims {
			if c.BookingID == stored.ID {
				c.Status = model.SeatBooked
				ms.claims[label] = c
			}
		}
	}
	b.Status = model.BookingConfirmed
	b.PaymentStatus = model.PaymentCompleted
	return nil
}

func (m *memStore) CancelBooking(ctx context.Context, b *model.Booking) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bookings[b.ID]
	if !ok {
		return 0, repository.ErrBookingNotFound
	}
	if stored.Status == model.BookingCancelled {
		return 0, repository.ErrAlreadyCancelled
	}
	stored.Status = model.BookingCancelled
	released := 0
	if ms, ok := m.shows[stored.ShowID]; ok {
		for label, c := range ms.claims {
			if c.BookingID == stored.ID {
				delete(ms.claims, label)
				released++
			}
		}
		ms.show.AvailableSeats += uint32(released)
	}
	b.Status = model.BookingCancelled
	return released, nil
}

func (m *memStore) BookingsByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.BookingDetail
	for id, b := range m.bookings {
		if b.UserID != userID {
			continue
		}
		d, err := m.detailLocked(id)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) Bookings(ctx context.Context, f repository.BookingFilter) ([]model.BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.BookingDetail
	for id, b := range m.bookings {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && b.PaymentStatus != f.PaymentStatus {
			continue
		}
		d, err := m.detailLocked(id)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// fakeGateway is a PaymentProvider with scripted behavior.
type fakeGateway struct {
	mu       sync.Mutex
	fail     bool
	calls    int
	lastMeta map[string]string
	lastAmt  int64
}

func (g *fakeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastMeta = metadata
	g.lastAmt = amountCents
	if g.fail {
		return nil, errors.New("gateway unavailable")
	}
	return &PaymentIntent{ID: "pi_test_123", ClientSecret: "pi_test_123_secret"}, nil
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []queue.BookingConfirmedEvent
	fail   bool
}

func (p *capturePublisher) PublishBookingConfirmed(ctx context.Context, evt queue.BookingConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.events = append(p.events, evt)
	return nil
}
