package model

import "time"

// Booking statuses stored in bookings.status.  A booking starts out
// pending (seats reserved, payment not yet captured), becomes
// confirmed when payment completes and completed after the show has
// taken place.  Cancelled is terminal: a cancelled booking can never
// transition again.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
)

// Payment states stored in bookings.payment_status, advanced
// independently of the booking status.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Payment methods accepted at booking creation.
const (
	PayStripe = "stripe"
	PayPaypal = "paypal"
	PayCash   = "cash"
)

// statusTransitions is the allowed booking status transition table.
// Anything not listed is rejected; in particular nothing leads out of
// cancelled.  Re-applying the current status is treated as a no-op by
// CanTransition so that payment confirmation stays idempotent.
var statusTransitions = map[string][]string{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
	BookingCompleted: {},
	BookingCancelled: {},
}

// CanTransition reports whether a booking status may move from one
// state to another.  A transition to the current state is always
// permitted (idempotent re-apply).
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BookedSeat is one purchased seat recorded on a booking, stored in
// the `booking_seats` table.  The set of labels on a booking is fixed
// at creation and mirrors the claims it holds in show_seats.
type BookedSeat struct {
	Label string `json:"seat_label"`
	Row   string `json:"row"`
}

// Booking is one purchase transaction against a show, as stored in
// the `bookings` table.  MovieID duplicates the show's movie
// reference for cheap reads; it is never authoritative and is always
// resolvable through the show.  TotalAmountCents is computed once at
// creation from the show price and is never recomputed, even if the
// show price changes afterwards.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – purchasing user.
//  ShowID           – show the seats are claimed on.
//  MovieID          – denormalized movie reference.
//  Seats            – purchased seat labels (non-empty).
//  TotalAmountCents – price * seat count at creation time, in cents.
//  Status           – pending, confirmed, cancelled or completed.
//  PaymentStatus    – pending, completed, failed or refunded.
//  PaymentMethod    – stripe, paypal or cash.
//  PaymentIntentID  – gateway intent id, set once payment begins.
//  Reference        – human-shareable unique booking reference.
//  CreatedAt        – creation timestamp (booking date).
//  UpdatedAt        – last update timestamp.
type Booking struct {
	ID               uint64       `json:"id"`
	UserID           uint64       `json:"user_id"`
	ShowID           uint64       `json:"show_id"`
	MovieID          uint64       `json:"movie_id"`
	Seats            []BookedSeat `json:"seats"`
	TotalAmountCents uint32       `json:"total_amount_cents"`
	Status           string       `json:"status"`
	PaymentStatus    string       `json:"payment_status"`
	PaymentMethod    string       `json:"payment_method"`
	PaymentIntentID  *string      `json:"payment_intent_id,omitempty"`
	Reference        string       `json:"reference"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// SeatLabels returns the labels of all seats on the booking, in the
// order they were recorded.
func (b *Booking) SeatLabels() []string {
	labels := make([]string, 0, len(b.Seats))
	for _, s := range b.Seats {
		labels = append(labels, s.Label)
	}
	return labels
}

// BookingDetail is a booking enriched with the denormalized show and
// movie data that list and detail endpoints return alongside the
// ledger entry itself.
type BookingDetail struct {
	Booking
	UserName   string    `json:"user_name,omitempty"`
	UserEmail  string    `json:"user_email,omitempty"`
	MovieTitle string    `json:"movie_title"`
	ShowStarts time.Time `json:"show_starts_at"`
	Screen     string    `json:"screen"`
}
