package model

import "time"

// Seat occupancy states stored in show_seats.status.  A seat is
// "reserved" from the moment a booking claims it and becomes
// "booked" once payment for that booking is confirmed.  Either way
// the seat is unavailable; the distinction only records whether
// payment has been captured.
const (
	SeatReserved = "reserved"
	SeatBooked   = "booked"
)

// Show is one scheduled screening of a movie on a screen, as stored
// in the `shows` table.  AvailableSeats is maintained as a counter
// alongside the seat claims and must always equal
// TotalSeats - len(claims) for the show.
//
// Fields:
//  ID             – primary key identifier.
//  MovieID        – movie being screened.
//  StartsAt       – scheduled date and time of the screening.
//  Screen         – screen/room label (e.g. "Screen 2").
//  TotalSeats     – capacity, fixed at creation.
//  AvailableSeats – seats not yet claimed by a live booking.
//  PriceCents     – price per seat in cents at the time of booking.
//  IsActive       – soft-delete flag; inactive shows reject bookings.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Show struct {
	ID             uint64    `json:"id"`
	MovieID        uint64    `json:"movie_id"`
	StartsAt       time.Time `json:"starts_at"`
	Screen         string    `json:"screen"`
	TotalSeats     uint32    `json:"total_seats"`
	AvailableSeats uint32    `json:"available_seats"`
	PriceCents     uint32    `json:"price_cents"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SeatClaim is one occupied seat on a show, as stored in the
// `show_seats` table.  The (ShowID, Label) pair is unique at the
// database level, which is what makes a seat claim the arbiter of
// double bookings under concurrent requests.
//
// Fields:
//  ID        – primary key identifier.
//  ShowID    – show on which the seat is claimed.
//  BookingID – booking that owns the claim.
//  Label     – seat label within the row (e.g. "A1").
//  Row       – row label (e.g. "A").
//  Status    – reserved or booked.
//  CreatedAt – creation timestamp.
type SeatClaim struct {
	ID        uint64    `json:"-"`
	ShowID    uint64    `json:"-"`
	BookingID uint64    `json:"-"`
	Label     string    `json:"seat_label"`
	Row       string    `json:"row"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"-"`
}
