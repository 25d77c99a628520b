// Package queue defines message payloads exchanged over RabbitMQ and
// the background consumer that processes them.
package queue

import "time"

// bookingConfirmedQueue is the durable queue booking confirmations
// are published to and consumed from.
const bookingConfirmedQueue = "booking.confirmed"

// BookingConfirmedEvent is published when a booking's payment is
// confirmed.  It carries enough information for downstream consumers
// (ticket emails, analytics) to act without querying the primary
// database.
type BookingConfirmedEvent struct {
	BookingID        uint64    `json:"booking_id"`
	Reference        string    `json:"booking_reference"`
	UserID           uint64    `json:"user_id"`
	ShowID           uint64    `json:"show_id"`
	MovieTitle       string    `json:"movie_title"`
	Screen           string    `json:"screen"`
	StartsAt         time.Time `json:"starts_at"`
	SeatLabels       []string  `json:"seats"`
	TotalAmountCents uint32    `json:"total_amount_cents"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
}
