package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending to confirmed", BookingPending, BookingConfirmed, true},
		{"pending to cancelled", BookingPending, BookingCancelled, true},
		{"pending to completed", BookingPending, BookingCompleted, false},
		{"confirmed to completed", BookingConfirmed, BookingCompleted, true},
		{"confirmed to cancelled", BookingConfirmed, BookingCancelled, true},
		{"confirmed back to pending", BookingConfirmed, BookingPending, false},
		{"cancelled to confirmed", BookingCancelled, BookingConfirmed, false},
		{"cancelled to completed", BookingCancelled, BookingCompleted, false},
		{"completed to cancelled", BookingCompleted, BookingCancelled, false},
		{"reapply pending", BookingPending, BookingPending, true},
		{"reapply confirmed", BookingConfirmed, BookingConfirmed, true},
		{"reapply cancelled", BookingCancelled, BookingCancelled, true},
		{"unknown state", "refunded", BookingConfirmed, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestSeatLabels(t *testing.T) {
	b := Booking{Seats: []BookedSeat{
		{Label: "A1", Row: "A"},
		{Label: "A2", Row: "A"},
		{Label: "C7", Row: "C"},
	}}
	assert.Equal(t, []string{"A1", "A2", "C7"}, b.SeatLabels())

	empty := Booking{}
	assert.Empty(t, empty.SeatLabels())
}
