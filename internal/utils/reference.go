package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// referenceAlphabet is the character set used for the random suffix of
// a booking reference.  Uppercase base-36 keeps references easy to
// read out over the phone.
const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// referenceSuffixLen is the number of random characters appended after
// the timestamp component.
const referenceSuffixLen = 9

// NewBookingReference generates a human-shareable booking reference of
// the form "BK<unix-millis><9 random chars>".  The timestamp component
// makes collisions astronomically unlikely; actual uniqueness is
// enforced by the unique index on bookings.reference, and collisions
// are not retried.
func NewBookingReference() (string, error) {
	suffix := make([]byte, referenceSuffixLen)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = referenceAlphabet[n.Int64()]
	}
	return fmt.Sprintf("BK%d%s", time.Now().UnixMilli(), suffix), nil
}
