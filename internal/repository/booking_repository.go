// This file implements the persistence side of the booking flow.  It
// is the only code that mutates seat claims (show_seats) and the
// available_seats counter, and it always does so in a single
// transaction with the bookings/booking_seats writes so that a
// dropped connection cannot leave inventory and ledger disagreeing.
//
// Double-booking protection does not rely on check-then-write: the
// seat claim is a bulk INSERT guarded by the UNIQUE (show_id,
// seat_label) key, and the counter decrement is conditional on
// available_seats staying non-negative.  Under concurrent requests
// for the same seat exactly one insert wins and the loser's whole
// transaction is rolled back.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/cinepass/booking-api/internal/model"
)

// BookingRepo provides the storage operations behind the booking
// service.  It satisfies service.Store.
type BookingRepo struct{ db *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingFilter narrows admin booking listings.  Zero values mean "no
// filter".
type BookingFilter struct {
	Status        string
	PaymentStatus string
}

// ActiveShow loads an active show together with its current seat
// claims.  It returns ErrShowNotFound when the show is missing or
// deactivated.
func (r *BookingRepo) ActiveShow(ctx context.Context, showID uint64) (*model.Show, []model.SeatClaim, error) {
	const q = `SELECT ` + showCols + ` FROM shows WHERE id = ? AND is_active = 1`
	s, err := scanShow(r.db.QueryRowContext(ctx, q, showID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrShowNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	const seatQ = `SELECT id, show_id, booking_id, seat_label, row_label, status, created_at
	               FROM show_seats WHERE show_id = ?`
	rows, err := r.db.QueryContext(ctx, seatQ, showID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	claims := make([]model.SeatClaim, 0)
	for rows.Next() {
		var c model.SeatClaim
		if err := rows.Scan(&c.ID, &c.ShowID, &c.BookingID, &c.Label, &c.Row, &c.Status, &c.CreatedAt); err != nil {
			return nil, nil, err
		}
		claims = append(claims, c)
	}
	return s, claims, rows.Err()
}

// CreateBooking persists a new booking, claims its seats and
// decrements the show's availability as one transaction.  On a seat
// collision it returns *SeatConflictError naming the labels that
// lost; when the counter would go negative it returns
// ErrInsufficientSeats.  The generated ID and timestamps are
// populated on the passed booking.
func (r *BookingRepo) CreateBooking(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ins = `INSERT INTO bookings
	             (user_id, show_id, movie_id, total_amount_cents, status, payment_status, payment_method, reference)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins, b.UserID, b.ShowID, b.MovieID,
		b.TotalAmountCents, b.Status, b.PaymentStatus, b.PaymentMethod, b.Reference)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	// Record the purchased seat set on the ledger entry.
	seatQ := `INSERT INTO booking_seats (booking_id, seat_label, row_label) VALUES `
	seatArgs := make([]interface{}, 0, len(b.Seats)*3)
	for i, s := range b.Seats {
		if i > 0 {
			seatQ += ","
		}
		seatQ += "(?, ?, ?)"
		seatArgs = append(seatArgs, b.ID, s.Label, s.Row)
	}
	if _, err := tx.ExecContext(ctx, seatQ, seatArgs...); err != nil {
		return err
	}

	// Claim the seats on the show.  The unique key on (show_id,
	// seat_label) turns a concurrent double booking into a duplicate
	// key error here, which aborts this transaction entirely.
	claimQ := `INSERT INTO show_seats (show_id, booking_id, seat_label, row_label, status) VALUES `
	claimArgs := make([]interface{}, 0, len(b.Seats)*5)
	for i, s := range b.Seats {
		if i > 0 {
			claimQ += ","
		}
		claimQ += "(?, ?, ?, ?, ?)"
		claimArgs = append(claimArgs, b.ShowID, b.ID, s.Label, s.Row, model.SeatReserved)
	}
	if _, err := tx.ExecContext(ctx, claimQ, claimArgs...); err != nil {
		if isDuplicateKey(err) {
			return r.seatConflict(ctx, tx, b.ShowID, b.SeatLabels())
		}
		return err
	}

	// Decrement the availability counter, refusing to go negative.
	// The label check above normally implies this holds, but the
	// counter is maintained separately and is verified on its own.
	const dec = `UPDATE shows SET available_seats = available_seats - ?
	             WHERE id = ? AND available_seats >= ?`
	decRes, err := tx.ExecContext(ctx, dec, len(b.Seats), b.ShowID, len(b.Seats))
	if err != nil {
		return err
	}
	if n, _ := decRes.RowsAffected(); n == 0 {
		return ErrInsufficientSeats
	}

	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// seatConflict builds a *SeatConflictError by asking which of the
// requested labels are already claimed.  InnoDB rolls back only the
// failed statement, so the transaction is still usable for reads.
func (r *BookingRepo) seatConflict(ctx context.Context, tx *sql.Tx, showID uint64, labels []string) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(labels)), ",")
	q := `SELECT seat_label FROM show_seats WHERE show_id = ? AND seat_label IN (` + placeholders + `)`
	args := make([]interface{}, 0, len(labels)+1)
	args = append(args, showID)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	conflict := &SeatConflictError{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return err
		}
		conflict.Labels = append(conflict.Labels, label)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(conflict.Labels) == 0 {
		// Duplicate key fired but the claimant vanished in between;
		// report the whole request as conflicting.
		conflict.Labels = labels
	}
	return conflict
}

// BookingByID returns a booking with its seats and denormalized
// user/show/movie data, or ErrBookingNotFound.
func (r *BookingRepo) BookingByID(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	details, err := r.queryDetails(ctx, `WHERE b.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, ErrBookingNotFound
	}
	return &details[0], nil
}

// BookingForUser returns a booking scoped to its owner.  A booking
// owned by someone else is reported as ErrBookingNotFound, which
// doubles as the authorization check.
func (r *BookingRepo) BookingForUser(ctx context.Context, id, userID uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, show_id, movie_id, total_amount_cents, status, payment_status,
	                  payment_method, payment_intent_id, reference, created_at, updated_at
	           FROM bookings WHERE id = ? AND user_id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachSeats(ctx, []*model.Booking{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// SetPaymentIntent stores the gateway intent identifier on a booking.
func (r *BookingRepo) SetPaymentIntent(ctx context.Context, bookingID uint64, intentID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET payment_intent_id = ? WHERE id = ?`, intentID, bookingID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// ConfirmBooking marks a booking confirmed/paid and flips its seat
// claims from reserved to booked.  The seat count does not change:
// the seats were subtracted from available_seats at creation.  Both
// writes are idempotent, so re-confirming an already confirmed
// booking re-applies the same terminal state.
func (r *BookingRepo) ConfirmBooking(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const up = `UPDATE bookings SET status = ?, payment_status = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, up, model.BookingConfirmed, model.PaymentCompleted, b.ID); err != nil {
		return err
	}
	const seats = `UPDATE show_seats SET status = ? WHERE booking_id = ?`
	if _, err := tx.ExecContext(ctx, seats, model.SeatBooked, b.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	b.Status = model.BookingConfirmed
	b.PaymentStatus = model.PaymentCompleted
	return nil
}

// CancelBooking marks a booking cancelled, removes exactly its seat
// claims and returns those seats to the availability counter.  It
// returns the number of seats released.
func (r *BookingRepo) CancelBooking(ctx context.Context, b *model.Booking) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	// Guard against a concurrent cancel: only the transition out of a
	// non-cancelled state releases seats.
	const up = `UPDATE bookings SET status = ? WHERE id = ? AND status <> ?`
	upRes, err := tx.ExecContext(ctx, up, model.BookingCancelled, b.ID, model.BookingCancelled)
	if err != nil {
		return 0, err
	}
	if n, _ := upRes.RowsAffected(); n == 0 {
		return 0, ErrAlreadyCancelled
	}
	const del = `DELETE FROM show_seats WHERE booking_id = ?`
	delRes, err := tx.ExecContext(ctx, del, b.ID)
	if err != nil {
		return 0, err
	}
	released64, _ := delRes.RowsAffected()
	released := int(released64)
	if released > 0 {
		const inc = `UPDATE shows SET available_seats = available_seats + ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, inc, released, b.ShowID); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	b.Status = model.BookingCancelled
	return released, nil
}

// BookingsByUser returns the user's bookings, newest first, with
// seats and show/movie data attached.
func (r *BookingRepo) BookingsByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	return r.queryDetails(ctx, `WHERE b.user_id = ? ORDER BY b.created_at DESC`, userID)
}

// Bookings returns all bookings matching the filter, newest first.
// It backs the admin listing.
func (r *BookingRepo) Bookings(ctx context.Context, f BookingFilter) ([]model.BookingDetail, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	if f.Status != "" {
		where += ` AND b.status = ?`
		args = append(args, f.Status)
	}
	if f.PaymentStatus != "" {
		where += ` AND b.payment_status = ?`
		args = append(args, f.PaymentStatus)
	}
	where += ` ORDER BY b.created_at DESC`
	return r.queryDetails(ctx, where, args...)
}

// queryDetails fetches bookings joined with user, show and movie
// data, then populates each booking's seats in a single follow-up
// query.
func (r *BookingRepo) queryDetails(ctx context.Context, where string, args ...interface{}) ([]model.BookingDetail, error) {
	q := `SELECT b.id, b.user_id, b.show_id, b.movie_id, b.total_amount_cents, b.status,
	             b.payment_status, b.payment_method, b.payment_intent_id, b.reference,
	             b.created_at, b.updated_at,
	             u.name, u.email, m.title, s.starts_at, s.screen
	      FROM bookings b
	      JOIN users u  ON u.id = b.user_id
	      JOIN shows s  ON s.id = b.show_id
	      JOIN movies m ON m.id = b.movie_id ` + where
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]model.BookingDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var (
			d        model.BookingDetail
			intentID sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.ShowID, &d.MovieID, &d.TotalAmountCents,
			&d.Status, &d.PaymentStatus, &d.PaymentMethod, &intentID, &d.Reference,
			&d.CreatedAt, &d.UpdatedAt,
			&d.UserName, &d.UserEmail, &d.MovieTitle, &d.ShowStarts, &d.Screen); err != nil {
			return nil, err
		}
		if intentID.Valid {
			v := intentID.String
			d.PaymentIntentID = &v
		}
		d.Seats = []model.BookedSeat{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	// Fetch seats for all bookings in one query.
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	seatQ := `SELECT booking_id, seat_label, row_label FROM booking_seats
	          WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY booking_id, row_label, seat_label`
	srows, err := r.db.QueryContext(ctx, seatQ, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var (
			bid  uint64
			seat model.BookedSeat
		)
		if err := srows.Scan(&bid, &seat.Label, &seat.Row); err != nil {
			return nil, err
		}
		if idx, ok := index[bid]; ok {
			details[idx].Seats = append(details[idx].Seats, seat)
		}
	}
	return details, srows.Err()
}

// attachSeats populates Seats on the given bookings.
func (r *BookingRepo) attachSeats(ctx context.Context, bookings []*model.Booking) error {
	for _, b := range bookings {
		const q = `SELECT seat_label, row_label FROM booking_seats
		           WHERE booking_id = ? ORDER BY row_label, seat_label`
		rows, err := r.db.QueryContext(ctx, q, b.ID)
		if err != nil {
			return err
		}
		b.Seats = []model.BookedSeat{}
		for rows.Next() {
			var s model.BookedSeat
			if err := rows.Scan(&s.Label, &s.Row); err != nil {
				rows.Close()
				return err
			}
			b.Seats = append(b.Seats, s)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}
	return nil
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b        model.Booking
		intentID sql.NullString
	)
	err := row.Scan(&b.ID, &b.UserID, &b.ShowID, &b.MovieID, &b.TotalAmountCents,
		&b.Status, &b.PaymentStatus, &b.PaymentMethod, &intentID, &b.Reference,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if intentID.Valid {
		v := intentID.String
		b.PaymentIntentID = &v
	}
	return &b, nil
}
