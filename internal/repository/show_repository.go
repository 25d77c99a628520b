// This file implements persistence for scheduled shows and their seat
// availability.  A show row carries the fixed capacity and the
// available-seat counter; the individual occupied seats live in
// show_seats (see booking_repository.go, which owns all mutation of
// those claims).
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinepass/booking-api/internal/model"
)

// ShowRepo provides CRUD operations for the shows table and read
// access to the seat claims of a show.
type ShowRepo struct{ db *sql.DB }

func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions
// spanning multiple repositories.
func (r *ShowRepo) DB() *sql.DB { return r.db }

// ShowFilter narrows List results.  Zero values mean "no filter";
// Date selects shows on that calendar day (UTC).
type ShowFilter struct {
	MovieID uint64
	Date    *time.Time
}

const showCols = `id, movie_id, starts_at, screen, total_seats, available_seats,
                  price_cents, is_active, created_at, updated_at`

// Create inserts a show with available_seats initialized to the full
// capacity and populates the generated ID and timestamps.
func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
	const q = `INSERT INTO shows (movie_id, starts_at, screen, total_seats, available_seats, price_cents)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.StartsAt, s.Screen, s.TotalSeats, s.TotalSeats, s.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	found, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *found
	return nil
}

// GetByID returns an active show or ErrShowNotFound.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	const q = `SELECT ` + showCols + ` FROM shows WHERE id = ? AND is_active = 1`
	s, err := scanShow(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowNotFound
	}
	return s, err
}

// List returns active shows matching the filter ordered by start
// time ascending.
func (r *ShowRepo) List(ctx context.Context, f ShowFilter) ([]model.Show, error) {
	q := `SELECT ` + showCols + ` FROM shows WHERE is_active = 1`
	args := []interface{}{}
	if f.MovieID != 0 {
		q += ` AND movie_id = ?`
		args = append(args, f.MovieID)
	}
	if f.Date != nil {
		day := f.Date.UTC().Truncate(24 * time.Hour)
		q += ` AND starts_at >= ? AND starts_at < ?`
		args = append(args, day, day.Add(24*time.Hour))
	}
	q += ` ORDER BY starts_at ASC`
	return r.queryShows(ctx, q, args...)
}

// ListUpcomingByMovie returns active shows for a movie that have not
// started yet, soonest first.
func (r *ShowRepo) ListUpcomingByMovie(ctx context.Context, movieID uint64) ([]model.Show, error) {
	const q = `SELECT ` + showCols + ` FROM shows
	           WHERE is_active = 1 AND movie_id = ? AND starts_at >= ?
	           ORDER BY starts_at ASC`
	return r.queryShows(ctx, q, movieID, time.Now().UTC())
}

// Update rewrites the schedule fields of an active show.  Capacity is
// fixed at creation and is deliberately not updatable: changing it
// would break the available_seats invariant against existing claims.
func (r *ShowRepo) Update(ctx context.Context, s *model.Show) error {
	const q = `UPDATE shows SET movie_id = ?, starts_at = ?, screen = ?, price_cents = ?
	           WHERE id = ? AND is_active = 1`
	if _, err := r.db.ExecContext(ctx, q, s.MovieID, s.StartsAt, s.Screen, s.PriceCents, s.ID); err != nil {
		return err
	}
	found, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *found
	return nil
}

// SoftDelete deactivates a show so it no longer accepts bookings.
// Rows are never removed; existing bookings keep their reference.
func (r *ShowRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE shows SET is_active = 0 WHERE id = ? AND is_active = 1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrShowNotFound
	}
	return nil
}

// SeatClaims returns every occupied seat of a show, ordered by row
// and label for deterministic output.
func (r *ShowRepo) SeatClaims(ctx context.Context, showID uint64) ([]model.SeatClaim, error) {
	const q = `SELECT id, show_id, booking_id, seat_label, row_label, status, created_at
	           FROM show_seats WHERE show_id = ? ORDER BY row_label, seat_label`
	rows, err := r.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	claims := make([]model.SeatClaim, 0)
	for rows.Next() {
		var c model.SeatClaim
		if err := rows.Scan(&c.ID, &c.ShowID, &c.BookingID, &c.Label, &c.Row, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func (r *ShowRepo) queryShows(ctx context.Context, q string, args ...interface{}) ([]model.Show, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	shows := make([]model.Show, 0)
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		shows = append(shows, *s)
	}
	return shows, rows.Err()
}

func scanShow(row rowScanner) (*model.Show, error) {
	var s model.Show
	err := row.Scan(&s.ID, &s.MovieID, &s.StartsAt, &s.Screen, &s.TotalSeats,
		&s.AvailableSeats, &s.PriceCents, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
