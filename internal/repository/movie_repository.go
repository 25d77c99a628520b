// This file implements persistence for the movie catalog.  Movies are
// soft-deleted: admin deletes flip is_active off and every read in
// this repository filters on it, so deactivated titles disappear from
// the catalog without losing the bookings that reference them.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/cinepass/booking-api/internal/model"
)

// MovieRepo provides CRUD operations for the movies table.
type MovieRepo struct{ db *sql.DB }

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// MovieFilter narrows List results.  Zero values mean "no filter".
// Search matches title, description or director case-insensitively.
type MovieFilter struct {
	Status   string
	Genre    string
	Language string
	Search   string
}

const movieCols = `id, title, description, duration_min, genre, language, release_date,
                   rating, director, cast_list, poster_url, trailer_url, status, is_active,
                   created_at, updated_at`

// Create inserts a movie and populates the generated ID and
// timestamps on the passed struct.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies
	           (title, description, duration_min, genre, language, release_date, rating,
	            director, cast_list, poster_url, trailer_url, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		m.Title, m.Description, m.DurationMin, joinList(m.Genre), m.Language,
		m.ReleaseDate, m.Rating, m.Director, joinList(m.Cast),
		m.PosterURL, m.TrailerURL, m.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	// Query the row back to pick up DB defaults and timestamps.
	found, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = *found
	return nil
}

// GetByID returns an active movie or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = `SELECT ` + movieCols + ` FROM movies WHERE id = ? AND is_active = 1`
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	return m, err
}

// List returns active movies matching the filter, newest release
// first.
func (r *MovieRepo) List(ctx context.Context, f MovieFilter) ([]model.Movie, error) {
	q := `SELECT ` + movieCols + ` FROM movies WHERE is_active = 1`
	args := []interface{}{}
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Genre != "" {
		// genre is stored comma separated; FIND_IN_SET matches one entry exactly
		q += ` AND FIND_IN_SET(?, genre) > 0`
		args = append(args, f.Genre)
	}
	if f.Language != "" {
		q += ` AND language = ?`
		args = append(args, f.Language)
	}
	if f.Search != "" {
		q += ` AND (title LIKE ? OR description LIKE ? OR director LIKE ?)`
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}
	q += ` ORDER BY release_date DESC`
	return r.queryMovies(ctx, q, args...)
}

// ListByStatus returns active movies in the given lifecycle state.
// Upcoming movies are ordered soonest-release first, everything else
// newest first (matching the public catalog views).
func (r *MovieRepo) ListByStatus(ctx context.Context, status string) ([]model.Movie, error) {
	order := "DESC"
	if status == model.MovieUpcoming {
		order = "ASC"
	}
	q := `SELECT ` + movieCols + ` FROM movies WHERE is_active = 1 AND status = ? ORDER BY release_date ` + order
	return r.queryMovies(ctx, q, status)
}

// Update rewrites the mutable columns of an active movie.  It returns
// ErrMovieNotFound when the movie does not exist or is deactivated,
// and refreshes the passed struct from the database on success.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies SET
	           title = ?, description = ?, duration_min = ?, genre = ?, language = ?,
	           release_date = ?, rating = ?, director = ?, cast_list = ?, poster_url = ?,
	           trailer_url = ?, status = ?
	           WHERE id = ? AND is_active = 1`
	res, err := r.db.ExecContext(ctx, q,
		m.Title, m.Description, m.DurationMin, joinList(m.Genre), m.Language,
		m.ReleaseDate, m.Rating, m.Director, joinList(m.Cast),
		m.PosterURL, m.TrailerURL, m.Status, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "no row" from "no change": re-check existence.
		if _, err := r.GetByID(ctx, m.ID); err != nil {
			return err
		}
	}
	found, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = *found
	return nil
}

// SoftDelete deactivates a movie.  The row is never removed so that
// existing bookings keep resolving their denormalized movie
// reference.
func (r *MovieRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE movies SET is_active = 0 WHERE id = ? AND is_active = 1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

func (r *MovieRepo) queryMovies(ctx context.Context, q string, args ...interface{}) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movies := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, *m)
	}
	return movies, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMovie(row rowScanner) (*model.Movie, error) {
	var (
		m           model.Movie
		genre, cast string
		trailer     sql.NullString
	)
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.DurationMin, &genre, &m.Language,
		&m.ReleaseDate, &m.Rating, &m.Director, &cast, &m.PosterURL, &trailer,
		&m.Status, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Genre = splitList(genre)
	m.Cast = splitList(cast)
	if trailer.Valid {
		m.TrailerURL = trailer.String
	}
	return &m, nil
}

// joinList flattens a string slice into the comma separated form the
// movies table stores.
func joinList(items []string) string {
	trimmed := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			trimmed = append(trimmed, s)
		}
	}
	return strings.Join(trimmed, ",")
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
