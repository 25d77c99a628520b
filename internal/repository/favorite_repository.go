package repository

import (
	"context"
	"database/sql"

	"github.com/cinepass/booking-api/internal/model"
)

// FavoriteRepo manages the user_favorites join table linking users to
// the movies they have marked as favorites.
type FavoriteRepo struct{ db *sql.DB }

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// Add records a movie as a favorite of the user.  Adding the same
// movie twice returns ErrAlreadyFavorite (unique key on the pair).
func (r *FavoriteRepo) Add(ctx context.Context, userID, movieID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_favorites (user_id, movie_id) VALUES (?, ?)`, userID, movieID)
	if isDuplicateKey(err) {
		return ErrAlreadyFavorite
	}
	return err
}

// Remove deletes a favorite.  Removing a movie that was never a
// favorite is a no-op, matching the forgiving behaviour of the
// public API.
func (r *FavoriteRepo) Remove(ctx context.Context, userID, movieID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_favorites WHERE user_id = ? AND movie_id = ?`, userID, movieID)
	return err
}

// List returns the user's favorite movies, skipping titles that have
// since been deactivated.
func (r *FavoriteRepo) List(ctx context.Context, userID uint64) ([]model.Movie, error) {
	const q = `SELECT m.id, m.title, m.description, m.duration_min, m.genre, m.language,
	                  m.release_date, m.rating, m.director, m.cast_list, m.poster_url,
	                  m.trailer_url, m.status, m.is_active, m.created_at, m.updated_at
	           FROM user_favorites f
	           JOIN movies m ON m.id = f.movie_id
	           WHERE f.user_id = ? AND m.is_active = 1
	           ORDER BY f.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
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

// IsFavorite reports whether the movie is among the user's favorites.
func (r *FavoriteRepo) IsFavorite(ctx context.Context, userID, movieID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM user_favorites WHERE user_id = ? AND movie_id = ? LIMIT 1`,
		userID, movieID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
