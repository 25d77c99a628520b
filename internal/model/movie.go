package model

import "time"

// Movie lifecycle states stored in movies.status.  A movie moves from
// upcoming to now-showing to ended; shows may only be scheduled
// against movies that are still active.
const (
	MovieUpcoming   = "upcoming"
	MovieNowShowing = "now-showing"
	MovieEnded      = "ended"
)

// Movie is a catalog title as stored in the `movies` table.  Genre
// and cast are kept as comma separated values in the database and
// exposed as slices; the repository performs the conversion.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title, at most 200 characters.
//  Description – synopsis, at most 2000 characters.
//  DurationMin – running time in minutes.
//  Genre       – one or more genre names.
//  Language    – primary audio language.
//  ReleaseDate – theatrical release date.
//  Rating      – aggregate rating 0..10.
//  Director    – director name.
//  Cast        – one or more cast member names.
//  PosterURL   – primary poster image URL.
//  TrailerURL  – optional trailer video URL.
//  Status      – upcoming, now-showing or ended.
//  IsActive    – soft-delete flag; inactive movies are hidden.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Movie struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DurationMin uint32    `json:"duration_min"`
	Genre       []string  `json:"genre"`
	Language    string    `json:"language"`
	ReleaseDate time.Time `json:"release_date"`
	Rating      float64   `json:"rating"`
	Director    string    `json:"director"`
	Cast        []string  `json:"cast"`
	PosterURL   string    `json:"poster_url"`
	TrailerURL  string    `json:"trailer_url,omitempty"`
	Status      string    `json:"status"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
