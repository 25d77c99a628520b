package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinepass/booking-api/internal/model"
)

func validMovieReq() movieReq {
	return movieReq{
		Title:       "Dune: Part Two",
		Description: "Paul Atreides unites with the Fremen.",
		DurationMin: 166,
		Genre:       []string{"sci-fi", "adventure"},
		Language:    "English",
		ReleaseDate: "2024-03-01",
		Rating:      8.6,
		Director:    "Denis Villeneuve",
		Cast:        []string{"Timothée Chalamet", "Zendaya"},
		PosterURL:   "https://example.com/dune2.jpg",
		Status:      model.MovieNowShowing,
	}
}

func TestMovieReqValidateAccepts(t *testing.T) {
	req := validMovieReq()
	m, msg := req.validate()
	require.Empty(t, msg)
	require.NotNil(t, m)
	assert.Equal(t, "Dune: Part Two", m.Title)
	assert.Equal(t, model.MovieNowShowing, m.Status)
	assert.Equal(t, 2024, m.ReleaseDate.Year())
}

func TestMovieReqValidateDefaultsStatus(t *testing.T) {
	req := validMovieReq()
	req.Status = ""
	m, msg := req.validate()
	require.Empty(t, msg)
	assert.Equal(t, model.MovieUpcoming, m.Status)
}

func TestMovieReqValidateRejects(t *testing.T) {
	mutate := []struct {
		name string
		fn   func(*movieReq)
	}{
		{"empty title", func(r *movieReq) { r.Title = "  " }},
		{"long title", func(r *movieReq) { r.Title = strings.Repeat("x", 201) }},
		{"empty description", func(r *movieReq) { r.Description = "" }},
		{"zero duration", func(r *movieReq) { r.DurationMin = 0 }},
		{"no genres", func(r *movieReq) { r.Genre = nil }},
		{"no language", func(r *movieReq) { r.Language = "" }},
		{"no director", func(r *movieReq) { r.Director = "" }},
		{"no cast", func(r *movieReq) { r.Cast = nil }},
		{"no poster", func(r *movieReq) { r.PosterURL = "" }},
		{"rating too high", func(r *movieReq) { r.Rating = 10.5 }},
		{"rating negative", func(r *movieReq) { r.Rating = -1 }},
		{"bad date", func(r *movieReq) { r.ReleaseDate = "01/03/2024" }},
		{"bad status", func(r *movieReq) { r.Status = "archived" }},
	}
	for _, tc := range mutate {
		t.Run(tc.name, func(t *testing.T) {
			req := validMovieReq()
			tc.fn(&req)
			m, msg := req.validate()
			assert.Nil(t, m)
			assert.NotEmpty(t, msg)
		})
	}
}
