package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinepass/booking-api/internal/model"
	"github.com/cinepass/booking-api/internal/repository"
)

// MovieHandler exposes the movie catalog: public browse endpoints and
// the admin CRUD surface.
type MovieHandler struct {
	Movies *repository.MovieRepo
}

func NewMovieHandler(movies *repository.MovieRepo) *MovieHandler {
	if movies == nil {
		panic("nil repository passed to NewMovieHandler")
	}
	return &MovieHandler{Movies: movies}
}

type movieReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DurationMin uint32   `json:"duration_min"`
	Genre       []string `json:"genre"`
	Language    string   `json:"language"`
	ReleaseDate string   `json:"release_date"` // YYYY-MM-DD
	Rating      float64  `json:"rating"`
	Director    string   `json:"director"`
	Cast        []string `json:"cast"`
	PosterURL   string   `json:"poster_url"`
	TrailerURL  string   `json:"trailer_url"`
	Status      string   `json:"status"`
}

// validate checks the request and converts it into a model.Movie.
// The returned message is empty when the request is valid.
func (r *movieReq) validate() (*model.Movie, string) {
	r.Title = strings.TrimSpace(r.Title)
	switch {
	case r.Title == "" || len(r.Title) > 200:
		return nil, "title is required and must be at most 200 characters"
	case r.Description == "" || len(r.Description) > 2000:
		return nil, "description is required and must be at most 2000 characters"
	case r.DurationMin == 0:
		return nil, "duration_min must be at least 1"
	case len(r.Genre) == 0:
		return nil, "at least one genre is required"
	case r.Language == "":
		return nil, "language is required"
	case r.Director == "":
		return nil, "director is required"
	case len(r.Cast) == 0:
		return nil, "at least one cast member is required"
	case r.PosterURL == "":
		return nil, "poster_url is required"
	case r.Rating < 0 || r.Rating > 10:
		return nil, "rating must be between 0 and 10"
	}
	release, err := time.Parse("2006-01-02", r.ReleaseDate)
	if err != nil {
		return nil, "release_date must be formatted YYYY-MM-DD"
	}
	status := r.Status
	if status == "" {
		status = model.MovieUpcoming
	}
	if status != model.MovieUpcoming && status != model.MovieNowShowing && status != model.MovieEnded {
		return nil, "status must be upcoming, now-showing or ended"
	}
	return &model.Movie{
		Title:       r.Title,
		Description: r.Description,
		DurationMin: r.DurationMin,
		Genre:       r.Genre,
		Language:    r.Language,
		ReleaseDate: release,
		Rating:      r.Rating,
		Director:    r.Director,
		Cast:        r.Cast,
		PosterURL:   r.PosterURL,
		TrailerURL:  r.TrailerURL,
		Status:      status,
	}, ""
}

// List handles GET /v1/movies with optional status, genre, language
// and search query parameters.
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.Movies.List(c.Request().Context(), repository.MovieFilter{
		Status:   c.QueryParam("status"),
		Genre:    c.QueryParam("genre"),
		Language: c.QueryParam("language"),
		Search:   c.QueryParam("search"),
	})
	if err != nil {
		return failErr(c, err)
	}
	return okList(c, movies, len(movies))
}

// Upcoming handles GET /v1/movies/upcoming.
func (h *MovieHandler) Upcoming(c echo.Context) error {
	movies, err := h.Movies.ListByStatus(c.Request().Context(), model.MovieUpcoming)
	if err != nil {
		return failErr(c, err)
	}
	return okList(c, movies, len(movies))
}

// NowShowing handles GET /v1/movies/now-showing.
func (h *MovieHandler) NowShowing(c echo.Context) error {
	movies, err := h.Movies.ListByStatus(c.Request().Context(), model.MovieNowShowing)
	if err != nil {
		return failErr(c, err)
	}
	return okList(c, movies, len(movies))
}

// Get handles GET /v1/movies/:id.
func (h *MovieHandler) Get(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid movie id")
	}
	movie, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, movie)
}

// Create handles POST /v1/admin/movies.
func (h *MovieHandler) Create(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	movie, msg := req.validate()
	if msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	if err := h.Movies.Create(c.Request().Context(), movie); err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusCreated, movie)
}

// Update handles PUT /v1/admin/movies/:id.  The full movie document
// is replaced; partial updates are not supported.
func (h *MovieHandler) Update(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid movie id")
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	movie, msg := req.validate()
	if msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	movie.ID = id
	if err := h.Movies.Update(c.Request().Context(), movie); err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, movie)
}

// Delete handles DELETE /v1/admin/movies/:id (soft delete).
func (h *MovieHandler) Delete(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid movie id")
	}
	if err := h.Movies.SoftDelete(c.Request().Context(), id); err != nil {
		return failErr(c, err)
	}
	return okMessage(c, "movie deleted successfully")
}
