package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinepass/booking-api/internal/model"
	"github.com/cinepass/booking-api/internal/repository"
)

// ShowHandler exposes show scheduling: public listings with seat
// availability and the admin CRUD surface.
type ShowHandler struct {
	Shows  *repository.ShowRepo
	Movies *repository.MovieRepo
}

func NewShowHandler(shows *repository.ShowRepo, movies *repository.MovieRepo) *ShowHandler {
	if shows == nil || movies == nil {
		panic("nil repository passed to NewShowHandler")
	}
	return &ShowHandler{Shows: shows, Movies: movies}
}

type showReq struct {
	MovieID    uint64 `json:"movie_id"`
	StartsAt   string `json:"starts_at"` // RFC3339
	Screen     string `json:"screen"`
	TotalSeats uint32 `json:"total_seats"`
	PriceCents uint32 `json:"price_cents"`
}

func (r *showReq) validate() (*model.Show, string) {
	r.Screen = strings.TrimSpace(r.Screen)
	switch {
	case r.MovieID == 0:
		return nil, "movie_id is required"
	case r.Screen == "":
		return nil, "screen is required"
	case r.TotalSeats == 0:
		return nil, "total_seats must be at least 1"
	}
	starts, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return nil, "starts_at must be an RFC3339 timestamp"
	}
	return &model.Show{
		MovieID:    r.MovieID,
		StartsAt:   starts.UTC(),
		Screen:     r.Screen,
		TotalSeats: r.TotalSeats,
		PriceCents: r.PriceCents,
	}, ""
}

// showWithSeats is the detail payload for a single show: the show
// plus its occupied seats, enough for a client to render the seat
// map.
type showWithSeats struct {
	model.Show
	OccupiedSeats []model.SeatClaim `json:"occupied_seats"`
}

// List handles GET /v1/shows with optional movie_id and date
// (YYYY-MM-DD) query parameters.
func (h *ShowHandler) List(c echo.Context) error {
	filter := repository.ShowFilter{}
	if v := c.QueryParam("movie_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid movie_id")
		}
		filter.MovieID = id
	}
	if v := c.QueryParam("date"); v != "" {
		day, err := time.Parse("2006-01-02", v)
		if err != nil {
			return fail(c, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
		}
		filter.Date = &day
	}
	shows, err := h.Shows.List(c.Request().Context(), filter)
	if err != nil {
		return failErr(c, err)
	}
	return okList(c, shows, len(shows))
}

// ByMovie handles GET /v1/movies/:movieId/shows, returning upcoming
// shows for the movie.
func (h *ShowHandler) ByMovie(c echo.Context) error {
	movieID, valid := pathID(c, "movieId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid movie id")
	}
	shows, err := h.Shows.ListUpcomingByMovie(c.Request().Context(), movieID)
	if err != nil {
		return failErr(c, err)
	}
	return okList(c, shows, len(shows))
}

// Get handles GET /v1/shows/:id and includes the occupied seat map.
func (h *ShowHandler) Get(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid show id")
	}
	ctx := c.Request().Context()
	show, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		return failErr(c, err)
	}
	claims, err := h.Shows.SeatClaims(ctx, id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, showWithSeats{Show: *show, OccupiedSeats: claims})
}

// Create handles POST /v1/admin/shows.  Scheduling against an
// unknown or deactivated movie is rejected.
func (h *ShowHandler) Create(c echo.Context) error {
	var req showReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	show, msg := req.validate()
	if msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	ctx := c.Request().Context()
	if _, err := h.Movies.GetByID(ctx, show.MovieID); err != nil {
		return failErr(c, err)
	}
	if err := h.Shows.Create(ctx, show); err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusCreated, show)
}

// Update handles PUT /v1/admin/shows/:id.  Capacity cannot change
// after creation; only schedule, screen and price are updatable.
func (h *ShowHandler) Update(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid show id")
	}
	var req showReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	show, msg := req.validate()
	if msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	ctx := c.Request().Context()
	if _, err := h.Shows.GetByID(ctx, id); err != nil {
		return failErr(c, err)
	}
	if _, err := h.Movies.GetByID(ctx, show.MovieID); err != nil {
		return failErr(c, err)
	}
	show.ID = id
	if err := h.Shows.Update(ctx, show); err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, show)
}

// Delete handles DELETE /v1/admin/shows/:id (soft delete).  Existing
// bookings keep referencing the show; new bookings are rejected.
func (h *ShowHandler) Delete(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid show id")
	}
	if err := h.Shows.SoftDelete(c.Request().Context(), id); err != nil {
		return failErr(c, err)
	}
	return okMessage(c, "show deleted successfully")
}
