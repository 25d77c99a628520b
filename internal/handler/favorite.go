package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinepass/booking-api/internal/repository"
)

// FavoriteHandler manages a user's favorite movies.
type FavoriteHandler struct {
	Favorites *repository.FavoriteRepo
}

func NewFavoriteHandler(favorites *repository.FavoriteRepo) *FavoriteHandler {
	return &FavoriteHandler{Favorites: favorites}
}

// Add handles POST /v1/favorites/:movieId.
func (h *FavoriteHandler) Add(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	movieID, valid := pathID(c, "movieId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid movie id")
	}
	if err := h.Favorites.Add(c.Request().Context(), userID, movieID); err != nil {
		return failErr(c, err)
	}
	return okMessage(c, "movie added to favorites")
}

// Remove handles DELETE /v1/favorites/:movieId.
func (h *FavoriteHandler) Remove(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	movieID, valid := pathID(c, "movieId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid movie id")
	}
	if err := h.Favorites.Remove(c.Request().Context(), userID, movieID); err != nil {
		return failErr(c, err)
	}
	return okMessage(c, "movie removed from favorites")
}

// List handles GET /v1/favorites.
func (h *FavoriteHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	movies, err := h.Favorites.List(c.Request().Context(), userID)
	if err != nil {
		return failErr(c, err)
	}
	return okList(c, movies, len(movies))
}

// Check handles GET /v1/favorites/:movieId/check.
func (h *FavoriteHandler) Check(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	movieID, valid := pathID(c, "movieId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid movie id")
	}
	fav, err := h.Favorites.IsFavorite(c.Request().Context(), userID, movieID)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, map[string]bool{"is_favorite": fav})
}
