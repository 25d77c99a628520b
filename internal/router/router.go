package router // route registration for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/cinepass/booking-api/internal/config"
	"github.com/cinepass/booking-api/internal/handler"
	"github.com/cinepass/booking-api/internal/middleware"
	"github.com/cinepass/booking-api/internal/model"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Movies    *handler.MovieHandler
	Shows     *handler.ShowHandler
	Bookings  *handler.BookingHandler
	Favorites *handler.FavoriteHandler
}

// Register mounts all routes on the Echo instance.  Public browse
// endpoints sit behind the Redis response cache; every route shares
// the token-bucket rate limiter.  Rdb may be nil, in which case both
// middlewares pass requests straight through.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	e.GET("/health", h.Health.Check)

	// ---- Auth ----
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// ---- Public browse (cached) ----
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	pub := e.Group("/v1", cache)
	pub.GET("/movies", h.Movies.List)
	pub.GET("/movies/upcoming", h.Movies.Upcoming)
	pub.GET("/movies/now-showing", h.Movies.NowShowing)
	pub.GET("/movies/:id", h.Movies.Get)
	pub.GET("/movies/:movieId/shows", h.Shows.ByMovie)
	pub.GET("/shows", h.Shows.List)
	pub.GET("/shows/:id", h.Shows.Get)

	// ---- Authenticated customer routes ----
	user := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	user.GET("/auth/me", h.Auth.Me)
	user.POST("/bookings", h.Bookings.Create)
	user.GET("/bookings/my-bookings", h.Bookings.MyBookings)
	user.GET("/bookings/:id", h.Bookings.Get)
	user.PUT("/bookings/:id/cancel", h.Bookings.Cancel)
	user.GET("/bookings/:id/ticket", h.Bookings.Ticket)
	user.POST("/bookings/:bookingId/payment-intent", h.Bookings.CreatePaymentIntent)
	user.POST("/bookings/:bookingId/confirm", h.Bookings.ConfirmPayment)
	user.GET("/favorites", h.Favorites.List)
	user.POST("/favorites/:movieId", h.Favorites.Add)
	user.DELETE("/favorites/:movieId", h.Favorites.Remove)
	user.GET("/favorites/:movieId/check", h.Favorites.Check)

	// ---- Admin ----
	admin := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.POST("/movies", h.Movies.Create)
	admin.PUT("/movies/:id", h.Movies.Update)
	admin.DELETE("/movies/:id", h.Movies.Delete)
	admin.POST("/shows", h.Shows.Create)
	admin.PUT("/shows/:id", h.Shows.Update)
	admin.DELETE("/shows/:id", h.Shows.Delete)
	admin.GET("/bookings", h.Bookings.All)
}
