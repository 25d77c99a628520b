package main // API server entry point

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/cinepass/booking-api/internal/config"
	"github.com/cinepass/booking-api/internal/database"
	"github.com/cinepass/booking-api/internal/handler"
	"github.com/cinepass/booking-api/internal/payment"
	"github.com/cinepass/booking-api/internal/queue"
	"github.com/cinepass/booking-api/internal/repository"
	"github.com/cinepass/booking-api/internal/router"
	"github.com/cinepass/booking-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()
	if cfg.Env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	// Nil when Redis is unreachable; cache and rate limiter become no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, caching and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	shows := repository.NewShowRepo(db)
	bookings := repository.NewBookingRepo(db)
	favorites := repository.NewFavoriteRepo(db)

	payments := payment.NewStripeProvider(cfg.StripeSecretKey)
	publisher := queue.NewPublisher(log)

	bookingSvc := service.NewBookingService(bookings, payments, publisher, cfg.Currency, log)

	// Consumes booking.confirmed events and writes the booking log.
	go queue.StartBookingConsumer(log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.Register(e, router.Handlers{
		Health:    handler.NewHealthHandler(db),
		Auth:      &handler.AuthHandler{Cfg: cfg, Users: users, Tokens: tokens},
		Movies:    handler.NewMovieHandler(movies),
		Shows:     handler.NewShowHandler(shows, movies),
		Bookings:  handler.NewBookingHandler(bookingSvc),
		Favorites: handler.NewFavoriteHandler(favorites),
	}, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.WithField("addr", addr).WithField("env", cfg.Env).Info("server starting")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
