package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"hospital-access-backend/config"
	"hospital-access-backend/internal/admission"
	"hospital-access-backend/internal/api"
	"hospital-access-backend/internal/db"
	"hospital-access-backend/internal/logging"
	"hospital-access-backend/internal/model"
	"hospital-access-backend/internal/mw"
	"hospital-access-backend/internal/notification"
	"hospital-access-backend/internal/reservation"
	"hospital-access-backend/internal/scoring"
	"hospital-access-backend/internal/store"
	"hospital-access-backend/internal/triage"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogFormat)
	logger.Info().Str("path", configPath).Msg("configuration loaded")

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatal().Msg("VAPID keys must be configured for push notifications")
	}
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	logger.Info().Msg("database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	notifier := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, &webpushOptions, logger)
	notifier.Start(ctx)

	reservations := reservation.NewManager(appStore, cfg.Reservation.TTL)
	admissions := admission.NewWorkflow(appStore)
	scorer := scoring.NewEngine(cfg.Scoring.AffordabilityThreshold, cfg.Scoring.AssumedSpeedKmph)
	classifier := triage.NewHTTPClassifier(cfg.Triage.URL, cfg.Triage.Timeout)
	nearbyCache := mw.NewResponseCache(time.Duration(cfg.Server.CacheTTLSeconds) * time.Second)

	// NewHandler wires the store's bed-change hook to the nearby cache, so
	// the sweeper must not start before the handler exists.
	handler := api.NewHandler(appStore, reservations, admissions, scorer, classifier, notifier, nearbyCache, &webpushOptions)
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
	})

	sweeper := reservation.NewSweeper(appStore, cfg.Reservation.SweepInterval, logger, func(res model.BedReservation) {
		notifier.Dispatch(notification.Event{
			RequesterID: res.RequesterID,
			Reservation: res.ID,
			Status:      res.Status,
			Message:     "Your bed reservation has expired and the bed was released",
		})
	})
	go sweeper.Run(ctx)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server shutdown failed")
	}
	logger.Info().Msg("server gracefully stopped")
}
