package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/UtpalSharma619/Ashtavakra/internal/config"
	"github.com/UtpalSharma619/Ashtavakra/internal/database"
	"github.com/UtpalSharma619/Ashtavakra/internal/handler"
	"github.com/UtpalSharma619/Ashtavakra/internal/middleware"
	"github.com/UtpalSharma619/Ashtavakra/internal/redis"
	"github.com/UtpalSharma619/Ashtavakra/internal/relay"
	"github.com/UtpalSharma619/Ashtavakra/internal/repository"
	"github.com/UtpalSharma619/Ashtavakra/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	experienceRepo := repository.NewExperienceRepository(db.DB)
	sessionStore := repository.NewSessionStore(redisClient)

	roomService := service.NewRoomService(
		sessionStore, userRepo, experienceRepo,
		cfg.SessionTTL(), config.MaxRoomCodeAttempts,
	)
	rateLimiter := service.NewRateLimiter(redisClient.Client)

	registry := relay.NewRegistry()
	relayRouter := relay.NewRouter(registry)

	roomHandler := handler.NewRoomHandler(roomService)
	wsHandler := handler.NewWSHandler(relayRouter, cfg.AllowedOrigin)

	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	createRateLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, config.RoomCreateRateLimit, config.RoomRateLimitWindow, "room-create",
	)
	joinRateLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, config.RoomJoinRateLimit, config.RoomRateLimitWindow, "room-join",
	)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"connections": registry.TotalConnections(),
			"timestamp":   time.Now().UnixMilli(),
		})
	})

	r.Route("/api/room", func(r chi.Router) {
		// Request-scoped timeout stays off the websocket route below.
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		r.Use(bodyLimitMiddleware.Handler)
		r.With(createRateLimit.Handler).Post("/create", roomHandler.CreateRoom)
		r.With(joinRateLimit.Handler).Post("/join", roomHandler.JoinRoom)
	})

	r.Get("/ws", wsHandler.ServeHTTP)

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: 0, // long-lived websocket reads manage their own deadlines
		IdleTimeout: config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	relayRouter.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
