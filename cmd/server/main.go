package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"parking-service/internal/config"
	"parking-service/internal/db"
	"parking-service/internal/docstore"
	httphandler "parking-service/internal/http"
	"parking-service/internal/repository"
	"parking-service/internal/service"
)

func main() {
	// Local development override file; ignored when absent.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("PARKING_CONFIG_PATH"))
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	log := newLogger(cfg.Log)

	gdb, err := db.Open(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	store := docstore.NewPostgresStore(gdb)
	repo := repository.NewParkingRepository(store, log)

	pairing := service.NewPairingService(repo, log)
	occupancy := service.NewOccupancyService(repo, pairing, log)
	slots := service.NewSlotService(repo, occupancy, cfg.Parking.DefaultTotalSlots, log)
	sessions := service.NewSessionService(repo, occupancy, slots, log)

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httphandler.CORSMiddleware(cfg.CORS))

	handler := httphandler.NewHandler(sessions, pairing, occupancy, slots, cfg, log)
	handler.Register(engine, httphandler.AuthMiddleware(cfg.Auth, log))

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("parking service listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = zerolog.New(os.Stdout)
	if cfg.Pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return out.Level(level).With().Timestamp().Str("service", "parking").Logger()
}
