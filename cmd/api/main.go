// The api command runs the HTTP API server with its background job
// workers and the cron scheduler.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pharmintel/pharmintel/internal/config"
	"github.com/pharmintel/pharmintel/internal/database"
	"github.com/pharmintel/pharmintel/internal/handler"
	"github.com/pharmintel/pharmintel/internal/logger"
	"github.com/pharmintel/pharmintel/internal/middleware"
	"github.com/pharmintel/pharmintel/internal/repository"
	"github.com/pharmintel/pharmintel/internal/router"
	"github.com/pharmintel/pharmintel/internal/server"
	"github.com/pharmintel/pharmintel/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	log, loggerService, err := logger.New(cfg)
	if err != nil {
		os.Exit(1)
	}

	ctx := context.Background()

	if err := database.Migrate(ctx, log, cfg); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	s, err := server.New(cfg, log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	middlewares := middleware.NewMiddlewares(s)
	repos := repository.NewRepositories(s)
	services := service.NewServices(s, repos)
	handlers := handler.NewHandlers(s, services)

	r := router.New(handlers, middlewares)
	s.SetupHTTPServer(r)

	if err := s.Job.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start job workers")
	}
	s.Scheduler.Start()

	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown finished with errors")
		os.Exit(1)
	}

	log.Info().Msg("shutdown complete")
}
