// Package server defines the Server container that composes the app's main
// dependencies and owns their lifecycle: configuration, logger + optional
// New Relic wrapper, database pool, redis client, background job service,
// cron scheduler, and the http.Server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pharmintel/pharmintel/internal/config"
	"github.com/pharmintel/pharmintel/internal/database"
	"github.com/pharmintel/pharmintel/internal/lib/job"
	"github.com/pharmintel/pharmintel/internal/lib/scheduler"
	loggerPkg "github.com/pharmintel/pharmintel/internal/logger"
)

// Server is the application container that holds shared resources. It is
// not the HTTP server itself; the internal http.Server is configured in
// SetupHTTPServer and run by Start.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService
	DB            *database.Database
	Redis         *redis.Client

	// Job runs the background workers (asynq) and provides the client used
	// to enqueue ETL and digest tasks.
	Job *job.JobService

	// Scheduler enqueues the periodic ETL/digest tasks on cron specs.
	Scheduler *scheduler.Scheduler

	httpServer *http.Server
}

// New constructs a Server and initializes core dependencies: the Postgres
// pool (with a startup ping), the Redis client, the job service, and the
// scheduler.
//
// Redis connection failure does not block startup; the job queue will
// surface its own errors if Redis stays down. The job workers are NOT
// started here: handlers need the repositories and services built on top
// of this container, so the caller wires those and then starts Job.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	if loggerService != nil && loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("failed to connect to redis, continuing without redis")
	}

	jobService := job.NewJobService(logger, cfg)
	cronScheduler := scheduler.New(logger, cfg, jobService.Client)

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Redis:         redisClient,
		Job:           jobService,
		Scheduler:     cronScheduler,
	}, nil
}

// SetupHTTPServer configures the internal net/http server with the given
// handler (the Echo router) and the timeouts from config (seconds).
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. SetupHTTPServer must have been called first.
// Blocks until the server stops or errors.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server, the scheduler, the job
// workers, and closes the database pool and redis client.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.Scheduler != nil {
		s.Scheduler.Stop()
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	if err := s.Redis.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}
