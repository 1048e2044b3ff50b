// Package server defines the application container that composes the
// app's main dependencies: config, logger, database pool, redis client,
// background job service, and the HTTP server. It owns startup order and
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/emupost/backend/internal/config"
	"github.com/emupost/backend/internal/database"
	"github.com/emupost/backend/internal/lib/job"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisPingTimeout bounds the startup Redis connectivity probe.
const redisPingTimeout = 5 * time.Second

// Server is the application container holding shared resources. It is
// not the HTTP server itself; that lives in httpServer and is configured
// via SetupHTTPServer.
type Server struct {
	Config *config.Config
	Logger *zerolog.Logger

	// DB is the database façade. The pool is created here at startup and
	// closed exactly once during Shutdown.
	DB *database.Database

	Redis *redis.Client

	// Job enqueues and runs background notification delivery. Its
	// handlers are wired and started by the caller once repositories
	// exist.
	Job *job.JobService

	httpServer *http.Server
}

// New constructs the container and brings up its stateful dependencies:
// the database pool (fatal on failure) and the Redis client (logged but
// non-fatal; the job queue will surface Redis outages on its own).
func New(cfg *config.Config, logger *zerolog.Logger) (*Server, error) {
	db := database.New(cfg, logger)
	if err := db.CreatePool(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("failed to connect to redis, continuing without it")
	}

	jobService := job.NewJobService(logger, cfg)

	return &Server{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Redis:  redisClient,
		Job:    jobService,
	}, nil
}

// SetupHTTPServer configures the internal net/http server around the
// given handler (the Echo router).
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It blocks until the server stops or errors;
// SetupHTTPServer must have been called first.
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

// Shutdown stops the container in dependency order: stop accepting HTTP
// traffic, stop the job workers, then close the database pool and redis
// client. The pool close is idempotent, so a failed HTTP shutdown that is
// retried cannot close it twice.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.Logger.Error().Err(err).Msg("failed to close redis client")
		}
	}

	return nil
}
