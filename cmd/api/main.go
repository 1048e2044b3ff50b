// Command api runs the EmuPost HTTP server: the webhook intake for
// carrier parcel events, system endpoints, and the background
// notification delivery workers.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emupost/backend/internal/config"
	"github.com/emupost/backend/internal/handler"
	"github.com/emupost/backend/internal/logger"
	"github.com/emupost/backend/internal/middleware"
	"github.com/emupost/backend/internal/repository"
	"github.com/emupost/backend/internal/router"
	"github.com/emupost/backend/internal/server"
	"github.com/emupost/backend/internal/service"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests and
// workers.
const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.New()
	if err != nil {
		// config.New logs fatally on bad config; this is unreachable but
		// keeps the error path explicit.
		os.Exit(1)
	}

	log := logger.New(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	s, err := server.New(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos := repository.NewRepositories(s)

	services, err := service.NewService(s, repos)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize services")
	}

	// Handlers are wired; the queue workers can start consuming.
	if err := s.Job.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start job workers")
	}

	middlewares := middleware.NewMiddlewares(s)
	handlers := handler.NewHandlers(s, services)

	e := router.NewRouter(handlers, middlewares)
	s.SetupHTTPServer(e)

	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown finished with errors")
		os.Exit(1)
	}

	log.Info().Msg("shutdown complete")
}
