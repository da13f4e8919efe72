package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adam044/ProFormance/internal/config"
	"github.com/Adam044/ProFormance/internal/database"
	"github.com/Adam044/ProFormance/internal/handler"
	"github.com/Adam044/ProFormance/internal/logger"
	"github.com/Adam044/ProFormance/internal/middleware"
	"github.com/Adam044/ProFormance/internal/repository"
	"github.com/Adam044/ProFormance/internal/router"
	"github.com/Adam044/ProFormance/internal/server"
	"github.com/Adam044/ProFormance/internal/service"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	appLogger := logger.New(cfg.Primary.Env)

	srv := server.New(cfg, appLogger)

	repos := repository.NewRepositories(srv)
	services := service.NewServices(srv, repos)
	middlewares := middleware.NewMiddlewares(srv)
	handlers := handler.NewHandlers(srv, services, repos)

	srv.SetupHTTPServer(router.New(middlewares, handlers))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The API starts serving before the database is up. Requests that
	// need the database trigger a lazy reconnect through the gateway.
	go func() {
		if err := srv.DB.Connect(ctx); err != nil {
			appLogger.Warn().Err(err).Msg("database unavailable at boot, continuing")
			return
		}
		if err := database.Init(ctx, srv.DB); err != nil {
			appLogger.Warn().Err(err).Msg("schema bootstrap failed")
		}
	}()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
