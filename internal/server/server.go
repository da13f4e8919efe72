// Package server defines the core Server struct that composes the
// app's main dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger
//   - database gateway
//   - token codec and refresh token store
//   - http.Server
//
// It provides constructors and start/shutdown logic to run the
// application cleanly.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Adam044/ProFormance/internal/config"
	"github.com/Adam044/ProFormance/internal/gateway"
	"github.com/Adam044/ProFormance/internal/token"
	"github.com/rs/zerolog"
)

// Server is the application container that holds shared resources. It
// is not the HTTP server itself; the internal *http.Server is
// configured in SetupHTTPServer and started in Start.
type Server struct {
	// Config holds all environment/config values for the app.
	Config *config.Config

	// Logger is the application's main structured logger.
	Logger *zerolog.Logger

	// DB mediates all database access and owns connection recovery.
	DB *gateway.Gateway

	// TokenCodec signs and verifies access tokens.
	TokenCodec *token.Codec

	// RefreshTokens manages long-lived refresh credentials.
	RefreshTokens *token.RefreshStore

	httpServer *http.Server
}

// New constructs a Server. The database gateway is created but not
// connected; the caller decides whether a failed initial connect is
// fatal.
func New(cfg *config.Config, logger *zerolog.Logger) *Server {
	db := gateway.New(cfg, logger)
	return &Server{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		TokenCodec:    token.NewCodec(cfg.Auth.SecretKey),
		RefreshTokens: token.NewRefreshStore(db, time.Duration(cfg.Auth.RefreshTokenTTL)*time.Second),
	}
}

// SetupHTTPServer configures the internal net/http server. The router
// is passed in as handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It requires SetupHTTPServer to be called
// first and blocks until the server stops or errors.
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

// Shutdown gracefully stops the HTTP server, then closes the database
// gateway.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.DB.Close()
	return nil
}
