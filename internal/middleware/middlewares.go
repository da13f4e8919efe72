package middleware

import (
	"github.com/Adam044/ProFormance/internal/server"
)

// Middlewares groups all middleware components used by the HTTP
// server, so routing code has one place to pull them from.
type Middlewares struct {
	// Global holds common middleware used across the whole API:
	// CORS, request logging, recovery, secure headers, and the global
	// error handler.
	Global *GlobalMiddlewares

	// Auth enforces bearer authentication and the admin write policy.
	Auth *AuthMiddleware

	// ContextEnhancer enriches each request with a request-scoped
	// logger (request_id, method, path, ip, user metadata).
	ContextEnhancer *ContextEnhancer
}

// NewMiddlewares constructs all middleware components using the
// application container.
func NewMiddlewares(s *server.Server) *Middlewares {
	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Auth:            NewAuthMiddleware(s),
		ContextEnhancer: NewContextEnhancer(s),
	}
}
