package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Adam044/ProFormance/internal/middleware"
	"github.com/Adam044/ProFormance/internal/server"
	"github.com/labstack/echo/v4"
)

// HealthHandler exposes a system endpoint that external systems can
// use to verify the service is alive and the database is reachable.
type HealthHandler struct {
	Handler
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth reports whether the database connection is established
// and answering. The endpoint itself always returns 200: the service
// is designed to run (degraded) without its database, and "connected"
// tells monitors which state it is in.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := map[string]any{
		"status":      "healthy",
		"connected":   false,
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      map[string]any{},
	}
	checks := response["checks"].(map[string]any)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dbStart := time.Now()
	if err := h.server.DB.Ping(ctx); err != nil {
		checks["database"] = map[string]any{
			"status":        "unhealthy",
			"response_time": time.Since(dbStart).String(),
		}
		response["status"] = "degraded"

		logger.Warn().
			Err(err).
			Dur("response_time", time.Since(dbStart)).
			Msg("database health check failed")
	} else {
		checks["database"] = map[string]any{
			"status":        "healthy",
			"response_time": time.Since(dbStart).String(),
		}
		response["connected"] = true
	}

	return c.JSON(http.StatusOK, response)
}
