package router

import (
	"github.com/Adam044/ProFormance/internal/handler"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers endpoints that are not part of
// business logic.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	// Connectivity probe used by monitors and the frontend boot check.
	r.GET("/api/health", h.Health.CheckHealth)
}
