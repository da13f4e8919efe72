// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers.
package router

import (
	"net/http"

	"github.com/Adam044/ProFormance/internal/handler"
	"github.com/Adam044/ProFormance/internal/middleware"
	"github.com/labstack/echo/v4"
)

// New builds the Echo instance: global middleware, the error funnel,
// and every route group.
func New(mw *middleware.Middlewares, h *handler.Handlers) *echo.Echo {
	r := echo.New()
	r.HideBanner = true

	r.HTTPErrorHandler = mw.Global.GlobalErrorHandler

	r.Use(mw.Global.Recover())
	r.Use(middleware.RequestID())
	r.Use(mw.ContextEnhancer.EnhanceContext())
	r.Use(mw.Global.RequestLogger())
	r.Use(mw.Global.Secure())
	r.Use(mw.Global.CORS())

	registerSystemRoutes(r, h)
	registerAuthRoutes(r, h)
	registerClientRoutes(r, mw, h)
	registerPaymentRoutes(r, mw, h)

	return r
}

// registerAuthRoutes mounts login, refresh, and logout. These are the
// only API routes reachable without a bearer token.
func registerAuthRoutes(r *echo.Echo, h *handler.Handlers) {
	auth := r.Group("/api/auth")

	auth.POST("/login", handler.Handle(h.Auth.Handler, h.Auth.Login, http.StatusOK))
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
}

// registerClientRoutes mounts patient records and their nested
// sessions. Reads require authentication; writes additionally require
// the admin role.
func registerClientRoutes(r *echo.Echo, mw *middleware.Middlewares, h *handler.Handlers) {
	clients := r.Group("/api/clients", mw.Auth.RequireAuth, mw.Auth.RequireAdminForWrite)

	clients.GET("", h.Clients.List)
	clients.GET("/:id", h.Clients.Get)
	clients.POST("", handler.Handle(h.Clients.Handler, h.Clients.Create, http.StatusOK))
	clients.PUT("/:id", handler.Handle(h.Clients.Handler, h.Clients.Update, http.StatusOK))
	clients.POST("/:id/bodymap", handler.Handle(h.Clients.Handler, h.Clients.UpdateBodyMap, http.StatusOK))
	clients.POST("/:id/schedule", handler.Handle(h.Clients.Handler, h.Clients.Schedule, http.StatusOK))

	clients.POST("/:id/sessions", handler.Handle(h.Sessions.Handler, h.Sessions.Create, http.StatusOK))
	clients.PUT("/:id/sessions/:sessionId", handler.Handle(h.Sessions.Handler, h.Sessions.Update, http.StatusOK))
	clients.DELETE("/:id/sessions/:sessionId", h.Sessions.Delete)
	clients.POST("/:id/sessions/:sessionId/bodymap", handler.Handle(h.Sessions.Handler, h.Sessions.UpdateBodyMap, http.StatusOK))
}

// registerPaymentRoutes mounts the payments ledger and analytics under
// the same auth policy as clients.
func registerPaymentRoutes(r *echo.Echo, mw *middleware.Middlewares, h *handler.Handlers) {
	payments := r.Group("/api/payments", mw.Auth.RequireAuth, mw.Auth.RequireAdminForWrite)

	payments.GET("", h.Payments.List)
	payments.POST("", handler.Handle(h.Payments.Handler, h.Payments.Create, http.StatusOK))
	payments.GET("/summary", h.Payments.Summary)
	payments.GET("/timeseries", h.Payments.Timeseries)
	payments.GET("/breakdown/methods", h.Payments.MethodBreakdown)
	payments.GET("/top-clients", h.Payments.TopClients)
}
