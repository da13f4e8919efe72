package handler

import (
	"time"

	"github.com/Adam044/ProFormance/internal/errs"
	"github.com/Adam044/ProFormance/internal/middleware"
	"github.com/Adam044/ProFormance/internal/server"
	"github.com/Adam044/ProFormance/internal/validation"
	"github.com/labstack/echo/v4"
)

// Handler is the base handler type that holds shared application
// dependencies. Concrete handlers embed it to reach the container.
type Handler struct {
	server *server.Server
}

// NewHandler constructs a base Handler.
func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// pathID returns the named path parameter when it is a well-formed
// UUID. A malformed id resolves like a missing record instead of
// surfacing a driver cast error.
func pathID(c echo.Context, name string) (string, error) {
	id := c.Param(name)
	if !validation.IsValidUUID(id) {
		return "", errs.NewNotFoundError("Resource not found", false)
	}
	return id, nil
}

// Validatable constrains request types to pointer-to-struct payloads
// that know how to validate themselves. The pipeline allocates a fresh
// payload per request, so handlers never share state.
type Validatable[T any] interface {
	*T
	validation.Validatable
}

// ResponseHandler defines how a successful handler result is written
// to the HTTP response.
type ResponseHandler interface {
	Handle(c echo.Context, result any) error
	GetOperation() string
}

// JSONResponseHandler writes JSON responses with a given status code.
type JSONResponseHandler struct {
	status int
}

func (h JSONResponseHandler) Handle(c echo.Context, result any) error {
	return c.JSON(h.status, result)
}

func (h JSONResponseHandler) GetOperation() string {
	return "handler"
}

// NoContentResponseHandler writes responses with no body.
type NoContentResponseHandler struct {
	status int
}

func (h NoContentResponseHandler) Handle(c echo.Context, result any) error {
	return c.NoContent(h.status)
}

func (h NoContentResponseHandler) GetOperation() string {
	return "handler_no_content"
}

// handleRequest is the shared execution pipeline for all handlers. It
// centralizes request binding and validation, structured logging,
// timing, and response writing.
func handleRequest[T any, Req Validatable[T]](
	c echo.Context,
	handler func(c echo.Context, req Req) (any, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("route", c.Path()).
		Logger()

	req := Req(new(T))
	if err := validation.BindAndValidate(c, req); err != nil {
		logger.Warn().
			Err(err).
			Dur("total_duration", time.Since(start)).
			Msg("request validation failed")
		return err
	}

	result, err := handler(c, req)
	if err != nil {
		logger.Error().
			Err(err).
			Dur("total_duration", time.Since(start)).
			Msg("handler execution failed")
		return err
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("request completed")

	return responseHandler.Handle(c, result)
}

// Handle wraps a typed handler with binding, validation, error
// handling, and JSON response writing, returning an echo.HandlerFunc
// ready to register on a route.
func Handle[T any, Req Validatable[T], Res any](
	h Handler,
	handler func(c echo.Context, req Req) (Res, error),
	status int,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest[T, Req](c, func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, JSONResponseHandler{status: status})
	}
}

// HandleNoContent wraps a typed handler for endpoints that return no
// body.
func HandleNoContent[T any, Req Validatable[T]](
	h Handler,
	handler func(c echo.Context, req Req) error,
	status int,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest[T, Req](c, func(c echo.Context, req Req) (any, error) {
			return nil, handler(c, req)
		}, NoContentResponseHandler{status: status})
	}
}
