package handler

import (
	"net/http"
	"time"

	"github.com/Adam044/ProFormance/internal/server"
	"github.com/Adam044/ProFormance/internal/service"
	"github.com/Adam044/ProFormance/internal/validation"
	"github.com/labstack/echo/v4"
)

// refreshCookieName is the cookie carrying the refresh token. Its path
// is pinned to the refresh endpoint so the browser never sends the
// token anywhere else.
const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/auth/refresh"
)

// AuthHandler exposes login, token refresh, and logout.
type AuthHandler struct {
	Handler
	auth *service.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(s *server.Server, services *service.Services) *AuthHandler {
	return &AuthHandler{
		Handler: NewHandler(s),
		auth:    services.Auth,
	}
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	return validation.Struct(r)
}

// LoginResponse is returned on successful authentication. The refresh
// token travels separately in the cookie.
type LoginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    service.User `json:"user"`
}

// Login authenticates the caller and sets the refresh cookie.
func (h *AuthHandler) Login(c echo.Context, req *LoginRequest) (*LoginResponse, error) {
	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiry)

	return &LoginResponse{Success: true, Token: result.Token, User: result.User}, nil
}

// Refresh rotates the refresh token from the cookie and returns a
// fresh access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	result, err := h.auth.Refresh(c.Request().Context(), h.refreshCookie(c))
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiry)

	return c.JSON(http.StatusOK, map[string]string{"token": result.Token})
}

// Logout revokes the refresh token and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.auth.Logout(c.Request().Context(), h.refreshCookie(c)); err != nil {
		return err
	}

	h.clearRefreshCookie(c)

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) refreshCookie(c echo.Context) string {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, value string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		MaxAge:   h.server.Config.Auth.RefreshTokenTTL,
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
