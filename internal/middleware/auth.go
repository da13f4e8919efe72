package middleware

import (
	"net/http"
	"strings"

	"github.com/Adam044/ProFormance/internal/errs"
	"github.com/Adam044/ProFormance/internal/server"
	"github.com/labstack/echo/v4"
)

// ClaimsKey stores the full verified token claims in Echo context.
const ClaimsKey = "claims"

// AuthMiddleware holds the app container so middleware can reach the
// token codec and logger.
type AuthMiddleware struct {
	server *server.Server
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{server: s}
}

// RequireAuth enforces bearer authentication. It extracts the token
// from the Authorization header, verifies it locally (no database
// access), and stores the claims in Echo context. Missing, malformed,
// tampered, and expired tokens are all rejected with the same 401.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)

		tok := ""
		if strings.HasPrefix(header, "Bearer ") {
			tok = strings.TrimPrefix(header, "Bearer ")
		}
		if tok == "" {
			return errs.NewUnauthorizedError("Unauthorized")
		}

		claims, err := auth.server.TokenCodec.Verify(tok)
		if err != nil {
			return errs.NewUnauthorizedError("Unauthorized")
		}

		c.Set(UserIDKey, claims.ID)
		c.Set(UserRoleKey, claims.Role)
		c.Set(ClaimsKey, claims)

		return next(c)
	}
}

// RequireAdminForWrite lets any authenticated caller read, but only
// admins mutate: GET requests pass through, everything else requires
// the admin role. It must run after RequireAuth.
func (auth *AuthMiddleware) RequireAdminForWrite(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method == http.MethodGet {
			return next(c)
		}
		if GetUserRole(c) != "admin" {
			return errs.NewForbiddenError("Forbidden")
		}
		return next(c)
	}
}
