package handler

import (
	"net/http"

	"github.com/Adam044/ProFormance/internal/errs"
	"github.com/Adam044/ProFormance/internal/repository"
	"github.com/Adam044/ProFormance/internal/server"
	"github.com/Adam044/ProFormance/internal/validation"
	"github.com/labstack/echo/v4"
)

// SessionsHandler exposes a patient's treatment sessions, nested under
// the client routes.
type SessionsHandler struct {
	Handler
	sessions *repository.SessionsRepository
}

// NewSessionsHandler constructs a SessionsHandler.
func NewSessionsHandler(s *server.Server, repos *repository.Repositories) *SessionsHandler {
	return &SessionsHandler{
		Handler:  NewHandler(s),
		sessions: repos.Sessions,
	}
}

// CreateSessionRequest is the new-session payload.
type CreateSessionRequest struct {
	repository.CreateSessionInput
}

func (r *CreateSessionRequest) Validate() error {
	return validation.Struct(r)
}

// Create records a session for the patient and mirrors it into the
// payments ledger.
func (h *SessionsHandler) Create(c echo.Context, req *CreateSessionRequest) (*repository.Session, error) {
	clientID, err := pathID(c, "id")
	if err != nil {
		return nil, err
	}
	return h.sessions.Create(c.Request().Context(), clientID, &req.CreateSessionInput)
}

// UpdateSessionRequest is a free-form partial update; only allow-listed
// keys are applied.
type UpdateSessionRequest map[string]any

func (r *UpdateSessionRequest) Validate() error {
	return nil
}

// Update applies a partial update and syncs the mirrored payment. A
// payload with no updatable fields succeeds without touching the
// record.
func (h *SessionsHandler) Update(c echo.Context, req *UpdateSessionRequest) (any, error) {
	clientID, sessionID, err := h.pathIDs(c)
	if err != nil {
		return nil, err
	}
	sess, err := h.sessions.Update(c.Request().Context(), clientID, sessionID, *req)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return map[string]bool{"success": true}, nil
	}
	return sess, nil
}

// Delete removes a session and its mirrored payment rows.
func (h *SessionsHandler) Delete(c echo.Context) error {
	clientID, sessionID, err := h.pathIDs(c)
	if err != nil {
		return err
	}
	if err := h.sessions.Delete(c.Request().Context(), clientID, sessionID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// UpdateBodyMap mutates the session's body map and returns the result.
func (h *SessionsHandler) UpdateBodyMap(c echo.Context, req *BodyMapRequest) (repository.BodyMap, error) {
	clientID, sessionID, err := h.pathIDs(c)
	if err != nil {
		return nil, err
	}
	region, clear, attrs := req.region()
	if region == "" {
		return nil, errs.NewBadRequestError("Region required", true, nil, nil)
	}
	return h.sessions.UpdateBodyMap(c.Request().Context(), clientID, sessionID, region, clear, attrs)
}

// pathIDs extracts and checks the client and session ids from the
// nested route.
func (h *SessionsHandler) pathIDs(c echo.Context) (string, string, error) {
	clientID, err := pathID(c, "id")
	if err != nil {
		return "", "", err
	}
	sessionID, err := pathID(c, "sessionId")
	if err != nil {
		return "", "", err
	}
	return clientID, sessionID, nil
}
