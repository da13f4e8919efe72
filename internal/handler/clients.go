package handler

import (
	"net/http"
	"time"

	"github.com/Adam044/ProFormance/internal/errs"
	"github.com/Adam044/ProFormance/internal/repository"
	"github.com/Adam044/ProFormance/internal/server"
	"github.com/Adam044/ProFormance/internal/validation"
	"github.com/labstack/echo/v4"
)

// ClientsHandler exposes CRUD over patient records.
type ClientsHandler struct {
	Handler
	clients *repository.ClientsRepository
}

// NewClientsHandler constructs a ClientsHandler.
func NewClientsHandler(s *server.Server, repos *repository.Repositories) *ClientsHandler {
	return &ClientsHandler{
		Handler: NewHandler(s),
		clients: repos.Clients,
	}
}

// List returns all patient records, most recently updated first.
func (h *ClientsHandler) List(c echo.Context) error {
	clients, err := h.clients.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clients)
}

// Get returns one patient record with its session history.
func (h *ClientsHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	client, err := h.clients.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

// CreateClientRequest is the new-patient payload.
type CreateClientRequest struct {
	repository.CreateClientInput
}

func (r *CreateClientRequest) Validate() error {
	return validation.Struct(r)
}

// Create registers a new patient record.
func (h *ClientsHandler) Create(c echo.Context, req *CreateClientRequest) (*repository.Client, error) {
	return h.clients.Create(c.Request().Context(), &req.CreateClientInput)
}

// UpdateClientRequest is a free-form partial update; only allow-listed
// keys are applied.
type UpdateClientRequest map[string]any

func (r *UpdateClientRequest) Validate() error {
	return nil
}

// Update applies a partial update. A payload with no updatable fields
// succeeds without touching the record.
func (h *ClientsHandler) Update(c echo.Context, req *UpdateClientRequest) (any, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return nil, err
	}
	client, err := h.clients.Update(c.Request().Context(), id, *req)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return map[string]bool{"success": true}, nil
	}
	return client, nil
}

// BodyMapRequest mutates one region of a body map: "region" selects
// the region, "clear" removes it, and every other key is merged into
// the region's attributes.
type BodyMapRequest map[string]any

func (r *BodyMapRequest) Validate() error {
	return nil
}

// region splits the request into its region selector, clear flag, and
// remaining attributes.
func (r *BodyMapRequest) region() (string, bool, map[string]any) {
	attrs := map[string]any{}
	var region string
	var clear bool
	for k, v := range *r {
		switch k {
		case "region":
			region, _ = v.(string)
		case "clear":
			clear, _ = v.(bool)
		default:
			attrs[k] = v
		}
	}
	return region, clear, attrs
}

// UpdateBodyMap mutates the patient's body map and returns the result.
func (h *ClientsHandler) UpdateBodyMap(c echo.Context, req *BodyMapRequest) (repository.BodyMap, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return nil, err
	}
	region, clear, attrs := req.region()
	if region == "" {
		return nil, errs.NewBadRequestError("Region required", true, nil, nil)
	}
	return h.clients.UpdateBodyMap(c.Request().Context(), id, region, clear, attrs)
}

// ScheduleRequest sets or clears a patient's next appointment. An
// empty date clears the appointment; a set date must be RFC 3339 and
// in the future.
type ScheduleRequest struct {
	Date *string `json:"date"`
}

func (r *ScheduleRequest) Validate() error {
	if r.Date == nil || *r.Date == "" {
		return nil
	}
	date, err := time.Parse(time.RFC3339, *r.Date)
	if err != nil {
		return validation.CustomValidationErrors{
			{Field: "date", Message: "must be a valid RFC 3339 timestamp"},
		}
	}
	if !date.After(time.Now()) {
		return validation.CustomValidationErrors{
			{Field: "date", Message: "must be in the future"},
		}
	}
	return nil
}

// Schedule sets the next appointment date, or clears it when the
// payload carries none.
func (h *ClientsHandler) Schedule(c echo.Context, req *ScheduleRequest) (map[string]bool, error) {
	ctx := c.Request().Context()
	id, err := pathID(c, "id")
	if err != nil {
		return nil, err
	}

	if req.Date == nil || *req.Date == "" {
		if err := h.clients.Schedule(ctx, id, nil); err != nil {
			return nil, err
		}
		return map[string]bool{"success": true}, nil
	}

	date, err := time.Parse(time.RFC3339, *req.Date)
	if err != nil {
		return nil, errs.NewBadRequestError("Invalid date", true, nil, nil)
	}

	if err := h.clients.Schedule(ctx, id, &date); err != nil {
		return nil, err
	}
	return map[string]bool{"success": true}, nil
}
