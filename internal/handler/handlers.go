package handler

import (
	"github.com/Adam044/ProFormance/internal/repository"
	"github.com/Adam044/ProFormance/internal/server"
	"github.com/Adam044/ProFormance/internal/service"
)

// Handlers is a container that groups all HTTP handlers, so router
// setup passes one object around instead of many.
type Handlers struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	Clients  *ClientsHandler
	Sessions *SessionsHandler
	Payments *PaymentsHandler
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services, repos *repository.Repositories) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(s),
		Auth:     NewAuthHandler(s, services),
		Clients:  NewClientsHandler(s, repos),
		Sessions: NewSessionsHandler(s, repos),
		Payments: NewPaymentsHandler(s, repos),
	}
}
