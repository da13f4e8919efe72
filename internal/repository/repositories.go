package repository

import (
	"github.com/Adam044/ProFormance/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Clients  *ClientsRepository
	Sessions *SessionsRepository
	Payments *PaymentsRepository
}

// NewRepositories constructs the repository container on top of the
// server's database gateway.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Clients:  NewClientsRepository(s.DB),
		Sessions: NewSessionsRepository(s.DB),
		Payments: NewPaymentsRepository(s.DB),
	}
}
