package service

import (
	"github.com/Adam044/ProFormance/internal/repository"
	"github.com/Adam044/ProFormance/internal/server"
)

// Services is a container for all service instances.
type Services struct {
	Auth *AuthService
}

// NewServices constructs the service container.
func NewServices(s *server.Server, repos *repository.Repositories) *Services {
	return &Services{
		Auth: NewAuthService(s, repos),
	}
}
