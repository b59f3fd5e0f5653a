package service

import (
	"context"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/connection"
)

// ConnectionService manages remote connection configs.
type ConnectionService struct {
	connections Connections
}

// NewConnectionService creates a new connection service.
func NewConnectionService(connections Connections) *ConnectionService {
	return &ConnectionService{connections: connections}
}

// ListConnections returns every connection sorted by name.
func (s *ConnectionService) ListConnections(ctx context.Context) ([]connection.Info, error) {
	list, err := s.connections.List(ctx)
	if err != nil {
		return nil, normalize(err)
	}
	return list, nil
}

// CreateConnection validates cfg and registers it.
func (s *ConnectionService) CreateConnection(ctx context.Context, cfg any) (*connection.Info, error) {
	info, err := s.connections.Create(ctx, cfg)
	if err != nil {
		return nil, normalize(err)
	}
	return info, nil
}

// DeleteConnection removes id.
func (s *ConnectionService) DeleteConnection(ctx context.Context, id string) error {
	if id == "" {
		return apierr.NewValidation("id", "is required")
	}
	return normalize(s.connections.Delete(ctx, id))
}
