package ports

import (
	"context"

	"github.com/google/uuid"

	"migration-portal-service/internal/core/domain"
)

// RunListFilter narrows and pages run listings
type RunListFilter struct {
	State      string
	SourceTech string
	Limit      int
	Offset     int
}

// RunRepository persists migration runs
type RunRepository interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	Update(ctx context.Context, run *domain.Run) error
	List(ctx context.Context, filter RunListFilter) ([]*domain.Run, int, error)

	// Ping reports whether the backing store is reachable
	Ping(ctx context.Context) error
}
