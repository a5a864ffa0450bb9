package repository

import (
	"context"

	"wifiutils/internal/domain"
)

// Repository defines the interface for journal data access
type Repository interface {
	// Transitions
	RecordTransition(ctx context.Context, t *domain.Transition) error
	ListTransitions(ctx context.Context, limit int) ([]domain.Transition, error)
	PruneTransitions(ctx context.Context, keep int) (int64, error)

	// Reports
	SaveReport(ctx context.Context, report *domain.AdapterReport) error
	LatestReport(ctx context.Context) (*domain.AdapterReport, error)

	// Neighbours
	UpsertNeighbors(ctx context.Context, neighbors []domain.Neighbor) error
	ListNeighbors(ctx context.Context) ([]domain.Neighbor, error)

	// Close releases resources
	Close() error
}
