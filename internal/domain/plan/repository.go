package plan

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for payment plans.
type Repository interface {
	Create(ctx context.Context, p *Plan) error
	GetByID(ctx context.Context, planID uuid.UUID) (*Plan, error)
	// ListActive returns active plans ordered by price ascending.
	ListActive(ctx context.Context) ([]*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
	SetActive(ctx context.Context, planID uuid.UUID, active bool) error
}
