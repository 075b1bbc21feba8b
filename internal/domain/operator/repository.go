package operator

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for operators.
type Repository interface {
	Create(ctx context.Context, op *Operator) error
	GetByID(ctx context.Context, operatorID uuid.UUID) (*Operator, error)
	GetByUsername(ctx context.Context, username string) (*Operator, error)
	Count(ctx context.Context) (int, error)
}
