package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wifigate/wifigate/internal/domain/operator"
)

// OperatorRepository implements operator.Repository.
type OperatorRepository struct {
	pool *pgxpool.Pool
}

func NewOperatorRepository(pool *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{pool: pool}
}

func (r *OperatorRepository) Create(ctx context.Context, op *operator.Operator) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO operators (operator_id, username, password_hash, role, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, op.OperatorID, op.Username, op.PasswordHash, op.Role, op.CreatedAt)
	return err
}

func (r *OperatorRepository) GetByID(ctx context.Context, operatorID uuid.UUID) (*operator.Operator, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT operator_id, username, password_hash, role, created_at FROM operators WHERE operator_id = $1
	`, operatorID)
	return scanOperator(row)
}

func (r *OperatorRepository) GetByUsername(ctx context.Context, username string) (*operator.Operator, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT operator_id, username, password_hash, role, created_at FROM operators WHERE username = $1
	`, username)
	return scanOperator(row)
}

func (r *OperatorRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM operators`).Scan(&count)
	return count, err
}

func scanOperator(row pgx.Row) (*operator.Operator, error) {
	var op operator.Operator
	if err := row.Scan(&op.OperatorID, &op.Username, &op.PasswordHash, &op.Role, &op.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &op, nil
}
