package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wifigate/wifigate/internal/domain/selection"
)

// SelectionRepository implements selection.Repository.
type SelectionRepository struct {
	pool *pgxpool.Pool
}

func NewSelectionRepository(pool *pgxpool.Pool) *SelectionRepository {
	return &SelectionRepository{pool: pool}
}

func (r *SelectionRepository) Upsert(ctx context.Context, sel *selection.Selection) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO plan_selections (device_id, plan_id, created_at, expires_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (device_id) DO UPDATE
		SET plan_id = EXCLUDED.plan_id, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
	`, sel.DeviceID, sel.PlanID, sel.CreatedAt, sel.ExpiresAt)
	return err
}

func (r *SelectionRepository) GetByDeviceID(ctx context.Context, deviceID string) (*selection.Selection, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT device_id, plan_id, created_at, expires_at FROM plan_selections WHERE device_id = $1
	`, deviceID)
	var sel selection.Selection
	if err := row.Scan(&sel.DeviceID, &sel.PlanID, &sel.CreatedAt, &sel.ExpiresAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &sel, nil
}

func (r *SelectionRepository) Delete(ctx context.Context, deviceID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM plan_selections WHERE device_id = $1`, deviceID)
	return err
}
