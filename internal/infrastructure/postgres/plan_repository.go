package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wifigate/wifigate/internal/domain/plan"
)

const planColumns = `plan_id, name, price_cents, duration_hours, description, is_active, created_at`

// PlanRepository implements plan.Repository.
type PlanRepository struct {
	pool *pgxpool.Pool
}

func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

func (r *PlanRepository) Create(ctx context.Context, p *plan.Plan) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payment_plans (plan_id, name, price_cents, duration_hours, description, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, p.PlanID, p.Name, p.PriceCents, p.DurationHours, p.Description, p.IsActive, p.CreatedAt)
	return err
}

func (r *PlanRepository) GetByID(ctx context.Context, planID uuid.UUID) (*plan.Plan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM payment_plans WHERE plan_id = $1`, planID)
	return scanPlan(row)
}

func (r *PlanRepository) ListActive(ctx context.Context) ([]*plan.Plan, error) {
	return r.list(ctx, `SELECT `+planColumns+` FROM payment_plans WHERE is_active = true ORDER BY price_cents`)
}

func (r *PlanRepository) List(ctx context.Context) ([]*plan.Plan, error) {
	return r.list(ctx, `SELECT `+planColumns+` FROM payment_plans ORDER BY price_cents`)
}

func (r *PlanRepository) SetActive(ctx context.Context, planID uuid.UUID, active bool) error {
	res, err := r.pool.Exec(ctx, `UPDATE payment_plans SET is_active = $2 WHERE plan_id = $1`, planID, active)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return plan.ErrNotFound
	}
	return nil
}

func (r *PlanRepository) list(ctx context.Context, query string) ([]*plan.Plan, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*plan.Plan, 0)
	for rows.Next() {
		var p plan.Plan
		if err := rows.Scan(&p.PlanID, &p.Name, &p.PriceCents, &p.DurationHours, &p.Description, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	return items, rows.Err()
}

func scanPlan(row pgx.Row) (*plan.Plan, error) {
	var p plan.Plan
	if err := row.Scan(&p.PlanID, &p.Name, &p.PriceCents, &p.DurationHours, &p.Description, &p.IsActive, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
