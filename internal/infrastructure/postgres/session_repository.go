package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wifigate/wifigate/internal/domain/session"
)

const sessionColumns = `id, session_id, device_id, last_ip, paid, amount_cents, payment_ref, created_at, expires_at, active`

// SessionRepository implements session.Repository.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// GetOrCreate is a single upsert so concurrent first-seen requests for the
// same device insert at most one row; the losing statement updates last_ip
// and returns the existing record.
func (r *SessionRepository) GetOrCreate(ctx context.Context, deviceID, ip string) (*session.Session, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO sessions (session_id, device_id, last_ip, paid, active, created_at)
		VALUES ($1, $2, $3, false, false, $4)
		ON CONFLICT (device_id) DO UPDATE SET last_ip = EXCLUDED.last_ip
		RETURNING `+sessionColumns,
		uuid.New(), deviceID, ip, time.Now().UTC())
	return scanSession(row)
}

func (r *SessionRepository) GetByDeviceID(ctx context.Context, deviceID string) (*session.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM sessions WHERE device_id = $1
	`, deviceID)
	return scanSession(row)
}

func (r *SessionRepository) MarkPaid(ctx context.Context, deviceID string, amountCents int64, paymentRef string, expiresAt time.Time) (*session.Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE sessions
		SET paid = true, active = true, amount_cents = $2, payment_ref = $3, expires_at = $4
		WHERE device_id = $1
		RETURNING `+sessionColumns,
		deviceID, amountCents, paymentRef, expiresAt)
	s, err := scanSession(row)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, session.ErrNotFound
	}
	return s, nil
}

// MarkExpiredBatch deactivates in one statement, so a session enters the
// result set exactly once even under concurrent sweeps: the row predicate
// active = true no longer holds after the first transition.
func (r *SessionRepository) MarkExpiredBatch(ctx context.Context, now time.Time) ([]*session.Session, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE sessions
		SET active = false
		WHERE expires_at < $1 AND active = true
		RETURNING `+sessionColumns, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (r *SessionRepository) SetActive(ctx context.Context, deviceID string, active bool) error {
	res, err := r.pool.Exec(ctx, `UPDATE sessions SET active = $2 WHERE device_id = $1`, deviceID, active)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) ListUnenforced(ctx context.Context, now time.Time) ([]*session.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE paid = true AND active = false AND expires_at > $1
		ORDER BY created_at
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (r *SessionRepository) UpdateAddress(ctx context.Context, deviceID, ip string) error {
	_, err := r.pool.Exec(ctx, `UPDATE sessions SET last_ip = $2 WHERE device_id = $1`, deviceID, ip)
	return err
}

func (r *SessionRepository) List(ctx context.Context, filter session.Filter, limit, offset int) ([]*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if filter.Paid != nil {
		query += fmt.Sprintf(" AND paid = $%d", idx)
		args = append(args, *filter.Paid)
		idx++
	}
	if filter.Active != nil {
		query += fmt.Sprintf(" AND active = $%d", idx)
		args = append(args, *filter.Active)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (r *SessionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

func scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	if err := row.Scan(&s.ID, &s.SessionID, &s.DeviceID, &s.LastIP, &s.Paid, &s.AmountCents, &s.PaymentRef, &s.CreatedAt, &s.ExpiresAt, &s.Active); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func collectSessions(rows pgx.Rows) ([]*session.Session, error) {
	items := make([]*session.Session, 0)
	for rows.Next() {
		var s session.Session
		if err := rows.Scan(&s.ID, &s.SessionID, &s.DeviceID, &s.LastIP, &s.Paid, &s.AmountCents, &s.PaymentRef, &s.CreatedAt, &s.ExpiresAt, &s.Active); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}
