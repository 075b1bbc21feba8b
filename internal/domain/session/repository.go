package session

import (
	"context"
	"time"
)

// Filter narrows admin listings.
type Filter struct {
	Paid   *bool
	Active *bool
}

// Repository defines persistence for device sessions. Point reads return
// (nil, nil) when no session exists; mutations that require an existing
// session return ErrNotFound.
type Repository interface {
	// GetOrCreate atomically looks up or inserts the session for a device.
	// Concurrent calls for the same device yield exactly one stored record.
	// The observed address is recorded as LastIP either way.
	GetOrCreate(ctx context.Context, deviceID, ip string) (*Session, error)

	GetByDeviceID(ctx context.Context, deviceID string) (*Session, error)

	// MarkPaid transitions the session to paid and active and stores the
	// payment details. Fails with ErrNotFound when the device was never seen.
	MarkPaid(ctx context.Context, deviceID string, amountCents int64, paymentRef string, expiresAt time.Time) (*Session, error)

	// MarkExpiredBatch deactivates every session with expires_at before now
	// that is still active, returning each such session exactly once.
	// An immediate second call returns an empty batch.
	MarkExpiredBatch(ctx context.Context, now time.Time) ([]*Session, error)

	// SetActive flips only the active flag; paid state is untouched.
	SetActive(ctx context.Context, deviceID string, active bool) error

	// ListUnenforced returns paid, unexpired sessions whose enforcement is
	// not applied (allow failed or was rolled back).
	ListUnenforced(ctx context.Context, now time.Time) ([]*Session, error)

	UpdateAddress(ctx context.Context, deviceID, ip string) error

	List(ctx context.Context, filter Filter, limit, offset int) ([]*Session, error)
	Count(ctx context.Context) (int, error)
}
