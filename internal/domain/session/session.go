package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an operation requires an existing session
// for a device that was never seen.
var ErrNotFound = errors.New("session not found")

// Session is the per-device billing and access record. It is keyed by the
// device's hardware address and is never deleted; loss of access is logical,
// via Active=false.
type Session struct {
	ID          int64      `json:"id"`
	SessionID   uuid.UUID  `json:"sessionId"`
	DeviceID    string     `json:"deviceId"`
	LastIP      string     `json:"lastIp"`
	Paid        bool       `json:"paid"`
	AmountCents *int64     `json:"amountCents,omitempty"`
	PaymentRef  *string    `json:"paymentRef,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Active      bool       `json:"active"`
}

// HasAccess reports whether the session grants access at the given instant.
// Expiry is evaluated lazily here; the Active flag is flipped only by the
// sweeper.
func (s *Session) HasAccess(now time.Time) bool {
	return s.Paid && s.ExpiresAt != nil && s.ExpiresAt.After(now)
}

// IsExpired reports whether a grant existed and has passed.
func (s *Session) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}
