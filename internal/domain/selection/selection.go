package selection

import (
	"time"

	"github.com/google/uuid"
)

// Selection is a short-lived record of a device's plan choice, carried
// explicitly between plan selection and payment confirmation instead of
// being stashed in ambient request state. One per device; re-selecting
// replaces it.
type Selection struct {
	DeviceID  string    `json:"deviceId"`
	PlanID    uuid.UUID `json:"planId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsExpired reports whether the selection is past its TTL.
func (s *Selection) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
