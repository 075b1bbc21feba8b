package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a plan id does not exist.
var ErrNotFound = errors.New("plan not found")

// Plan is an immutable catalog entry a device can purchase access under.
type Plan struct {
	PlanID        uuid.UUID `json:"planId"`
	Name          string    `json:"name"`
	PriceCents    int64     `json:"priceCents"`
	DurationHours int       `json:"durationHours"`
	Description   string    `json:"description,omitempty"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Duration returns the access window the plan grants.
func (p *Plan) Duration() time.Duration {
	return time.Duration(p.DurationHours) * time.Hour
}

func Validate(name string, priceCents int64, durationHours int) error {
	if name == "" {
		return fmt.Errorf("plan name is required")
	}
	if priceCents < 0 {
		return fmt.Errorf("plan price must not be negative")
	}
	if durationHours <= 0 {
		return fmt.Errorf("plan duration must be at least one hour")
	}
	return nil
}
