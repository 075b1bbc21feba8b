package selection

import "context"

// Repository defines persistence for pending plan selections.
type Repository interface {
	// Upsert records the device's choice, replacing any previous one.
	Upsert(ctx context.Context, sel *Selection) error
	// GetByDeviceID returns (nil, nil) when the device has no selection.
	// Expiry is the caller's concern.
	GetByDeviceID(ctx context.Context, deviceID string) (*Selection, error)
	Delete(ctx context.Context, deviceID string) error
}
