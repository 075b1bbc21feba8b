// Package enforcement keeps network-layer access state in step with logical
// session state. A Backend applies and revokes per-device allow rules; all
// variants are idempotent in both directions.
package enforcement

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Backend applies or revokes a network-level allow rule for a device.
// Both operations are idempotent: repeating a call with the same arguments
// leaves the same end state and does not fail because the rule is already
// present or already gone. Failures are reported as errors, never panics;
// retry policy belongs to the caller.
type Backend interface {
	Allow(ctx context.Context, deviceID, ip string) error
	Revoke(ctx context.Context, deviceID, ip string) error
}

// Kind selects a concrete backend at startup. There is no runtime string
// dispatch past construction.
type Kind string

const (
	KindSimulation Kind = "simulation"
	KindNetfilter  Kind = "netfilter"
	KindRemote     Kind = "remote"
)

// Config carries backend selection and the variant-specific settings.
type Config struct {
	Kind        Kind
	Chain       string // netfilter
	RemoteURL   string // remote
	RemoteToken string // remote
}

// New constructs the configured backend.
func New(cfg Config, logger zerolog.Logger) (Backend, error) {
	switch cfg.Kind {
	case KindSimulation:
		return NewSimulation(logger), nil
	case KindNetfilter:
		return NewNetfilter(cfg.Chain, nil, logger), nil
	case KindRemote:
		return NewRemote(cfg.RemoteURL, cfg.RemoteToken, logger)
	}
	return nil, fmt.Errorf("unknown enforcement backend %q", cfg.Kind)
}
