package enforcement

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Call records one backend invocation.
type Call struct {
	Op       string
	DeviceID string
	IP       string
}

// Simulation is a log-only backend for development and tests. Every call
// succeeds and is recorded.
type Simulation struct {
	logger zerolog.Logger

	mu    sync.Mutex
	calls []Call
}

func NewSimulation(logger zerolog.Logger) *Simulation {
	return &Simulation{logger: logger.With().Str("backend", "simulation").Logger()}
}

func (s *Simulation) Allow(ctx context.Context, deviceID, ip string) error {
	s.record("allow", deviceID, ip)
	s.logger.Info().Str("device_id", deviceID).Str("ip", ip).Msg("allow (simulated)")
	return nil
}

func (s *Simulation) Revoke(ctx context.Context, deviceID, ip string) error {
	s.record("revoke", deviceID, ip)
	s.logger.Info().Str("device_id", deviceID).Str("ip", ip).Msg("revoke (simulated)")
	return nil
}

// Calls returns a copy of the recorded invocations.
func (s *Simulation) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Simulation) record(op, deviceID, ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: op, DeviceID: deviceID, IP: ip})
}
