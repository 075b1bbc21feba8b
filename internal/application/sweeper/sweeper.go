// Package sweeper converges enforcement state toward logical session state:
// it revokes access for expired sessions and re-applies it for paid sessions
// whose allow rule never landed.
package sweeper

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/wifigate/wifigate/internal/domain/session"
	"github.com/wifigate/wifigate/internal/enforcement"
	"github.com/wifigate/wifigate/internal/metrics"
)

// Result summarizes one sweep.
type Result struct {
	Expired    int
	Revoked    int
	Reconciled int
}

// Sweeper runs the periodic scan-and-revoke cycle. Overlapping runs are
// skipped, never queued: enforcement calls for the same device must not race.
type Sweeper struct {
	sessions       session.Repository
	backend        enforcement.Backend
	interval       time.Duration
	enforceTimeout time.Duration
	logger         zerolog.Logger

	running atomic.Bool
}

func New(sessions session.Repository, backend enforcement.Backend, interval, enforceTimeout time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		sessions:       sessions,
		backend:        backend,
		interval:       interval,
		enforceTimeout: enforceTimeout,
		logger:         logger.With().Str("service", "sweeper").Logger(),
	}
}

// Run sweeps on the configured interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("sweep failed")
			}
		}
	}
}

// RunOnce executes a single sweep. Per-session enforcement failures are
// logged and the batch continues; only store-level failures abort the run.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn().Msg("previous sweep still running, skipping")
		return Result{}, nil
	}
	defer s.running.Store(false)

	var res Result
	now := time.Now().UTC()

	expired, err := s.sessions.MarkExpiredBatch(ctx, now)
	if err != nil {
		return res, err
	}
	res.Expired = len(expired)
	for _, sess := range expired {
		metrics.SessionsExpired.Inc()
		// Revoke is best-effort: the store already says inactive, and a
		// revoke that fails now is retried next cycle since revoking an
		// absent rule is idempotent.
		if err := s.revoke(ctx, sess); err != nil {
			metrics.EnforcementCalls.WithLabelValues("revoke", "failed").Inc()
			s.logger.Error().Err(err).Str("device_id", sess.DeviceID).Msg("revoke failed")
			continue
		}
		metrics.EnforcementCalls.WithLabelValues("revoke", "ok").Inc()
		res.Revoked++
		s.logger.Info().Str("device_id", sess.DeviceID).Msg("expired session revoked")
	}

	reconciled, err := s.reconcile(ctx, now)
	if err != nil {
		return res, err
	}
	res.Reconciled = reconciled

	if res.Expired > 0 || res.Reconciled > 0 {
		s.logger.Info().
			Int("expired", res.Expired).
			Int("revoked", res.Revoked).
			Int("reconciled", res.Reconciled).
			Msg("sweep complete")
	}
	return res, nil
}

// reconcile retries the allow rule for paid, unexpired sessions left
// unenforced by a failed confirmation.
func (s *Sweeper) reconcile(ctx context.Context, now time.Time) (int, error) {
	pending, err := s.sessions.ListUnenforced(ctx, now)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, sess := range pending {
		allowCtx, cancel := context.WithTimeout(ctx, s.enforceTimeout)
		err := s.backend.Allow(allowCtx, sess.DeviceID, sess.LastIP)
		cancel()
		if err != nil {
			metrics.EnforcementCalls.WithLabelValues("allow", "failed").Inc()
			s.logger.Warn().Err(err).Str("device_id", sess.DeviceID).Msg("reconcile allow failed")
			continue
		}
		metrics.EnforcementCalls.WithLabelValues("allow", "ok").Inc()
		if err := s.sessions.SetActive(ctx, sess.DeviceID, true); err != nil {
			s.logger.Error().Err(err).Str("device_id", sess.DeviceID).Msg("activate after reconcile")
			continue
		}
		metrics.SessionsReconciled.Inc()
		count++
		s.logger.Info().Str("device_id", sess.DeviceID).Msg("paid session re-enforced")
	}
	return count, nil
}

func (s *Sweeper) revoke(ctx context.Context, sess *session.Session) error {
	revokeCtx, cancel := context.WithTimeout(ctx, s.enforceTimeout)
	defer cancel()
	return s.backend.Revoke(revokeCtx, sess.DeviceID, sess.LastIP)
}
