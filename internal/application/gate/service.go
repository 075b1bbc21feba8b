// Package gate decides, per request, whether a device has valid access and
// drives the payment-confirmation transition.
package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wifigate/wifigate/internal/domain/plan"
	"github.com/wifigate/wifigate/internal/domain/selection"
	"github.com/wifigate/wifigate/internal/domain/session"
	"github.com/wifigate/wifigate/internal/enforcement"
	"github.com/wifigate/wifigate/internal/identity"
	"github.com/wifigate/wifigate/internal/metrics"
)

var (
	// ErrSessionNotFound: payment confirmation for a device that never went
	// through identification. Rejected, not retried.
	ErrSessionNotFound = errors.New("no session for device")
	// ErrPlanNotAvailable: unknown or deactivated plan.
	ErrPlanNotAvailable = errors.New("plan not available")
	// ErrNoSelection: no live plan selection matching the confirmation.
	ErrNoSelection = errors.New("no matching plan selection")
	// ErrPaymentRejected: the external payment signal was negative.
	ErrPaymentRejected = errors.New("payment rejected")
	// ErrEnforcementFailed: payment recorded but the allow rule could not be
	// applied. The session stays paid; the reconcile sweep retries.
	ErrEnforcementFailed = errors.New("enforcement failed")
)

// Decision is the routing outcome of an access check.
type Decision string

const (
	DecisionGranted      Decision = "GRANTED"
	DecisionNeedsPortal  Decision = "NEEDS_PORTAL"
	DecisionUnidentified Decision = "UNIDENTIFIED"
)

// Service is the access gate.
type Service struct {
	sessions       session.Repository
	plans          plan.Repository
	selections     selection.Repository
	resolver       identity.Resolver
	backend        enforcement.Backend
	selectionTTL   time.Duration
	enforceTimeout time.Duration
	logger         zerolog.Logger
}

func NewService(
	sessions session.Repository,
	plans plan.Repository,
	selections selection.Repository,
	resolver identity.Resolver,
	backend enforcement.Backend,
	selectionTTL time.Duration,
	enforceTimeout time.Duration,
	logger zerolog.Logger,
) *Service {
	return &Service{
		sessions:       sessions,
		plans:          plans,
		selections:     selections,
		resolver:       resolver,
		backend:        backend,
		selectionTTL:   selectionTTL,
		enforceTimeout: enforceTimeout,
		logger:         logger.With().Str("service", "gate").Logger(),
	}
}

// CheckAccess resolves the device behind ip and routes it. Runs on every
// request: for a device with a valid grant this is a pure read, no writes
// and no enforcement I/O. Expiry is checked lazily against the clock; the
// Active flag is only flipped by the sweeper.
func (s *Service) CheckAccess(ctx context.Context, ip string) (Decision, *session.Session, error) {
	deviceID, err := s.resolver.Resolve(ctx, ip)
	if err != nil {
		if errors.Is(err, identity.ErrUnresolved) {
			metrics.AccessChecks.WithLabelValues(string(DecisionUnidentified)).Inc()
			return DecisionUnidentified, nil, nil
		}
		return "", nil, fmt.Errorf("resolve %s: %w", ip, err)
	}

	sess, err := s.sessions.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return "", nil, err
	}
	if sess == nil {
		sess, err = s.sessions.GetOrCreate(ctx, deviceID, ip)
		if err != nil {
			return "", nil, err
		}
		s.logger.Info().Str("device_id", deviceID).Str("ip", ip).Msg("device first seen")
		metrics.AccessChecks.WithLabelValues(string(DecisionNeedsPortal)).Inc()
		return DecisionNeedsPortal, sess, nil
	}
	if sess.LastIP != ip {
		if err := s.sessions.UpdateAddress(ctx, deviceID, ip); err != nil {
			s.logger.Warn().Err(err).Str("device_id", deviceID).Msg("address refresh failed")
		} else {
			sess.LastIP = ip
		}
	}

	if sess.HasAccess(time.Now().UTC()) {
		metrics.AccessChecks.WithLabelValues(string(DecisionGranted)).Inc()
		return DecisionGranted, sess, nil
	}
	metrics.AccessChecks.WithLabelValues(string(DecisionNeedsPortal)).Inc()
	return DecisionNeedsPortal, sess, nil
}

// ListActivePlans returns purchasable plans, cheapest first.
func (s *Service) ListActivePlans(ctx context.Context) ([]*plan.Plan, error) {
	return s.plans.ListActive(ctx)
}

// SelectPlan records the device's plan choice as an explicit short-lived
// record, consumed by ConfirmPayment.
func (s *Service) SelectPlan(ctx context.Context, deviceID string, planID uuid.UUID) (*selection.Selection, error) {
	sess, err := s.sessions.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	p, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsActive {
		return nil, ErrPlanNotAvailable
	}
	now := time.Now().UTC()
	sel := &selection.Selection{
		DeviceID:  deviceID,
		PlanID:    planID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.selectionTTL),
	}
	if err := s.selections.Upsert(ctx, sel); err != nil {
		return nil, err
	}
	s.logger.Info().Str("device_id", deviceID).Str("plan_id", planID.String()).Msg("plan selected")
	return sel, nil
}

// ConfirmPayment applies a confirmed payment: the session is marked paid
// with expiry now+plan duration, then the enforcement backend is told to
// allow the device. An allow failure fails the confirmation even though the
// payment is already recorded; that drift is deliberate and the reconcile
// sweep resolves it.
func (s *Service) ConfirmPayment(ctx context.Context, deviceID string, planID uuid.UUID, attestation string) (*session.Session, error) {
	sess, err := s.sessions.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	p, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsActive {
		return nil, ErrPlanNotAvailable
	}

	now := time.Now().UTC()
	sel, err := s.selections.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if sel == nil || sel.IsExpired(now) || sel.PlanID != planID {
		return nil, ErrNoSelection
	}

	// The gateway integration is out of scope; a non-empty attestation is
	// the trusted success signal.
	if attestation == "" {
		return nil, ErrPaymentRejected
	}

	expiresAt := now.Add(p.Duration())
	sess, err = s.sessions.MarkPaid(ctx, deviceID, p.PriceCents, attestation, expiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.selections.Delete(ctx, deviceID); err != nil {
		s.logger.Warn().Err(err).Str("device_id", deviceID).Msg("selection cleanup failed")
	}

	allowCtx, cancel := context.WithTimeout(ctx, s.enforceTimeout)
	defer cancel()
	if err := s.backend.Allow(allowCtx, deviceID, sess.LastIP); err != nil {
		metrics.EnforcementCalls.WithLabelValues("allow", "failed").Inc()
		// Make the paid-but-unenforced state queryable so the reconcile
		// sweep picks it up, then surface the failure to the payer.
		if aerr := s.sessions.SetActive(ctx, deviceID, false); aerr != nil {
			s.logger.Error().Err(aerr).Str("device_id", deviceID).Msg("deactivate after failed allow")
		} else {
			sess.Active = false
		}
		s.logger.Error().Err(err).Str("device_id", deviceID).Msg("allow failed after payment")
		return sess, fmt.Errorf("%w: %v", ErrEnforcementFailed, err)
	}
	metrics.EnforcementCalls.WithLabelValues("allow", "ok").Inc()

	s.logger.Info().
		Str("device_id", deviceID).
		Str("plan_id", planID.String()).
		Int64("amount_cents", p.PriceCents).
		Time("expires_at", expiresAt).
		Msg("payment confirmed, access granted")
	return sess, nil
}
