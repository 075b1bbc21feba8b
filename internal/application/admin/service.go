// Package admin exposes the read-only record-browsing surface plus plan
// catalog management. No access-control logic lives here.
package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wifigate/wifigate/internal/domain/plan"
	"github.com/wifigate/wifigate/internal/domain/session"
)

// Service handles administrative reads and plan management.
type Service struct {
	sessions session.Repository
	plans    plan.Repository
	logger   zerolog.Logger
}

func NewService(sessions session.Repository, plans plan.Repository, logger zerolog.Logger) *Service {
	return &Service{
		sessions: sessions,
		plans:    plans,
		logger:   logger.With().Str("service", "admin").Logger(),
	}
}

func (s *Service) ListSessions(ctx context.Context, filter session.Filter, limit, offset int) ([]*session.Session, error) {
	return s.sessions.List(ctx, filter, limit, offset)
}

func (s *Service) CountSessions(ctx context.Context) (int, error) {
	return s.sessions.Count(ctx)
}

func (s *Service) GetSession(ctx context.Context, deviceID string) (*session.Session, error) {
	return s.sessions.GetByDeviceID(ctx, deviceID)
}

func (s *Service) ListPlans(ctx context.Context) ([]*plan.Plan, error) {
	return s.plans.List(ctx)
}

// CreatePlanInput defines plan creation input.
type CreatePlanInput struct {
	Name          string
	PriceCents    int64
	DurationHours int
	Description   string
}

func (s *Service) CreatePlan(ctx context.Context, input CreatePlanInput) (*plan.Plan, error) {
	if err := plan.Validate(input.Name, input.PriceCents, input.DurationHours); err != nil {
		return nil, err
	}
	p := &plan.Plan{
		PlanID:        uuid.New(),
		Name:          input.Name,
		PriceCents:    input.PriceCents,
		DurationHours: input.DurationHours,
		Description:   input.Description,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.plans.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("plan_id", p.PlanID.String()).Str("name", p.Name).Msg("plan created")
	return p, nil
}

func (s *Service) DeactivatePlan(ctx context.Context, planID uuid.UUID) error {
	p, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if p == nil {
		return plan.ErrNotFound
	}
	if err := s.plans.SetActive(ctx, planID, false); err != nil {
		return err
	}
	s.logger.Info().Str("plan_id", planID.String()).Msg("plan deactivated")
	return nil
}
