package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/wifigate/wifigate/internal/domain/session"
)

// MockRepository is a mock implementation of session.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetOrCreate(ctx context.Context, deviceID, ip string) (*session.Session, error) {
	args := m.Called(ctx, deviceID, ip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockRepository) GetByDeviceID(ctx context.Context, deviceID string) (*session.Session, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockRepository) MarkPaid(ctx context.Context, deviceID string, amountCents int64, paymentRef string, expiresAt time.Time) (*session.Session, error) {
	args := m.Called(ctx, deviceID, amountCents, paymentRef, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockRepository) MarkExpiredBatch(ctx context.Context, now time.Time) ([]*session.Session, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*session.Session), args.Error(1)
}

func (m *MockRepository) SetActive(ctx context.Context, deviceID string, active bool) error {
	args := m.Called(ctx, deviceID, active)
	return args.Error(0)
}

func (m *MockRepository) ListUnenforced(ctx context.Context, now time.Time) ([]*session.Session, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*session.Session), args.Error(1)
}

func (m *MockRepository) UpdateAddress(ctx context.Context, deviceID, ip string) error {
	args := m.Called(ctx, deviceID, ip)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, filter session.Filter, limit, offset int) ([]*session.Session, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*session.Session), args.Error(1)
}

func (m *MockRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
