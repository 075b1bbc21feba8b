// Package auth authenticates operators of the administrative API.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domain "github.com/wifigate/wifigate/internal/domain/operator"
)

// Claims is the operator token payload.
type Claims struct {
	OperatorID string `json:"operatorId"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies operator tokens.
type Service struct {
	operators domain.Repository
	secret    []byte
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewService(operators domain.Repository, secret string, tokenTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		operators: operators,
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("service", "auth").Logger(),
	}
}

// LoginResult contains the login response.
type LoginResult struct {
	Operator  *domain.Operator
	Token     string
	ExpiresAt time.Time
}

// Login authenticates an operator and issues a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = domain.NormalizeUsername(username)
	op, err := s.operators.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if op == nil || !domain.VerifyPassword(op.PasswordHash, password) {
		return nil, fmt.Errorf("invalid username or password")
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	claims := &Claims{
		OperatorID: op.OperatorID.String(),
		Username:   op.Username,
		Role:       string(op.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "wifigate",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("operator_id", op.OperatorID.String()).Msg("operator login")
	return &LoginResult{Operator: op, Token: token, ExpiresAt: expiresAt}, nil
}

// Verify validates a bearer token and returns its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Bootstrap creates the first operator. Refused once any operator exists.
func (s *Service) Bootstrap(ctx context.Context, username, password string) (*domain.Operator, error) {
	count, err := s.operators.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("bootstrap already completed")
	}
	return s.createOperator(ctx, username, password, domain.RoleAdmin)
}

func (s *Service) createOperator(ctx context.Context, username, password string, role domain.Role) (*domain.Operator, error) {
	username = domain.NormalizeUsername(username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := domain.ValidateRole(role); err != nil {
		return nil, err
	}
	hash, err := domain.HashPassword(password)
	if err != nil {
		return nil, err
	}
	op := &domain.Operator{
		OperatorID:   uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.operators.Create(ctx, op); err != nil {
		return nil, err
	}
	s.logger.Info().Str("operator_id", op.OperatorID.String()).Str("username", op.Username).Msg("operator created")
	return op, nil
}
