package operator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrNotFound is returned when an operator does not exist.
var ErrNotFound = errors.New("operator not found")

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleViewer Role = "VIEWER"
)

// Operator is a principal of the administrative read API. Portal clients
// are never operators; devices are identified at the network layer.
type Operator struct {
	OperatorID   uuid.UUID `json:"operatorId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

var usernameRe = regexp.MustCompile(`^[a-z][a-z0-9._-]{2,31}$`)

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("invalid username %q", username)
	}
	return nil
}

func ValidateRole(role Role) error {
	switch role {
	case RoleAdmin, RoleViewer:
		return nil
	}
	return fmt.Errorf("invalid role %q", role)
}

func HashPassword(password string) (string, error) {
	if len(password) < 10 {
		return "", errors.New("password must be at least 10 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hash string, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
