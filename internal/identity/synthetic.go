package identity

import (
	"context"
	"crypto/sha256"
	"fmt"
)

// SyntheticResolver derives a deterministic identifier from the IP itself.
// Test and development environments only: it identifies addresses, not
// devices, and config.Load refuses to enable it in production.
type SyntheticResolver struct{}

func NewSyntheticResolver() *SyntheticResolver {
	return &SyntheticResolver{}
}

func (r *SyntheticResolver) Resolve(ctx context.Context, ip string) (string, error) {
	if ip == "" {
		return "", ErrUnresolved
	}
	sum := sha256.Sum256([]byte(ip))
	// Locally administered, unicast prefix keeps synthetic identifiers out
	// of any real vendor OUI space.
	return fmt.Sprintf("02:00:%02x:%02x:%02x:%02x", sum[0], sum[1], sum[2], sum[3]), nil
}
