// Package identity maps a request's network address to a stable device
// identifier (hardware address) using the host's neighbor table.
package identity

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// ErrUnresolved means the address has no usable neighbor-table entry.
// This is a normal outcome: callers route the device to the portal error
// state instead of failing the request.
var ErrUnresolved = errors.New("device identity unresolved")

// Resolver maps a client IP to a device identifier.
type Resolver interface {
	Resolve(ctx context.Context, ip string) (string, error)
}

// ClientIP extracts the client address from a request: the first entry of
// the forwarded-for chain when present, otherwise the peer address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
