package identity

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// DefaultNeighborTablePath is the Linux ARP cache.
const DefaultNeighborTablePath = "/proc/net/arp"

const zeroHardwareAddr = "00:00:00:00:00:00"

// NeighborResolver resolves a client IP to its hardware address by reading
// the kernel neighbor table. It never fabricates an identifier: a missing
// or incomplete entry is ErrUnresolved.
type NeighborResolver struct {
	path string
}

func NewNeighborResolver(path string) *NeighborResolver {
	if path == "" {
		path = DefaultNeighborTablePath
	}
	return &NeighborResolver{path: path}
}

func (r *NeighborResolver) Resolve(ctx context.Context, ip string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(r.path)
	if err != nil {
		return "", fmt.Errorf("open neighbor table: %w", err)
	}
	defer f.Close()

	// /proc/net/arp format:
	// IP address  HW type  Flags  HW address  Mask  Device
	scanner := bufio.NewScanner(f)
	scanner.Scan() // header line
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] != ip {
			continue
		}
		flags, hwAddr := fields[2], strings.ToLower(fields[3])
		// Flags 0x0 marks an incomplete entry; the zero address is a stale
		// placeholder. Neither identifies a device.
		if flags == "0x0" || hwAddr == zeroHardwareAddr {
			return "", ErrUnresolved
		}
		return hwAddr, nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read neighbor table: %w", err)
	}
	return "", ErrUnresolved
}
