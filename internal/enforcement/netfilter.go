package enforcement

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultChain is the dedicated rule chain for device allow rules.
const DefaultChain = "WIFIGATE"

// Runner executes a packet-filter command and reports its exit status.
// err is non-nil only when the command could not be run at all (missing
// binary, canceled context); command failures are carried in exitCode.
// Injected so tests can script iptables behavior.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (out string, exitCode int, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, int, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), exitErr.ExitCode(), nil
		}
		return string(out), -1, err
	}
	return string(out), 0, nil
}

// Netfilter manipulates a local iptables chain. The chain is created on
// first use and jumped to from FORWARD; rule mutations probe with -C first
// so repeated allows and revokes of the same device converge instead of
// erroring or stacking duplicates.
type Netfilter struct {
	chain  string
	runner Runner
	logger zerolog.Logger

	mu      sync.Mutex
	ensured bool
}

func NewNetfilter(chain string, runner Runner, logger zerolog.Logger) *Netfilter {
	if chain == "" {
		chain = DefaultChain
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &Netfilter{
		chain:  chain,
		runner: runner,
		logger: logger.With().Str("backend", "netfilter").Str("chain", chain).Logger(),
	}
}

func (n *Netfilter) Allow(ctx context.Context, deviceID, ip string) error {
	if err := n.ensureChain(ctx); err != nil {
		return err
	}
	exists, err := n.ruleExists(ctx, deviceID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	args := append([]string{"-I", n.chain, "1"}, macRuleArgs(deviceID)...)
	out, code, err := n.runner.Run(ctx, "iptables", args...)
	if err != nil || code != 0 {
		return cmdError("insert allow rule for "+deviceID, out, code, err)
	}
	n.logger.Info().Str("device_id", deviceID).Str("ip", ip).Msg("allow rule inserted")
	return nil
}

func (n *Netfilter) Revoke(ctx context.Context, deviceID, ip string) error {
	if err := n.ensureChain(ctx); err != nil {
		return err
	}
	exists, err := n.ruleExists(ctx, deviceID)
	if err != nil {
		return err
	}
	if !exists {
		// Already revoked.
		return nil
	}
	args := append([]string{"-D", n.chain}, macRuleArgs(deviceID)...)
	out, code, err := n.runner.Run(ctx, "iptables", args...)
	if err != nil || code != 0 {
		return cmdError("delete allow rule for "+deviceID, out, code, err)
	}
	n.logger.Info().Str("device_id", deviceID).Str("ip", ip).Msg("allow rule removed")
	return nil
}

// ensureChain creates the chain and hooks it into FORWARD. Safe to call on
// every operation; work happens at most once per process unless it failed.
func (n *Netfilter) ensureChain(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ensured {
		return nil
	}
	out, code, err := n.runner.Run(ctx, "iptables", "-N", n.chain)
	if err != nil || (code != 0 && !strings.Contains(out, "Chain already exists")) {
		return cmdError("create chain "+n.chain, out, code, err)
	}
	out, code, err = n.runner.Run(ctx, "iptables", "-C", "FORWARD", "-j", n.chain)
	if err != nil {
		return cmdError("probe FORWARD hook", out, code, err)
	}
	switch code {
	case 0:
		// Already hooked.
	case 1:
		out, code, err = n.runner.Run(ctx, "iptables", "-I", "FORWARD", "-j", n.chain)
		if err != nil || code != 0 {
			return cmdError("hook chain "+n.chain+" into FORWARD", out, code, err)
		}
	default:
		return cmdError("probe FORWARD hook", out, code, err)
	}
	n.ensured = true
	return nil
}

// ruleExists probes with -C. iptables exits 1 when the rule is absent;
// any other non-zero status (lock contention, permissions, missing chain)
// is a hard failure, not absence.
func (n *Netfilter) ruleExists(ctx context.Context, deviceID string) (bool, error) {
	args := append([]string{"-C", n.chain}, macRuleArgs(deviceID)...)
	out, code, err := n.runner.Run(ctx, "iptables", args...)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("probe rule for %s: %w", deviceID, err)
	}
	switch code {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, cmdError("probe rule for "+deviceID, out, code, nil)
	}
}

func cmdError(op, out string, code int, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: exit status %d (%s)", op, code, strings.TrimSpace(out))
}

func macRuleArgs(deviceID string) []string {
	return []string{"-m", "mac", "--mac-source", strings.ToUpper(deviceID), "-j", "ACCEPT"}
}
