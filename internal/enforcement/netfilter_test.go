package enforcement

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// fakeIptables emulates enough iptables behavior for the backend: chain
// creation, FORWARD hook, and -C/-I/-D rule semantics with real exit codes.
type fakeIptables struct {
	chains  map[string]bool
	hooked  bool
	rules   map[string]bool
	history []string

	// when probeCode is non-zero every -C rule probe fails with it
	probeCode int
	probeOut  string
}

func newFakeIptables() *fakeIptables {
	return &fakeIptables{chains: map[string]bool{}, rules: map[string]bool{}}
}

func (f *fakeIptables) Run(ctx context.Context, name string, args ...string) (string, int, error) {
	cmd := strings.Join(args, " ")
	f.history = append(f.history, cmd)
	switch {
	case args[0] == "-N":
		if f.chains[args[1]] {
			return "iptables: Chain already exists.", 1, nil
		}
		f.chains[args[1]] = true
		return "", 0, nil
	case args[0] == "-C" && args[1] == "FORWARD":
		if !f.hooked {
			return "", 1, nil
		}
		return "", 0, nil
	case args[0] == "-I" && args[1] == "FORWARD":
		f.hooked = true
		return "", 0, nil
	case args[0] == "-C":
		if f.probeCode != 0 {
			return f.probeOut, f.probeCode, nil
		}
		if !f.rules[ruleKey(args[2:])] {
			return "", 1, nil
		}
		return "", 0, nil
	case args[0] == "-I":
		f.rules[ruleKey(args[3:])] = true
		return "", 0, nil
	case args[0] == "-D":
		delete(f.rules, ruleKey(args[2:]))
		return "", 0, nil
	}
	return "", -1, errors.New("unexpected command: " + cmd)
}

func ruleKey(args []string) string { return strings.Join(args, " ") }

func (f *fakeIptables) ruleCount() int { return len(f.rules) }

func TestNetfilterAllowInsertsOnce(t *testing.T) {
	fake := newFakeIptables()
	n := NewNetfilter("TESTCHAIN", fake, zerolog.Nop())
	ctx := context.Background()

	if err := n.Allow(ctx, "aa:bb:cc:dd:ee:ff", "10.0.0.5"); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if fake.ruleCount() != 1 {
		t.Fatalf("expected 1 rule, got %d", fake.ruleCount())
	}
	if !fake.chains["TESTCHAIN"] || !fake.hooked {
		t.Fatal("expected chain created and hooked into FORWARD")
	}

	// Second allow is a no-op.
	if err := n.Allow(ctx, "aa:bb:cc:dd:ee:ff", "10.0.0.5"); err != nil {
		t.Fatalf("second allow: %v", err)
	}
	if fake.ruleCount() != 1 {
		t.Fatalf("expected idempotent allow, got %d rules", fake.ruleCount())
	}
}

func TestNetfilterRevokeIdempotent(t *testing.T) {
	fake := newFakeIptables()
	n := NewNetfilter("TESTCHAIN", fake, zerolog.Nop())
	ctx := context.Background()

	if err := n.Allow(ctx, "aa:bb:cc:dd:ee:ff", "10.0.0.5"); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if err := n.Revoke(ctx, "aa:bb:cc:dd:ee:ff", "10.0.0.5"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if fake.ruleCount() != 0 {
		t.Fatalf("expected rule removed, got %d", fake.ruleCount())
	}

	// Revoking an absent rule is ok.
	if err := n.Revoke(ctx, "aa:bb:cc:dd:ee:ff", "10.0.0.5"); err != nil {
		t.Fatalf("revoke absent: %v", err)
	}
}

func TestNetfilterChainEnsuredOncePerProcess(t *testing.T) {
	fake := newFakeIptables()
	fake.chains["TESTCHAIN"] = true // pre-existing chain from an earlier run
	n := NewNetfilter("TESTCHAIN", fake, zerolog.Nop())
	ctx := context.Background()

	if err := n.Allow(ctx, "aa:bb:cc:dd:ee:ff", "10.0.0.5"); err != nil {
		t.Fatalf("allow with pre-existing chain: %v", err)
	}
	ensures := 0
	for _, cmd := range fake.history {
		if strings.HasPrefix(cmd, "-N ") {
			ensures++
		}
	}
	if ensures != 1 {
		t.Fatalf("expected one chain-create attempt, got %d", ensures)
	}
	if err := n.Allow(ctx, "11:22:33:44:55:66", "10.0.0.6"); err != nil {
		t.Fatalf("allow: %v", err)
	}
	for _, cmd := range fake.history[len(fake.history)-2:] {
		if strings.HasPrefix(cmd, "-N ") {
			t.Fatal("chain re-ensured after success")
		}
	}
}

func TestNetfilterProbeFailureSurfaces(t *testing.T) {
	fake := newFakeIptables()
	fake.probeCode = 4
	fake.probeOut = "Another app is currently holding the xtables lock"
	n := NewNetfilter("TESTCHAIN", fake, zerolog.Nop())

	if err := n.Allow(context.Background(), "aa:bb:cc:dd:ee:ff", "10.0.0.5"); err == nil {
		t.Fatal("expected probe failure to surface")
	}
}

func TestNetfilterRevokeProbeFailureIsNotSuccess(t *testing.T) {
	fake := newFakeIptables()
	n := NewNetfilter("TESTCHAIN", fake, zerolog.Nop())
	ctx := context.Background()

	if err := n.Allow(ctx, "aa:bb:cc:dd:ee:ff", "10.0.0.5"); err != nil {
		t.Fatalf("allow: %v", err)
	}

	// A probe that exits non-1 (lock contention) must not be read as
	// "rule absent": the revoke has to fail, not report success.
	fake.probeCode = 4
	fake.probeOut = "Another app is currently holding the xtables lock"
	if err := n.Revoke(ctx, "aa:bb:cc:dd:ee:ff", "10.0.0.5"); err == nil {
		t.Fatal("expected revoke to fail on probe error")
	}
	if fake.ruleCount() != 1 {
		t.Fatalf("rule must remain untouched, got %d rules", fake.ruleCount())
	}
}

func TestNetfilterUppercasesMAC(t *testing.T) {
	fake := newFakeIptables()
	n := NewNetfilter("TESTCHAIN", fake, zerolog.Nop())
	if err := n.Allow(context.Background(), "aa:bb:cc:dd:ee:ff", "10.0.0.5"); err != nil {
		t.Fatalf("allow: %v", err)
	}
	found := false
	for _, cmd := range fake.history {
		if strings.Contains(cmd, "AA:BB:CC:DD:EE:FF") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected MAC uppercased in rule arguments")
	}
}
