//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	httpapi "github.com/wifigate/wifigate/internal/api/http"
	"github.com/wifigate/wifigate/internal/application/admin"
	"github.com/wifigate/wifigate/internal/application/auth"
	"github.com/wifigate/wifigate/internal/application/gate"
	"github.com/wifigate/wifigate/internal/application/sweeper"
	"github.com/wifigate/wifigate/internal/enforcement"
	"github.com/wifigate/wifigate/internal/identity"
	"github.com/wifigate/wifigate/internal/infrastructure/postgres"
)

const (
	testUsername = "admin"
	testPassword = "S3cure-pass-w0rd"
	clientIP     = "10.0.0.5"
)

func TestSessionStoreGetOrCreateConcurrent(t *testing.T) {
	pool := newTestPool(t)
	defer pool.Close()
	repo := postgres.NewSessionRepository(pool)
	ctx := context.Background()

	const workers = 16
	ids := make([]uuid.UUID, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			s, err := repo.GetOrCreate(ctx, "aa:bb:cc:dd:ee:ff", clientIP)
			if err != nil {
				t.Errorf("get or create: %v", err)
				return
			}
			ids[i] = s.SessionID
		}(i)
	}
	wg.Wait()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one stored session, got %d", count)
	}
	for i, id := range ids {
		if id != ids[0] {
			t.Fatalf("caller %d observed a different session id", i)
		}
	}
}

func TestSessionStoreMarkExpiredBatchExactlyOnce(t *testing.T) {
	pool := newTestPool(t)
	defer pool.Close()
	repo := postgres.NewSessionRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Minute)

	devices := []string{"aa:bb:cc:dd:ee:ff", "11:22:33:44:55:66", "de:ad:be:ef:00:01"}
	for i, mac := range devices {
		if _, err := repo.GetOrCreate(ctx, mac, fmt.Sprintf("10.0.0.%d", i+5)); err != nil {
			t.Fatalf("seed %s: %v", mac, err)
		}
		if _, err := repo.MarkPaid(ctx, mac, 500, "txn", past); err != nil {
			t.Fatalf("mark paid %s: %v", mac, err)
		}
	}

	const sweeps = 8
	counts := make([]int, sweeps)
	var wg sync.WaitGroup
	wg.Add(sweeps)
	for i := 0; i < sweeps; i++ {
		go func(i int) {
			defer wg.Done()
			batch, err := repo.MarkExpiredBatch(ctx, now)
			if err != nil {
				t.Errorf("mark expired: %v", err)
				return
			}
			counts[i] = len(batch)
		}(i)
	}
	wg.Wait()

	total := 0
	for _, c := range counts {
		total += c
	}
	if total != len(devices) {
		t.Fatalf("expected each session expired exactly once across concurrent sweeps, got %d", total)
	}

	batch, err := repo.MarkExpiredBatch(ctx, now)
	if err != nil {
		t.Fatalf("follow-up sweep: %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("expected empty follow-up batch, got %d", len(batch))
	}
}

func TestPortalPaymentFlow(t *testing.T) {
	pool := newTestPool(t)
	defer pool.Close()
	ctx := context.Background()
	logger := zerolog.Nop()

	sessionRepo := postgres.NewSessionRepository(pool)
	planRepo := postgres.NewPlanRepository(pool)
	selectionRepo := postgres.NewSelectionRepository(pool)
	operatorRepo := postgres.NewOperatorRepository(pool)

	sim := enforcement.NewSimulation(logger)
	gateSvc := gate.NewService(sessionRepo, planRepo, selectionRepo, identity.NewSyntheticResolver(), sim, 15*time.Minute, time.Second, logger)
	authSvc := auth.NewService(operatorRepo, "integration-secret", time.Hour, logger)
	adminSvc := admin.NewService(sessionRepo, planRepo, logger)

	server := httptest.NewServer(httpapi.NewServer(gateSvc, authSvc, adminSvc).Router())
	defer server.Close()

	// Operator bootstrap and login.
	creds := map[string]string{"username": testUsername, "password": testPassword}
	doJSON(t, server, http.MethodPost, "/v1/auth/bootstrap", "", creds, http.StatusOK)
	loginResp := doJSON(t, server, http.MethodPost, "/v1/auth/login", "", creds, http.StatusOK)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("login returned no token: %v", loginResp)
	}

	// Catalog setup.
	planResp := doJSON(t, server, http.MethodPost, "/v1/admin/plans", token, map[string]interface{}{
		"name":          "2 Hour Pass",
		"priceCents":    500,
		"durationHours": 2,
		"description":   "two hours of access",
	}, http.StatusOK)
	planID, _ := planResp["planId"].(string)
	if planID == "" {
		t.Fatalf("plan creation returned no id: %v", planResp)
	}

	// First portal contact routes to the portal.
	access := doJSON(t, server, http.MethodGet, "/portal/access", "", nil, http.StatusOK)
	if access["decision"] != "NEEDS_PORTAL" {
		t.Fatalf("expected NEEDS_PORTAL, got %v", access["decision"])
	}

	doJSON(t, server, http.MethodPost, "/portal/select", "", map[string]string{"planId": planID}, http.StatusOK)
	payResp := doJSON(t, server, http.MethodPost, "/portal/pay", "", map[string]string{
		"planId":      planID,
		"attestation": "txn-integration-1",
	}, http.StatusOK)
	if payResp["status"] != "OK" {
		t.Fatalf("unexpected payment response %v", payResp)
	}

	access = doJSON(t, server, http.MethodGet, "/portal/access", "", nil, http.StatusOK)
	if access["decision"] != "GRANTED" {
		t.Fatalf("expected GRANTED after payment, got %v", access["decision"])
	}

	allows := 0
	for _, c := range sim.Calls() {
		if c.Op == "allow" {
			allows++
		}
	}
	if allows != 1 {
		t.Fatalf("expected exactly one allow call, got %d", allows)
	}

	// Force expiry and let one sweep revoke it.
	if _, err := pool.Exec(ctx, `UPDATE sessions SET expires_at = now() - interval '1 minute'`); err != nil {
		t.Fatalf("force expiry: %v", err)
	}
	sw := sweeper.New(sessionRepo, sim, time.Minute, time.Second, logger)
	res, err := sw.RunOnce(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Expired != 1 || res.Revoked != 1 {
		t.Fatalf("unexpected sweep result %+v", res)
	}
	access = doJSON(t, server, http.MethodGet, "/portal/access", "", nil, http.StatusOK)
	if access["decision"] != "NEEDS_PORTAL" {
		t.Fatalf("expected NEEDS_PORTAL after expiry, got %v", access["decision"])
	}
}

func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body interface{}, wantStatus int) map[string]interface{} {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal %s %s: %v", method, path, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", clientIP)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, body %v", method, path, resp.StatusCode, decoded)
	}
	return decoded
}

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, testDatabaseURL(t))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := postgres.RunMigrations(ctx, pool, filepath.Join(repoRoot(t), "migrations")); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		TRUNCATE TABLE plan_selections, sessions, payment_plans, operators RESTART IDENTITY CASCADE
	`); err != nil {
		t.Fatalf("reset database: %v", err)
	}
	return pool
}

func testDatabaseURL(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	t.Skip("TEST_DATABASE_URL not set; skipping integration tests")
	return ""
}

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
