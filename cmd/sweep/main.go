// Sweep runs a single expiry-and-reconcile pass and exits. Intended for
// cron on installations that do not keep the server's background sweeper,
// or to force convergence by hand.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/wifigate/wifigate/internal/application/sweeper"
	"github.com/wifigate/wifigate/internal/config"
	"github.com/wifigate/wifigate/internal/enforcement"
	"github.com/wifigate/wifigate/internal/infrastructure/postgres"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	backend, err := enforcement.New(cfg.EnforcementConfig(), logger)
	if err != nil {
		log.Fatalf("enforcement error: %v", err)
	}

	sweep := sweeper.New(postgres.NewSessionRepository(pool), backend, cfg.SweepInterval, cfg.EnforceTimeout, logger)
	res, err := sweep.RunOnce(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweep failed")
	}
	logger.Info().
		Int("expired", res.Expired).
		Int("revoked", res.Revoked).
		Int("reconciled", res.Reconciled).
		Msg("sweep finished")
}
