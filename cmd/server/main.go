package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/wifigate/wifigate/internal/api/http"
	"github.com/wifigate/wifigate/internal/application/admin"
	"github.com/wifigate/wifigate/internal/application/auth"
	"github.com/wifigate/wifigate/internal/application/gate"
	"github.com/wifigate/wifigate/internal/application/sweeper"
	"github.com/wifigate/wifigate/internal/config"
	"github.com/wifigate/wifigate/internal/enforcement"
	"github.com/wifigate/wifigate/internal/identity"
	"github.com/wifigate/wifigate/internal/infrastructure/postgres"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	sessionRepo := postgres.NewSessionRepository(pool)
	planRepo := postgres.NewPlanRepository(pool)
	selectionRepo := postgres.NewSelectionRepository(pool)
	operatorRepo := postgres.NewOperatorRepository(pool)

	// infrastructure
	backend, err := enforcement.New(cfg.EnforcementConfig(), logger)
	if err != nil {
		log.Fatalf("enforcement error: %v", err)
	}
	var resolver identity.Resolver
	if cfg.SyntheticIdentity {
		logger.Warn().Msg("synthetic identity resolution enabled; device ids are derived from IPs")
		resolver = identity.NewSyntheticResolver()
	} else {
		resolver = identity.NewNeighborResolver(cfg.NeighborTablePath)
	}

	// services
	gateSvc := gate.NewService(sessionRepo, planRepo, selectionRepo, resolver, backend, cfg.SelectionTTL, cfg.EnforceTimeout, logger)
	authSvc := auth.NewService(operatorRepo, cfg.JWTSecret, cfg.AdminTokenTTL, logger)
	adminSvc := admin.NewService(sessionRepo, planRepo, logger)
	sweep := sweeper.New(sessionRepo, backend, cfg.SweepInterval, cfg.EnforceTimeout, logger)

	// API server
	apiServer := httpapi.NewServer(gateSvc, authSvc, adminSvc)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background sweep
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go sweep.Run(sweepCtx)

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("backend", cfg.EnforcementBackend).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stopSweep()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
