package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fantasim/hdada/internal/api"
	"github.com/Fantasim/hdada/internal/api/handlers"
	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/db"
	"github.com/Fantasim/hdada/internal/logging"
	"github.com/Fantasim/hdada/internal/wallet"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 0, "Listen port on 127.0.0.1 (default: HDADA_PORT)")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *port != 0 {
		cfg.Port = *port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCloser.Close()

	slog.Info("starting hdada",
		"version", version,
		"network", cfg.Network,
		"port", cfg.Port,
		"dbPath", cfg.DBPath,
		"logLevel", cfg.LogLevel,
	)

	if removed := logging.CleanOldLogs(cfg.LogDir, config.LogMaxAgeDays); removed > 0 {
		slog.Info("old log files removed", "count", removed)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	slog.Info("database ready", "path", cfg.DBPath)

	keys, err := serveKeyService(cfg)
	if err != nil {
		return err
	}

	deps := &handlers.Deps{
		DB:     database,
		Config: cfg,
		Keys:   keys,
	}
	if cfg.SignRateLimit > 0 {
		deps.SignLimiter = handlers.NewRateLimiter("sign", cfg.SignRateLimit, config.RateLimitSignBurst)
	}

	srv := api.NewServer(cfg, api.NewRouter(deps))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go purgeChallenges(ctx, database)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("initiating graceful shutdown", "timeout", config.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// serveKeyService builds the key service for the API. Without a configured
// mnemonic source the server still starts, serving verification, address
// lookup and stored bundles only.
func serveKeyService(cfg *config.Config) (*wallet.KeyService, error) {
	if err := cfg.RequireMnemonicSource(); err != nil {
		slog.Warn("no mnemonic source configured, signing and bundle generation disabled")
		network, err := networkOf(cfg)
		if err != nil {
			return nil, err
		}
		return wallet.NewKeyService(nil, cfg.Passphrase, network), nil
	}
	return newKeyService(cfg)
}

// purgeChallenges deletes expired challenges until ctx is done.
func purgeChallenges(ctx context.Context, database *db.DB) {
	ticker := time.NewTicker(config.ChallengePurgeEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := database.PurgeExpiredChallenges(now.UTC().Format(time.RFC3339)); err != nil {
				slog.Error("challenge purge failed", "error", err)
			}
		}
	}
}
