package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coinwatch/crypto-tracker/internal/api"
	"github.com/coinwatch/crypto-tracker/internal/config"
	"github.com/coinwatch/crypto-tracker/internal/db"
	"github.com/coinwatch/crypto-tracker/internal/ethereum"
	"github.com/coinwatch/crypto-tracker/internal/external"
	"github.com/coinwatch/crypto-tracker/internal/ingest"
	"github.com/coinwatch/crypto-tracker/internal/logger"
	"github.com/coinwatch/crypto-tracker/internal/notifications"
	"github.com/coinwatch/crypto-tracker/internal/repository"
	"github.com/coinwatch/crypto-tracker/internal/walletsync"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded",
		zap.Int("tracked_assets", len(cfg.TrackedAssets)),
		zap.Int("ingest_interval_s", cfg.IngestIntervalSeconds),
		zap.Bool("wallet_sync", cfg.WalletSyncEnabled()),
	)

	// Database
	pool, err := db.Connect(cfg.DSN())
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer func() {
		pool.Close()
		log.Info("Database connection pool closed")
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	now, err := db.TestConnection(ctx, pool)
	if err != nil {
		log.Fatal("Database test query failed", zap.Error(err))
	}
	log.Info("Database connection successful", zap.Time("server_time", now))

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal("Schema migration failed", zap.Error(err))
	}
	log.Info("Schema ensured (tables + hypertable)")

	// Repos
	userRepo := repository.NewUserRepo(pool)
	assetRepo := repository.NewAssetRepo(pool)
	txRepo := repository.NewTransactionRepo(pool)

	// Notifications
	notify := notifications.NewSender(cfg.WebhookURL, cfg.AppName, log)

	// CoinGecko client
	gecko := external.NewCoinGeckoClient(cfg.CoinGeckoBaseURL, cfg.RateLimit, cfg.RateLimitBurst, log)

	// 1. API server
	srv := api.NewServer(pool, cfg.APIPort, cfg.APIKey, cfg.CORSAllowOrigin, log)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("API server error", zap.Error(err))
		}
	}()

	// 2. Ingester
	ingester := ingest.New(cfg, gecko, userRepo, assetRepo, txRepo, notify, log)
	if err := ingester.Seed(ctx); err != nil {
		log.Fatal("Seeding reference data failed", zap.Error(err))
	}
	go ingester.Run(ctx)

	// 3. Wallet syncer (optional)
	var syncer *walletsync.Syncer
	if cfg.WalletSyncEnabled() {
		ethClient, err := ethereum.Dial(cfg.EthRPCURL)
		if err != nil {
			log.Fatal("Ethereum RPC connection failed", zap.Error(err))
		}
		defer ethClient.Close()

		syncer = walletsync.New(cfg, ethClient, userRepo, assetRepo, txRepo, log)
		syncer.Start()
	} else {
		log.Info("Wallet sync skipped - ETH_RPC_URL or WATCH_WALLETS not configured")
	}

	notify.Send("crypto tracker started")
	log.Info("All services started", zap.Bool("notifications", notify.Enabled()))

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info("Shutting down gracefully...")

	if syncer != nil {
		syncer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("API shutdown error", zap.Error(err))
	}
	log.Info("Shutdown complete")
}
