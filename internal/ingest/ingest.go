package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/coinwatch/crypto-tracker/internal/config"
	"github.com/coinwatch/crypto-tracker/internal/external"
	"github.com/coinwatch/crypto-tracker/internal/models"
	"github.com/coinwatch/crypto-tracker/internal/notifications"
	"github.com/coinwatch/crypto-tracker/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ingester polls CoinGecko on an interval and records one transactions row per
// tracked asset. Each row carries amount=1 so the row's value equals the spot
// price; real holdings can be layered on later.
type Ingester struct {
	cfg    *config.Config
	prices external.PriceSource
	users  *repository.UserRepo
	assets *repository.AssetRepo
	txs    *repository.TransactionRepo
	notify *notifications.Sender
	logger *zap.Logger

	demoUserID int32
}

func New(
	cfg *config.Config,
	prices external.PriceSource,
	users *repository.UserRepo,
	assets *repository.AssetRepo,
	txs *repository.TransactionRepo,
	notify *notifications.Sender,
	logger *zap.Logger,
) *Ingester {
	return &Ingester{
		cfg:    cfg,
		prices: prices,
		users:  users,
		assets: assets,
		txs:    txs,
		notify: notify,
		logger: logger,
	}
}

// Seed ensures the demo user and the tracked assets exist. Idempotent.
func (g *Ingester) Seed(ctx context.Context) error {
	user, err := g.users.Ensure(ctx, g.cfg.DemoUser)
	if err != nil {
		return fmt.Errorf("ensure demo user: %w", err)
	}
	g.demoUserID = user.ID

	for _, a := range g.cfg.TrackedAssets {
		if _, err := g.assets.Upsert(ctx, a.Symbol, a.Name); err != nil {
			return fmt.Errorf("upsert asset %s: %w", a.Symbol, err)
		}
	}

	g.logger.Info("Reference data seeded",
		zap.String("user", user.Name),
		zap.Int("assets", len(g.cfg.TrackedAssets)),
	)
	return nil
}

// RunOnce performs a single ingest cycle and returns the number of rows
// inserted.
func (g *Ingester) RunOnce(ctx context.Context) (int64, error) {
	ids := make([]string, len(g.cfg.TrackedAssets))
	for i, a := range g.cfg.TrackedAssets {
		ids[i] = a.GeckoID
	}

	prices, err := g.prices.SimplePrices(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("fetch prices: %w", err)
	}

	idsBySymbol, err := g.assets.IDsBySymbol(ctx)
	if err != nil {
		return 0, fmt.Errorf("map assets: %w", err)
	}

	rows := g.buildRows(prices, idsBySymbol, time.Now().UTC())
	if len(rows) == 0 {
		g.logger.Warn("Ingest cycle produced no rows")
		return 0, nil
	}

	n, err := g.txs.InsertBatch(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("insert rows: %w", err)
	}

	g.logger.Info("Ingest cycle complete", zap.Int64("rows", n))
	return n, nil
}

// buildRows pairs fetched prices with asset ids, one row per tracked asset.
// Assets missing a price or a database id are skipped with a warning.
func (g *Ingester) buildRows(prices map[string]decimal.Decimal, idsBySymbol map[string]int32, ts time.Time) []models.Transaction {
	rows := make([]models.Transaction, 0, len(g.cfg.TrackedAssets))
	for _, a := range g.cfg.TrackedAssets {
		price, ok := prices[a.GeckoID]
		if !ok {
			g.logger.Warn("No price in response", zap.String("gecko_id", a.GeckoID))
			continue
		}
		assetID, ok := idsBySymbol[a.Symbol]
		if !ok {
			g.logger.Warn("Asset not seeded", zap.String("symbol", a.Symbol))
			continue
		}
		rows = append(rows, models.Transaction{
			UserID:    g.demoUserID,
			AssetID:   assetID,
			Amount:    decimal.NewFromInt(1),
			PriceUSD:  price,
			Timestamp: ts,
		})
	}
	return rows
}

// Run executes ingest cycles until the context is cancelled. A failed cycle is
// reported and skipped; the loop keeps going.
func (g *Ingester) Run(ctx context.Context) {
	interval := time.Duration(g.cfg.IngestIntervalSeconds) * time.Second
	g.logger.Info("Starting ingestion loop", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			g.logger.Info("Ingestion loop stopped")
			return
		case <-ticker.C:
			g.cycle(ctx)
		}
	}
}

func (g *Ingester) cycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	if _, err := g.RunOnce(cycleCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		g.logger.Error("Ingest cycle failed", zap.Error(err))
		g.notify.Send(fmt.Sprintf("ingest cycle failed: %v", err))
	}
}
