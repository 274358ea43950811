package walletsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coinwatch/crypto-tracker/internal/config"
	"github.com/coinwatch/crypto-tracker/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const ethSymbol = "ETH"

// Narrow views of the stores the syncer touches.
type UserStore interface {
	Ensure(ctx context.Context, name string) (*models.User, error)
}

type AssetStore interface {
	GetBySymbol(ctx context.Context, symbol string) (*models.Asset, error)
}

type TransactionStore interface {
	LatestPrice(ctx context.Context, symbol string) (*models.PriceQuote, error)
	Record(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
}

// BalanceSource reads on-chain balances, normally the ethereum client.
type BalanceSource interface {
	ETHBalance(ctx context.Context, address string) (decimal.Decimal, error)
}

// Syncer periodically snapshots the ETH balance of each watched wallet as a
// transactions row: amount is the balance, price_usd the latest ingested ETH
// price. The whole service is optional and skipped when not configured.
type Syncer struct {
	cfg    *config.Config
	eth    BalanceSource
	users  UserStore
	assets AssetStore
	txs    TransactionStore
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func New(
	cfg *config.Config,
	eth BalanceSource,
	users UserStore,
	assets AssetStore,
	txs TransactionStore,
	logger *zap.Logger,
) *Syncer {
	return &Syncer{
		cfg:    cfg,
		eth:    eth,
		users:  users,
		assets: assets,
		txs:    txs,
		logger: logger,
	}
}

func (s *Syncer) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("Wallet syncer already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	interval := time.Duration(s.cfg.WalletSyncIntervalSeconds) * time.Second

	// Initial sync on startup (fire-and-forget)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if err := s.SyncNow(ctx); err != nil {
			s.logger.Error("Initial wallet sync failed", zap.Error(err))
		}
	}()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
				if err := s.SyncNow(ctx); err != nil {
					s.logger.Error("Wallet sync failed", zap.Error(err))
				}
				cancel()
			}
		}
	}()

	s.logger.Info("Wallet syncer started",
		zap.Duration("interval", interval),
		zap.Int("wallets", len(s.cfg.WatchWallets)),
	)
}

func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
	s.logger.Info("Wallet syncer stopped")
}

func (s *Syncer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SyncNow snapshots every watched wallet once. A wallet that fails does not
// block the others.
func (s *Syncer) SyncNow(ctx context.Context) error {
	asset, err := s.assets.GetBySymbol(ctx, ethSymbol)
	if err != nil {
		return fmt.Errorf("lookup %s asset: %w", ethSymbol, err)
	}
	if asset == nil {
		return fmt.Errorf("%s is not a tracked asset, cannot snapshot wallets", ethSymbol)
	}

	quote, err := s.txs.LatestPrice(ctx, ethSymbol)
	if err != nil {
		return fmt.Errorf("latest %s price: %w", ethSymbol, err)
	}
	if quote == nil {
		s.logger.Warn("No ETH price ingested yet, skipping wallet sync")
		return nil
	}

	var failed int
	for _, w := range s.cfg.WatchWallets {
		if err := s.syncWallet(ctx, w, asset.ID, quote); err != nil {
			failed++
			s.logger.Error("Wallet snapshot failed",
				zap.String("user", w.UserName),
				zap.String("address", w.Address),
				zap.Error(err),
			)
		}
	}
	if failed > 0 && failed == len(s.cfg.WatchWallets) {
		return fmt.Errorf("all %d wallet snapshots failed", failed)
	}
	return nil
}

func (s *Syncer) syncWallet(ctx context.Context, w config.WatchedWallet, assetID int32, quote *models.PriceQuote) error {
	user, err := s.users.Ensure(ctx, w.UserName)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	balance, err := s.eth.ETHBalance(ctx, w.Address)
	if err != nil {
		return err
	}

	recorded, err := s.txs.Record(ctx, &models.Transaction{
		UserID:   user.ID,
		AssetID:  assetID,
		Amount:   balance,
		PriceUSD: quote.PriceUSD,
	})
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}

	s.logger.Info("Wallet snapshot recorded",
		zap.String("user", w.UserName),
		zap.String("balance_eth", balance.String()),
		zap.Int32("transaction_id", recorded.ID),
	)
	return nil
}
