package walletsync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coinwatch/crypto-tracker/internal/config"
	"github.com/coinwatch/crypto-tracker/internal/models"
	"github.com/coinwatch/crypto-tracker/internal/walletsync"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type stubUsers struct {
	user *models.User
	err  error
}

func (s *stubUsers) Ensure(ctx context.Context, name string) (*models.User, error) {
	return s.user, s.err
}

type stubAssets struct {
	asset *models.Asset
	err   error
}

func (s *stubAssets) GetBySymbol(ctx context.Context, symbol string) (*models.Asset, error) {
	return s.asset, s.err
}

type stubTxs struct {
	quote     *models.PriceQuote
	quoteErr  error
	recorded  []models.Transaction
	recordErr error
}

func (s *stubTxs) LatestPrice(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	return s.quote, s.quoteErr
}

func (s *stubTxs) Record(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	s.recorded = append(s.recorded, *t)
	out := *t
	out.ID = int32(len(s.recorded))
	return &out, nil
}

type stubBalances struct {
	balance decimal.Decimal
	err     error
}

func (s *stubBalances) ETHBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	return s.balance, s.err
}

const testWalletAddr = "0x00000000219ab540356cBB839Cbe05303d7705Fa"

func testConfig(wallets ...config.WatchedWallet) *config.Config {
	return &config.Config{
		WatchWallets:              wallets,
		WalletSyncIntervalSeconds: 3600,
	}
}

func TestSyncer_Lifecycle(t *testing.T) {
	txs := &stubTxs{quote: &models.PriceQuote{Symbol: "ETH", PriceUSD: decimal.NewFromInt(3400), Timestamp: time.Now()}}
	s := walletsync.New(
		testConfig(),
		&stubBalances{},
		&stubUsers{user: &models.User{ID: 1, Name: "sarah"}},
		&stubAssets{asset: &models.Asset{ID: 2, Symbol: "ETH", Name: "Ethereum"}},
		txs,
		zap.NewNop(),
	)

	if s.Running() {
		t.Fatal("should not be running before Start")
	}

	s.Start()
	if !s.Running() {
		t.Fatal("expected running after Start")
	}

	// A second Start is a logged no-op.
	s.Start()
	if !s.Running() {
		t.Fatal("expected still running after duplicate Start")
	}

	s.Stop()
	if s.Running() {
		t.Fatal("expected stopped after Stop")
	}

	// Stop on a stopped syncer must not panic or close stopCh twice.
	s.Stop()
}

func TestSyncNow_NoPriceYetSkips(t *testing.T) {
	txs := &stubTxs{quote: nil}
	s := walletsync.New(
		testConfig(config.WatchedWallet{UserName: "sarah", Address: testWalletAddr}),
		&stubBalances{balance: decimal.NewFromInt(1)},
		&stubUsers{user: &models.User{ID: 1, Name: "sarah"}},
		&stubAssets{asset: &models.Asset{ID: 2, Symbol: "ETH", Name: "Ethereum"}},
		txs,
		zap.NewNop(),
	)

	if err := s.SyncNow(context.Background()); err != nil {
		t.Fatalf("expected nil error when no price is ingested yet, got %v", err)
	}
	if len(txs.recorded) != 0 {
		t.Fatalf("expected no snapshots without a price, got %d", len(txs.recorded))
	}
}

func TestSyncNow_AssetMissing(t *testing.T) {
	s := walletsync.New(
		testConfig(config.WatchedWallet{UserName: "sarah", Address: testWalletAddr}),
		&stubBalances{},
		&stubUsers{},
		&stubAssets{asset: nil},
		&stubTxs{},
		zap.NewNop(),
	)

	if err := s.SyncNow(context.Background()); err == nil {
		t.Fatal("expected error when ETH is not a tracked asset")
	}
}

func TestSyncNow_RecordsSnapshot(t *testing.T) {
	balance := decimal.RequireFromString("1.5")
	price := decimal.RequireFromString("3400.5")
	txs := &stubTxs{quote: &models.PriceQuote{Symbol: "ETH", PriceUSD: price, Timestamp: time.Now()}}

	s := walletsync.New(
		testConfig(config.WatchedWallet{UserName: "sarah", Address: testWalletAddr}),
		&stubBalances{balance: balance},
		&stubUsers{user: &models.User{ID: 9, Name: "sarah"}},
		&stubAssets{asset: &models.Asset{ID: 2, Symbol: "ETH", Name: "Ethereum"}},
		txs,
		zap.NewNop(),
	)

	if err := s.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if len(txs.recorded) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(txs.recorded))
	}

	got := txs.recorded[0]
	if got.UserID != 9 || got.AssetID != 2 {
		t.Fatalf("snapshot attribution: %+v", got)
	}
	if !got.Amount.Equal(balance) {
		t.Fatalf("amount: got %s, want %s", got.Amount, balance)
	}
	if !got.PriceUSD.Equal(price) {
		t.Fatalf("price: got %s, want %s", got.PriceUSD, price)
	}
	// Timestamp left zero so the column default applies.
	if !got.Timestamp.IsZero() {
		t.Fatalf("expected zero timestamp, got %s", got.Timestamp)
	}
}

func TestSyncNow_AllWalletsFail(t *testing.T) {
	txs := &stubTxs{quote: &models.PriceQuote{Symbol: "ETH", PriceUSD: decimal.NewFromInt(3400), Timestamp: time.Now()}}
	s := walletsync.New(
		testConfig(config.WatchedWallet{UserName: "sarah", Address: testWalletAddr}),
		&stubBalances{err: errors.New("rpc unreachable")},
		&stubUsers{user: &models.User{ID: 1, Name: "sarah"}},
		&stubAssets{asset: &models.Asset{ID: 2, Symbol: "ETH", Name: "Ethereum"}},
		txs,
		zap.NewNop(),
	)

	if err := s.SyncNow(context.Background()); err == nil {
		t.Fatal("expected error when every wallet snapshot fails")
	}
	if len(txs.recorded) != 0 {
		t.Fatalf("expected no snapshots, got %d", len(txs.recorded))
	}
}
