package config

import "testing"

func TestParseTrackedAssets(t *testing.T) {
	assets, err := ParseTrackedAssets("bitcoin:BTC:Bitcoin, ethereum:eth:Ethereum ,solana:SOL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(assets))
	}

	if assets[0].GeckoID != "bitcoin" || assets[0].Symbol != "BTC" || assets[0].Name != "Bitcoin" {
		t.Fatalf("first asset: %+v", assets[0])
	}
	// Symbols are upper-cased.
	if assets[1].Symbol != "ETH" {
		t.Fatalf("expected ETH, got %s", assets[1].Symbol)
	}
	// Name falls back to the symbol.
	if assets[2].Name != "SOL" {
		t.Fatalf("expected SOL name fallback, got %s", assets[2].Name)
	}
}

func TestParseTrackedAssets_Empty(t *testing.T) {
	assets, err := ParseTrackedAssets("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assets != nil {
		t.Fatalf("expected nil for empty input, got %+v", assets)
	}
}

func TestParseTrackedAssets_Invalid(t *testing.T) {
	for _, in := range []string{"bitcoin", ":BTC", "bitcoin:"} {
		if _, err := ParseTrackedAssets(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestParseWatchWallets(t *testing.T) {
	wallets, err := ParseWatchWallets("sarah:0x00000000219ab540356cBB839Cbe05303d7705Fa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(wallets) != 1 {
		t.Fatalf("expected 1 wallet, got %d", len(wallets))
	}
	if wallets[0].UserName != "sarah" {
		t.Fatalf("user: %s", wallets[0].UserName)
	}
}

func TestParseWatchWallets_Invalid(t *testing.T) {
	bad := []string{
		"sarah",                     // no address
		"sarah:1234",                // not hex-prefixed
		"sarah:0x1234",              // too short
		":0x00000000219ab540356cBB839Cbe05303d7705Fa", // empty user
	}
	for _, in := range bad {
		if _, err := ParseWatchWallets(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{DBUser: "postgres", IngestIntervalSeconds: 30}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg = &Config{IngestIntervalSeconds: 30}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without database config")
	}

	cfg = &Config{DBUser: "postgres", IngestIntervalSeconds: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero ingest interval")
	}

	cfg = &Config{
		DBUser:                "postgres",
		IngestIntervalSeconds: 30,
		WatchWallets:          []WatchedWallet{{UserName: "a", Address: "0x00000000219ab540356cBB839Cbe05303d7705Fa"}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for wallets without RPC URL")
	}
}

func TestWalletSyncEnabled(t *testing.T) {
	wallet := WatchedWallet{UserName: "sarah", Address: "0x00000000219ab540356cBB839Cbe05303d7705Fa"}

	cfg := &Config{EthRPCURL: "https://rpc.example.com", WatchWallets: []WatchedWallet{wallet}}
	if !cfg.WalletSyncEnabled() {
		t.Fatal("expected enabled with RPC URL and wallets")
	}

	cfg = &Config{WatchWallets: []WatchedWallet{wallet}}
	if cfg.WalletSyncEnabled() {
		t.Fatal("expected disabled without RPC URL")
	}

	cfg = &Config{EthRPCURL: "https://rpc.example.com"}
	if cfg.WalletSyncEnabled() {
		t.Fatal("expected disabled without wallets")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://svc@ts.example.com/tsdb"}
	if cfg.DSN() != "postgres://svc@ts.example.com/tsdb" {
		t.Fatalf("service URL should win: %s", cfg.DSN())
	}

	cfg = &Config{DBHost: "localhost", DBPort: 5432, DBName: "crypto_tracker", DBUser: "postgres", DBPassword: "pw"}
	want := "postgres://postgres:pw@localhost:5432/crypto_tracker?sslmode=disable"
	if cfg.DSN() != want {
		t.Fatalf("DSN: got %s, want %s", cfg.DSN(), want)
	}
}
