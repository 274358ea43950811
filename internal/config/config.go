package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// TrackedAsset maps a CoinGecko id to the symbol/name stored in the assets table.
type TrackedAsset struct {
	GeckoID string
	Symbol  string
	Name    string
}

// WatchedWallet is an on-chain address whose ETH balance is snapshotted for a user.
type WatchedWallet struct {
	UserName string
	Address  string
}

type Config struct {
	// Database
	DatabaseURL string // full DSN, takes precedence when set
	DBHost      string
	DBPort      int
	DBName      string
	DBUser      string
	DBPassword  string

	// Ingestion
	TrackedAssets         []TrackedAsset
	DemoUser              string
	IngestIntervalSeconds int

	// CoinGecko
	CoinGeckoBaseURL string
	RateLimit        float64
	RateLimitBurst   int

	// API
	APIPort         int
	APIKey          string
	CORSAllowOrigin string

	// Notifications
	WebhookURL string
	AppName    string

	// Wallet sync (optional)
	EthRPCURL                 string
	WatchWallets              []WatchedWallet
	WalletSyncIntervalSeconds int

	// Logging
	LogLevel  string
	LogFormat string
}

// DefaultAssets matches the reference data the ingester seeds out of the box.
var DefaultAssets = []TrackedAsset{
	{GeckoID: "bitcoin", Symbol: "BTC", Name: "Bitcoin"},
	{GeckoID: "ethereum", Symbol: "ETH", Name: "Ethereum"},
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	assets, err := ParseTrackedAssets(envStr("TRACKED_ASSETS", ""))
	if err != nil {
		return nil, fmt.Errorf("TRACKED_ASSETS: %w", err)
	}
	if len(assets) == 0 {
		assets = DefaultAssets
	}

	wallets, err := ParseWatchWallets(envStr("WATCH_WALLETS", ""))
	if err != nil {
		return nil, fmt.Errorf("WATCH_WALLETS: %w", err)
	}

	cfg := &Config{
		DatabaseURL: envStr("TIMESCALE_SERVICE_URL", ""),
		DBHost:      envStr("DB_HOST", "localhost"),
		DBPort:      envInt("DB_PORT", 5432),
		DBName:      envStr("DB_NAME", "crypto_tracker"),
		DBUser:      envStr("DB_USER", ""),
		DBPassword:  envStr("DB_PASSWORD", ""),

		TrackedAssets:         assets,
		DemoUser:              envStr("DEMO_USER", "Sarah"),
		IngestIntervalSeconds: envInt("INGEST_INTERVAL_SECONDS", 30),

		CoinGeckoBaseURL: envStr("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		RateLimit:        envFloat("COINGECKO_RATE_LIMIT", 0.5),
		RateLimitBurst:   envInt("COINGECKO_RATE_LIMIT_BURST", 1),

		APIPort:         envInt("API_PORT", 3001),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		WebhookURL: envStr("WEBHOOK_URL", ""),
		AppName:    envStr("APP_NAME", "CryptoTracker"),

		EthRPCURL:                 envStr("ETH_RPC_URL", ""),
		WatchWallets:              wallets,
		WalletSyncIntervalSeconds: envInt("WALLET_SYNC_INTERVAL_SECONDS", 300),

		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "console"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.DatabaseURL == "" && c.DBUser == "" {
		errs = append(errs, "TIMESCALE_SERVICE_URL or DB_USER is required")
	}
	if c.IngestIntervalSeconds <= 0 {
		errs = append(errs, "INGEST_INTERVAL_SECONDS must be positive")
	}
	if len(c.WatchWallets) > 0 && c.EthRPCURL == "" {
		errs = append(errs, "ETH_RPC_URL is required when WATCH_WALLETS is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// DSN returns the Postgres connection string, preferring the full service URL.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// WalletSyncEnabled reports whether the optional on-chain snapshot loop should run.
func (c *Config) WalletSyncEnabled() bool {
	return c.EthRPCURL != "" && len(c.WatchWallets) > 0
}

// ParseTrackedAssets parses "geckoId:SYMBOL:Name,geckoId:SYMBOL:Name,...".
// The display name may be omitted, in which case the symbol doubles as the name.
func ParseTrackedAssets(s string) ([]TrackedAsset, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var out []TrackedAsset
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid asset entry %q, expected id:SYMBOL[:Name]", entry)
		}
		a := TrackedAsset{
			GeckoID: strings.TrimSpace(parts[0]),
			Symbol:  strings.ToUpper(strings.TrimSpace(parts[1])),
		}
		if a.GeckoID == "" || a.Symbol == "" {
			return nil, fmt.Errorf("invalid asset entry %q, empty id or symbol", entry)
		}
		if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
			a.Name = strings.TrimSpace(parts[2])
		} else {
			a.Name = a.Symbol
		}
		out = append(out, a)
	}
	return out, nil
}

// ParseWatchWallets parses "userName:0xaddress,userName:0xaddress,...".
func ParseWatchWallets(s string) ([]WatchedWallet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var out []WatchedWallet
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid wallet entry %q, expected user:address", entry)
		}
		w := WatchedWallet{
			UserName: strings.TrimSpace(parts[0]),
			Address:  strings.TrimSpace(parts[1]),
		}
		if w.UserName == "" || !strings.HasPrefix(w.Address, "0x") || len(w.Address) != 42 {
			return nil, fmt.Errorf("invalid wallet entry %q", entry)
		}
		out = append(out, w)
	}
	return out, nil
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
