package ingest

import (
	"testing"
	"time"

	"github.com/coinwatch/crypto-tracker/internal/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestIngester(assets []config.TrackedAsset) *Ingester {
	return &Ingester{
		cfg:        &config.Config{TrackedAssets: assets},
		logger:     zap.NewNop(),
		demoUserID: 7,
	}
}

func TestBuildRows(t *testing.T) {
	g := newTestIngester([]config.TrackedAsset{
		{GeckoID: "bitcoin", Symbol: "BTC", Name: "Bitcoin"},
		{GeckoID: "ethereum", Symbol: "ETH", Name: "Ethereum"},
	})

	prices := map[string]decimal.Decimal{
		"bitcoin":  decimal.RequireFromString("67000.12"),
		"ethereum": decimal.RequireFromString("3400.5"),
	}
	ids := map[string]int32{"BTC": 1, "ETH": 2}
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	rows := g.buildRows(prices, ids, ts)

	assert.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, int32(7), row.UserID)
		assert.True(t, row.Amount.Equal(decimal.NewFromInt(1)), "amount should be 1 so value == price")
		assert.Equal(t, ts, row.Timestamp)
	}
	assert.Equal(t, int32(1), rows[0].AssetID)
	assert.True(t, rows[0].PriceUSD.Equal(prices["bitcoin"]))
	assert.Equal(t, int32(2), rows[1].AssetID)
	assert.True(t, rows[1].PriceUSD.Equal(prices["ethereum"]))
}

func TestBuildRows_SkipsMissingPrice(t *testing.T) {
	g := newTestIngester([]config.TrackedAsset{
		{GeckoID: "bitcoin", Symbol: "BTC", Name: "Bitcoin"},
		{GeckoID: "solana", Symbol: "SOL", Name: "Solana"},
	})

	prices := map[string]decimal.Decimal{
		"bitcoin": decimal.RequireFromString("67000"),
		// solana absent from the response
	}
	ids := map[string]int32{"BTC": 1, "SOL": 3}

	rows := g.buildRows(prices, ids, time.Now().UTC())

	assert.Len(t, rows, 1)
	assert.Equal(t, int32(1), rows[0].AssetID)
}

func TestBuildRows_SkipsUnseededAsset(t *testing.T) {
	g := newTestIngester([]config.TrackedAsset{
		{GeckoID: "bitcoin", Symbol: "BTC", Name: "Bitcoin"},
	})

	prices := map[string]decimal.Decimal{
		"bitcoin": decimal.RequireFromString("67000"),
	}
	// BTC has no database id yet
	rows := g.buildRows(prices, map[string]int32{}, time.Now().UTC())

	assert.Empty(t, rows)
}
