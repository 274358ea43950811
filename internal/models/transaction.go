package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one row of the time-partitioned fact table. The primary key
// is (ID, Timestamp): the partitioning column must be part of the key, so ID
// alone is not unique across time.
type Transaction struct {
	ID        int32           `json:"id"`
	UserID    int32           `json:"userId"`
	AssetID   int32           `json:"assetId"`
	Amount    decimal.Decimal `json:"amount"`
	PriceUSD  decimal.Decimal `json:"priceUsd"`
	Timestamp time.Time       `json:"timestamp"`
}

// PriceQuote is the latest recorded price for an asset.
type PriceQuote struct {
	Symbol    string          `json:"symbol"`
	PriceUSD  decimal.Decimal `json:"priceUsd"`
	Timestamp time.Time       `json:"timestamp"`
}

// TransactionStats aggregates the transactions table for the stats endpoint.
type TransactionStats struct {
	TotalRows  int64            `json:"totalRows"`
	TotalValue decimal.Decimal  `json:"totalValue"`
	AvgPrice   *decimal.Decimal `json:"avgPrice,omitempty"`
	FirstTs    *time.Time       `json:"firstTs,omitempty"`
	LastTs     *time.Time       `json:"lastTs,omitempty"`
}
