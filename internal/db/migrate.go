package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS assets (
		id SERIAL PRIMARY KEY,
		symbol TEXT,
		name TEXT
	)`,
	// Composite primary key: the partitioning column must be part of the key.
	`CREATE TABLE IF NOT EXISTS transactions (
		id SERIAL,
		user_id INT REFERENCES users(id),
		asset_id INT REFERENCES assets(id),
		amount NUMERIC,
		price_usd NUMERIC,
		ts TIMESTAMPTZ DEFAULT NOW(),
		PRIMARY KEY (id, ts)
	)`,
	`SELECT create_hypertable('transactions', 'ts', if_not_exists => TRUE)`,
}

// Migrate creates the base tables, converts transactions into a hypertable and
// ensures the unique symbol index the asset upserts rely on. Safe to run on
// every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE tablename = 'assets' AND indexname = 'assets_symbol_key'
		)`,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check symbol index: %w", err)
	}
	if !exists {
		if _, err := pool.Exec(ctx, `CREATE UNIQUE INDEX assets_symbol_key ON assets(symbol)`); err != nil {
			return fmt.Errorf("create symbol index: %w", err)
		}
	}

	return nil
}
