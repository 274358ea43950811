package repository

import (
	"context"
	"errors"

	"github.com/coinwatch/crypto-tracker/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AssetRepo struct {
	pool *pgxpool.Pool
}

func NewAssetRepo(pool *pgxpool.Pool) *AssetRepo {
	return &AssetRepo{pool: pool}
}

// Upsert inserts the asset or refreshes its display name. Requires the
// assets_symbol_key unique index.
func (r *AssetRepo) Upsert(ctx context.Context, symbol, name string) (*models.Asset, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO assets (symbol, name) VALUES ($1, $2)
		 ON CONFLICT (symbol) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, symbol, name`,
		symbol, name,
	)
	return scanAsset(row)
}

func (r *AssetRepo) GetBySymbol(ctx context.Context, symbol string) (*models.Asset, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, symbol, name FROM assets WHERE symbol = $1`,
		symbol,
	)
	a, err := scanAsset(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AssetRepo) List(ctx context.Context) ([]models.Asset, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, symbol, name FROM assets ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Asset
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// IDsBySymbol returns a symbol -> asset id map for the ingest cycle.
func (r *AssetRepo) IDsBySymbol(ctx context.Context) (map[string]int32, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, symbol FROM assets`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int32)
	for rows.Next() {
		var id int32
		var symbol string
		if err := rows.Scan(&id, &symbol); err != nil {
			return nil, err
		}
		out[symbol] = id
	}
	return out, rows.Err()
}

func scanAsset(row scannable) (*models.Asset, error) {
	var a models.Asset
	if err := row.Scan(&a.ID, &a.Symbol, &a.Name); err != nil {
		return nil, err
	}
	return &a, nil
}
