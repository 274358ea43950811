package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coinwatch/crypto-tracker/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Record inserts a single transaction. A zero Timestamp is left to the
// database so the column default (NOW()) applies.
func (r *TransactionRepo) Record(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	var row pgx.Row
	if t.Timestamp.IsZero() {
		row = r.pool.QueryRow(ctx,
			`INSERT INTO transactions (user_id, asset_id, amount, price_usd)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, user_id, asset_id, amount, price_usd, ts`,
			t.UserID, t.AssetID, t.Amount, t.PriceUSD,
		)
	} else {
		row = r.pool.QueryRow(ctx,
			`INSERT INTO transactions (user_id, asset_id, amount, price_usd, ts)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, user_id, asset_id, amount, price_usd, ts`,
			t.UserID, t.AssetID, t.Amount, t.PriceUSD, t.Timestamp,
		)
	}
	return scanTransaction(row)
}

// InsertBatch bulk-loads one ingest cycle's rows with the COPY protocol.
func (r *TransactionRepo) InsertBatch(ctx context.Context, rows []models.Transaction) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"transactions"},
		[]string{"user_id", "asset_id", "amount", "price_usd", "ts"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			t := rows[i]
			return []any{t.UserID, t.AssetID, t.Amount, t.PriceUSD, t.Timestamp}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy transactions: %w", err)
	}
	return n, nil
}

// RangeFilter narrows transaction queries; nil bounds are open-ended.
type RangeFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

const defaultRangeLimit = 100

// GetRange returns transactions within the filter, most recent first.
func (r *TransactionRepo) GetRange(ctx context.Context, f RangeFilter) ([]models.Transaction, error) {
	query, args := buildRangeQuery(
		`SELECT id, user_id, asset_id, amount, price_usd, ts
		 FROM transactions WHERE 1=1`,
		nil, f,
	)
	return r.queryTransactions(ctx, query, args)
}

func (r *TransactionRepo) GetByUser(ctx context.Context, userID int32, f RangeFilter) ([]models.Transaction, error) {
	query, args := buildRangeQuery(
		`SELECT id, user_id, asset_id, amount, price_usd, ts
		 FROM transactions WHERE user_id = $1`,
		[]any{userID}, f,
	)
	return r.queryTransactions(ctx, query, args)
}

func (r *TransactionRepo) GetByAsset(ctx context.Context, assetID int32, f RangeFilter) ([]models.Transaction, error) {
	query, args := buildRangeQuery(
		`SELECT id, user_id, asset_id, amount, price_usd, ts
		 FROM transactions WHERE asset_id = $1`,
		[]any{assetID}, f,
	)
	return r.queryTransactions(ctx, query, args)
}

// LatestPrice returns the most recent recorded price for an asset symbol, or
// nil when the asset has no transactions yet.
func (r *TransactionRepo) LatestPrice(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT a.symbol, t.price_usd, t.ts
		 FROM transactions t
		 JOIN assets a ON a.id = t.asset_id
		 WHERE a.symbol = $1
		 ORDER BY t.ts DESC
		 LIMIT 1`,
		symbol,
	)

	var q models.PriceQuote
	err := row.Scan(&q.Symbol, &q.PriceUSD, &q.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// GetStats aggregates the whole transactions table.
func (r *TransactionRepo) GetStats(ctx context.Context) (*models.TransactionStats, error) {
	var s models.TransactionStats
	err := r.pool.QueryRow(ctx,
		`SELECT
			COUNT(*),
			COALESCE(SUM(amount * price_usd), 0),
			AVG(price_usd),
			MIN(ts),
			MAX(ts)
		 FROM transactions`,
	).Scan(&s.TotalRows, &s.TotalValue, &s.AvgPrice, &s.FirstTs, &s.LastTs)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// buildRangeQuery appends from/to clauses and an ordered limit.
func buildRangeQuery(baseQuery string, baseArgs []any, f RangeFilter) (string, []any) {
	args := baseArgs
	if f.From != nil {
		args = append(args, *f.From)
		baseQuery += fmt.Sprintf(" AND ts >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		baseQuery += fmt.Sprintf(" AND ts < $%d", len(args))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultRangeLimit
	}
	args = append(args, limit)
	baseQuery += fmt.Sprintf(" ORDER BY ts DESC LIMIT $%d", len(args))

	return baseQuery, args
}

func (r *TransactionRepo) queryTransactions(ctx context.Context, query string, args []any) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// --- scan helpers ---

func scanTransaction(row scannable) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.AssetID, &t.Amount, &t.PriceUSD, &t.Timestamp)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTransactions(rows rowsIter) ([]models.Transaction, error) {
	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.AssetID, &t.Amount, &t.PriceUSD, &t.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
