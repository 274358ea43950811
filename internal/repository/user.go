package repository

import (
	"context"
	"errors"

	"github.com/coinwatch/crypto-tracker/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, name string) (*models.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (name) VALUES ($1) RETURNING id, name`,
		name,
	)
	return scanUser(row)
}

func (r *UserRepo) GetByID(ctx context.Context, id int32) (*models.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name FROM users WHERE id = $1`,
		id,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *UserRepo) GetByName(ctx context.Context, name string) (*models.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name FROM users WHERE name = $1 ORDER BY id ASC LIMIT 1`,
		name,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// Ensure returns the user with the given name, creating it when absent.
// users.name carries no unique constraint, so this is a lookup-then-insert
// rather than an upsert; the ingester only calls it once at startup.
func (r *UserRepo) Ensure(ctx context.Context, name string) (*models.User, error) {
	u, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	return r.Create(ctx, name)
}

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row scannable) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name); err != nil {
		return nil, err
	}
	return &u, nil
}
