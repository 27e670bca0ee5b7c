package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/store"
)

const currencyPairColumns = `id, user_id, symbol, base_currency, quote_currency, description, created_at`

type CurrencyPairRepo struct {
	pool *pgxpool.Pool
}

func NewCurrencyPairRepo(pool *pgxpool.Pool) *CurrencyPairRepo {
	return &CurrencyPairRepo{pool: pool}
}

func (r *CurrencyPairRepo) Create(ctx context.Context, p *models.CurrencyPair) (*models.CurrencyPair, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO currency_pairs (user_id, symbol, base_currency, quote_currency, description)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING `+currencyPairColumns,
		p.UserID, p.Symbol, p.BaseCurrency, p.QuoteCurrency, p.Description,
	)
	return scanCurrencyPair(row)
}

func (r *CurrencyPairRepo) Get(ctx context.Context, userID, id int64) (*models.CurrencyPair, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+currencyPairColumns+` FROM currency_pairs WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	return scanCurrencyPair(row)
}

func (r *CurrencyPairRepo) ListByUser(ctx context.Context, userID int64) ([]models.CurrencyPair, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+currencyPairColumns+` FROM currency_pairs WHERE user_id = $1 ORDER BY symbol ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CurrencyPair{}
	for rows.Next() {
		p, err := scanCurrencyPair(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *CurrencyPairRepo) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM currency_pairs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanCurrencyPair(row scannable) (*models.CurrencyPair, error) {
	var p models.CurrencyPair
	err := row.Scan(&p.ID, &p.UserID, &p.Symbol, &p.BaseCurrency, &p.QuoteCurrency, &p.Description, &p.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}
