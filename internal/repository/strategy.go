package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/store"
)

const strategyColumns = `id, user_id, name, type, comment, description, market_type,
	market_condition, risk_level, time_frame, win_rate, total_trades,
	created_at, last_modified_date`

type StrategyRepo struct {
	pool *pgxpool.Pool
}

func NewStrategyRepo(pool *pgxpool.Pool) *StrategyRepo {
	return &StrategyRepo{pool: pool}
}

func (r *StrategyRepo) Create(ctx context.Context, s *models.Strategy) (*models.Strategy, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO strategies
		 (user_id, name, type, comment, description, market_type,
		  market_condition, risk_level, time_frame)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING `+strategyColumns,
		s.UserID, s.Name, s.Type, s.Comment, s.Description, s.MarketType,
		s.MarketCondition, s.RiskLevel, s.TimeFrame,
	)
	return scanStrategy(row)
}

func (r *StrategyRepo) Get(ctx context.Context, userID, id int64) (*models.Strategy, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+strategyColumns+` FROM strategies WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	return scanStrategy(row)
}

func (r *StrategyRepo) ListByUser(ctx context.Context, userID int64) ([]models.Strategy, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+strategyColumns+` FROM strategies WHERE user_id = $1 ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrategies(rows)
}

func (r *StrategyRepo) ListAll(ctx context.Context) ([]models.Strategy, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+strategyColumns+` FROM strategies ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrategies(rows)
}

func (r *StrategyRepo) Update(ctx context.Context, s *models.Strategy) (*models.Strategy, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE strategies
		 SET name = $1, type = $2, comment = $3, description = $4, market_type = $5,
		     market_condition = $6, risk_level = $7, time_frame = $8,
		     last_modified_date = NOW()
		 WHERE id = $9 AND user_id = $10
		 RETURNING `+strategyColumns,
		s.Name, s.Type, s.Comment, s.Description, s.MarketType,
		s.MarketCondition, s.RiskLevel, s.TimeFrame,
		s.ID, s.UserID,
	)
	return scanStrategy(row)
}

func (r *StrategyRepo) UpdateStats(ctx context.Context, id int64, winRate float64, totalTrades int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE strategies SET win_rate = $1, total_trades = $2, last_modified_date = NOW() WHERE id = $3`,
		winRate, totalTrades, id,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete relies on the trades.strategy_id foreign key to refuse removal of a
// strategy that still has trades.
func (r *StrategyRepo) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM strategies WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanStrategy(row scannable) (*models.Strategy, error) {
	var s models.Strategy
	err := row.Scan(
		&s.ID, &s.UserID, &s.Name, &s.Type, &s.Comment, &s.Description, &s.MarketType,
		&s.MarketCondition, &s.RiskLevel, &s.TimeFrame, &s.WinRate, &s.TotalTrades,
		&s.CreatedAt, &s.LastModifiedDate,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func collectStrategies(rows rowsIter) ([]models.Strategy, error) {
	out := []models.Strategy{}
	for rows.Next() {
		s, err := scanStrategy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
