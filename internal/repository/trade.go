package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/store"
)

const tradeColumns = `id, user_id, strategy_id, currency_pair_id, open_date, close_date,
	status, type, duration, entry_price, exit_price, position_size, market_trend,
	stop_loss_price, take_profit_price, transaction_cost, reason, comment,
	categories, profit, created_at, updated_at`

type TradeRepo struct {
	pool       *pgxpool.Pool
	strategies *StrategyRepo
	pairs      *CurrencyPairRepo
}

func NewTradeRepo(pool *pgxpool.Pool) *TradeRepo {
	return &TradeRepo{
		pool:       pool,
		strategies: NewStrategyRepo(pool),
		pairs:      NewCurrencyPairRepo(pool),
	}
}

func (r *TradeRepo) Create(ctx context.Context, t *models.Trade) (*models.Trade, error) {
	cats, err := encodeCategories(t.Categories)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO trades
		 (user_id, strategy_id, currency_pair_id, open_date, close_date, status, type,
		  duration, entry_price, exit_price, position_size, market_trend,
		  stop_loss_price, take_profit_price, transaction_cost, reason, comment,
		  categories, profit)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		 RETURNING `+tradeColumns,
		t.UserID, t.StrategyID, t.CurrencyPairID, t.OpenDate, t.CloseDate, t.Status, t.Type,
		t.Duration, t.EntryPrice, t.ExitPrice, t.PositionSize, t.MarketTrend,
		t.StopLossPrice, t.TakeProfitPrice, t.TransactionCost, t.Reason, t.Comment,
		cats, t.Profit,
	)
	created, err := scanTrade(row)
	if err != nil {
		return nil, err
	}
	return created, r.attach(ctx, created.UserID, []*models.Trade{created})
}

func (r *TradeRepo) Get(ctx context.Context, userID, id int64) (*models.Trade, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	t, err := scanTrade(row)
	if err != nil {
		return nil, err
	}
	return t, r.attach(ctx, userID, []*models.Trade{t})
}

// ListByUser returns the user's trades ordered by close date, oldest first.
func (r *TradeRepo) ListByUser(ctx context.Context, userID int64, f store.TradeFilter) ([]models.Trade, error) {
	var w whereBuilder
	w.add("user_id = $%d", userID)
	if f.StrategyID > 0 {
		w.add("strategy_id = $%d", f.StrategyID)
	}
	if f.CurrencyPairID > 0 {
		w.add("currency_pair_id = $%d", f.CurrencyPairID)
	}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	if !f.From.IsZero() {
		w.add("close_date >= $%d", f.From)
	}
	if !f.To.IsZero() {
		w.add("close_date < $%d", f.To)
	}

	query := `SELECT ` + tradeColumns + ` FROM trades` + w.sql() + ` ORDER BY close_date ASC, id ASC`
	args := w.args
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trades, err := collectTrades(rows)
	if err != nil {
		return nil, err
	}

	ptrs := make([]*models.Trade, len(trades))
	for i := range trades {
		ptrs[i] = &trades[i]
	}
	return trades, r.attach(ctx, userID, ptrs)
}

func (r *TradeRepo) Update(ctx context.Context, t *models.Trade) (*models.Trade, error) {
	cats, err := encodeCategories(t.Categories)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE trades
		 SET strategy_id = $1, currency_pair_id = $2, open_date = $3, close_date = $4,
		     status = $5, type = $6, duration = $7, entry_price = $8, exit_price = $9,
		     position_size = $10, market_trend = $11, stop_loss_price = $12,
		     take_profit_price = $13, transaction_cost = $14, reason = $15, comment = $16,
		     categories = $17, profit = $18, updated_at = NOW()
		 WHERE id = $19 AND user_id = $20
		 RETURNING `+tradeColumns,
		t.StrategyID, t.CurrencyPairID, t.OpenDate, t.CloseDate,
		t.Status, t.Type, t.Duration, t.EntryPrice, t.ExitPrice,
		t.PositionSize, t.MarketTrend, t.StopLossPrice,
		t.TakeProfitPrice, t.TransactionCost, t.Reason, t.Comment,
		cats, t.Profit,
		t.ID, t.UserID,
	)
	updated, err := scanTrade(row)
	if err != nil {
		return nil, err
	}
	return updated, r.attach(ctx, updated.UserID, []*models.Trade{updated})
}

func (r *TradeRepo) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM trades WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *TradeRepo) StrategyOutcomes(ctx context.Context, strategyID int64) (int, int, error) {
	var wins, total int
	err := r.pool.QueryRow(ctx,
		`SELECT
			COUNT(CASE WHEN status = $2 THEN 1 END),
			COUNT(*)
		 FROM trades WHERE strategy_id = $1`,
		strategyID, models.TradeStatusWin,
	).Scan(&wins, &total)
	return wins, total, err
}

// attach embeds the owning strategy and currency pair into each trade.
func (r *TradeRepo) attach(ctx context.Context, userID int64, trades []*models.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	strategies, err := r.strategies.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load strategies: %w", err)
	}
	pairs, err := r.pairs.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load currency pairs: %w", err)
	}

	byStrategy := make(map[int64]*models.Strategy, len(strategies))
	for i := range strategies {
		byStrategy[strategies[i].ID] = &strategies[i]
	}
	byPair := make(map[int64]*models.CurrencyPair, len(pairs))
	for i := range pairs {
		byPair[pairs[i].ID] = &pairs[i]
	}

	for _, t := range trades {
		t.Strategy = byStrategy[t.StrategyID]
		t.CurrencyPair = byPair[t.CurrencyPairID]
	}
	return nil
}

func encodeCategories(cats []string) ([]byte, error) {
	if cats == nil {
		cats = []string{}
	}
	b, err := json.Marshal(cats)
	if err != nil {
		return nil, fmt.Errorf("encode categories: %w", err)
	}
	return b, nil
}

// --- scan helpers ---

func scanTrade(row scannable) (*models.Trade, error) {
	var t models.Trade
	var cats []byte
	err := row.Scan(
		&t.ID, &t.UserID, &t.StrategyID, &t.CurrencyPairID, &t.OpenDate, &t.CloseDate,
		&t.Status, &t.Type, &t.Duration, &t.EntryPrice, &t.ExitPrice, &t.PositionSize, &t.MarketTrend,
		&t.StopLossPrice, &t.TakeProfitPrice, &t.TransactionCost, &t.Reason, &t.Comment,
		&cats, &t.Profit, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	if len(cats) > 0 {
		if err := json.Unmarshal(cats, &t.Categories); err != nil {
			return nil, fmt.Errorf("decode categories for trade %d: %w", t.ID, err)
		}
	}
	return &t, nil
}

func collectTrades(rows rowsIter) ([]models.Trade, error) {
	out := []models.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
