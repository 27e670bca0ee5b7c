package gormstore

import (
	"context"
	"time"

	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TradeStore struct {
	db *gorm.DB
}

func (s *TradeStore) Create(ctx context.Context, t *models.Trade) (*models.Trade, error) {
	created := *t
	created.ID = 0
	created.Strategy = nil
	created.CurrencyPair = nil
	if created.Categories == nil {
		created.Categories = []string{}
	}

	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&created).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return s.Get(ctx, created.UserID, created.ID)
}

func (s *TradeStore) Get(ctx context.Context, userID, id int64) (*models.Trade, error) {
	var t models.Trade
	err := s.withRelations(ctx).Where("id = ? AND user_id = ?", id, userID).First(&t).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *TradeStore) ListByUser(ctx context.Context, userID int64, f store.TradeFilter) ([]models.Trade, error) {
	q := s.withRelations(ctx).Where("user_id = ?", userID)
	if f.StrategyID > 0 {
		q = q.Where("strategy_id = ?", f.StrategyID)
	}
	if f.CurrencyPairID > 0 {
		q = q.Where("currency_pair_id = ?", f.CurrencyPairID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if !f.From.IsZero() {
		q = q.Where("close_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("close_date < ?", f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	out := []models.Trade{}
	err := q.Order("close_date ASC").Order("id ASC").Find(&out).Error
	return out, err
}

func (s *TradeStore) Update(ctx context.Context, t *models.Trade) (*models.Trade, error) {
	cats := t.Categories
	if cats == nil {
		cats = []string{}
	}

	res := s.db.WithContext(ctx).Model(&models.Trade{}).
		Where("id = ? AND user_id = ?", t.ID, t.UserID).
		Updates(map[string]any{
			"strategy_id":       t.StrategyID,
			"currency_pair_id":  t.CurrencyPairID,
			"open_date":         t.OpenDate,
			"close_date":        t.CloseDate,
			"status":            t.Status,
			"type":              t.Type,
			"duration":          t.Duration,
			"entry_price":       t.EntryPrice,
			"exit_price":        t.ExitPrice,
			"position_size":     t.PositionSize,
			"market_trend":      t.MarketTrend,
			"stop_loss_price":   t.StopLossPrice,
			"take_profit_price": t.TakeProfitPrice,
			"transaction_cost":  t.TransactionCost,
			"reason":            t.Reason,
			"comment":           t.Comment,
			"categories":        cats,
			"profit":            t.Profit,
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.Get(ctx, t.UserID, t.ID)
}

func (s *TradeStore) Delete(ctx context.Context, userID, id int64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Trade{})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *TradeStore) StrategyOutcomes(ctx context.Context, strategyID int64) (int, int, error) {
	var row struct {
		Wins  int
		Total int
	}
	err := s.db.WithContext(ctx).Model(&models.Trade{}).
		Select("COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS wins, COUNT(*) AS total", models.TradeStatusWin).
		Where("strategy_id = ?", strategyID).
		Scan(&row).Error
	return row.Wins, row.Total, err
}

func (s *TradeStore) withRelations(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Strategy").Preload("CurrencyPair")
}
