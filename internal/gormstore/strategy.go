package gormstore

import (
	"context"
	"time"

	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/store"
	"gorm.io/gorm"
)

type StrategyStore struct {
	db *gorm.DB
}

func (s *StrategyStore) Create(ctx context.Context, st *models.Strategy) (*models.Strategy, error) {
	dup, err := s.duplicate(ctx, st)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, store.ErrConflict
	}

	created := *st
	created.ID = 0
	created.WinRate = 0
	created.TotalTrades = 0
	created.LastModifiedDate = time.Now().UTC()
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		return nil, mapErr(err)
	}
	return &created, nil
}

func (s *StrategyStore) Get(ctx context.Context, userID, id int64) (*models.Strategy, error) {
	var st models.Strategy
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&st).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &st, nil
}

func (s *StrategyStore) ListByUser(ctx context.Context, userID int64) ([]models.Strategy, error) {
	out := []models.Strategy{}
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error
	return out, err
}

func (s *StrategyStore) ListAll(ctx context.Context) ([]models.Strategy, error) {
	out := []models.Strategy{}
	err := s.db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

func (s *StrategyStore) Update(ctx context.Context, st *models.Strategy) (*models.Strategy, error) {
	dup, err := s.duplicate(ctx, st)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, store.ErrConflict
	}

	res := s.db.WithContext(ctx).Model(&models.Strategy{}).
		Where("id = ? AND user_id = ?", st.ID, st.UserID).
		Updates(map[string]any{
			"name":               st.Name,
			"type":               st.Type,
			"comment":            st.Comment,
			"description":        st.Description,
			"market_type":        st.MarketType,
			"market_condition":   st.MarketCondition,
			"risk_level":         st.RiskLevel,
			"time_frame":         st.TimeFrame,
			"last_modified_date": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.Get(ctx, st.UserID, st.ID)
}

func (s *StrategyStore) UpdateStats(ctx context.Context, id int64, winRate float64, totalTrades int) error {
	res := s.db.WithContext(ctx).Model(&models.Strategy{}).Where("id = ?", id).Updates(map[string]any{
		"win_rate":           winRate,
		"total_trades":       totalTrades,
		"last_modified_date": time.Now().UTC(),
	})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *StrategyStore) Delete(ctx context.Context, userID, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned, err := exists(tx.Model(&models.Strategy{}).Where("id = ? AND user_id = ?", id, userID))
		if err != nil {
			return err
		}
		if !owned {
			return store.ErrNotFound
		}

		inUse, err := exists(tx.Model(&models.Trade{}).Where("strategy_id = ?", id))
		if err != nil {
			return err
		}
		if inUse {
			return store.ErrConflict
		}

		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Strategy{})
		if res.Error != nil {
			return mapErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

// duplicate reports whether another strategy of the same owner already uses
// the name and type.
func (s *StrategyStore) duplicate(ctx context.Context, st *models.Strategy) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.Strategy{}).
		Where("user_id = ? AND name = ? AND type = ?", st.UserID, st.Name, st.Type)
	if st.ID > 0 {
		q = q.Where("id <> ?", st.ID)
	}
	return exists(q)
}
