package gormstore

import (
	"context"

	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/store"
	"gorm.io/gorm"
)

type CurrencyPairStore struct {
	db *gorm.DB
}

func (s *CurrencyPairStore) Create(ctx context.Context, p *models.CurrencyPair) (*models.CurrencyPair, error) {
	taken, err := exists(s.db.WithContext(ctx).Model(&models.CurrencyPair{}).
		Where("user_id = ? AND symbol = ?", p.UserID, p.Symbol))
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, store.ErrConflict
	}

	created := *p
	created.ID = 0
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		return nil, mapErr(err)
	}
	return &created, nil
}

func (s *CurrencyPairStore) Get(ctx context.Context, userID, id int64) (*models.CurrencyPair, error) {
	var p models.CurrencyPair
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&p).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *CurrencyPairStore) ListByUser(ctx context.Context, userID int64) ([]models.CurrencyPair, error) {
	out := []models.CurrencyPair{}
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("symbol ASC").Find(&out).Error
	return out, err
}

func (s *CurrencyPairStore) Delete(ctx context.Context, userID, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned, err := exists(tx.Model(&models.CurrencyPair{}).Where("id = ? AND user_id = ?", id, userID))
		if err != nil {
			return err
		}
		if !owned {
			return store.ErrNotFound
		}

		inUse, err := exists(tx.Model(&models.Trade{}).Where("currency_pair_id = ?", id))
		if err != nil {
			return err
		}
		if inUse {
			return store.ErrConflict
		}

		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.CurrencyPair{})
		if res.Error != nil {
			return mapErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}
