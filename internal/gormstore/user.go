package gormstore

import (
	"context"

	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/store"
	"gorm.io/gorm"
)

type UserStore struct {
	db *gorm.DB
}

func (s *UserStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	taken, err := exists(s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", u.Email))
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, store.ErrConflict
	}

	created := *u
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		return nil, mapErr(err)
	}
	return &created, nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, u *models.User) (*models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"full_name":        u.FullName,
		"mobile":           u.Mobile,
		"date_of_birth":    u.DateOfBirth,
		"address":          u.Address,
		"starting_balance": u.StartingBalance,
	})
	if res.Error != nil {
		return nil, mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetByID(ctx, u.ID)
}
