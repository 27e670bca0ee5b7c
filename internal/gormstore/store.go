// Package gormstore implements the journal store on gorm, for MySQL
// deployments and for in-memory SQLite in tests.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/kjannette/trahn-journal/internal/store"
	"gorm.io/gorm"
)

// New wires every gorm-backed store onto one connection.
func New(gdb *gorm.DB) store.Store {
	return store.Store{
		Users:         &UserStore{db: gdb},
		Strategies:    &StrategyStore{db: gdb},
		CurrencyPairs: &CurrencyPairStore{db: gdb},
		Trades:        &TradeStore{db: gdb},
		DB:            pinger{db: gdb},
	}
}

type pinger struct {
	db *gorm.DB
}

func (p pinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	return err
}

// exists reports whether any row matches the query.
func exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
