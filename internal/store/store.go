// Package store declares the persistence contracts shared by the PostgreSQL
// repositories and the gorm-backed MySQL/SQLite store.
//
// Every lookup of a user-owned record takes the owner's ID; a record owned by
// somebody else is reported as ErrNotFound.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kjannette/trahn-journal/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with existing data")
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, u *models.User) (*models.User, error)
}

type StrategyStore interface {
	Create(ctx context.Context, s *models.Strategy) (*models.Strategy, error)
	Get(ctx context.Context, userID, id int64) (*models.Strategy, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Strategy, error)
	ListAll(ctx context.Context) ([]models.Strategy, error)
	Update(ctx context.Context, s *models.Strategy) (*models.Strategy, error)
	UpdateStats(ctx context.Context, id int64, winRate float64, totalTrades int) error
	// Delete fails with ErrConflict while trades still reference the strategy.
	Delete(ctx context.Context, userID, id int64) error
}

type CurrencyPairStore interface {
	Create(ctx context.Context, p *models.CurrencyPair) (*models.CurrencyPair, error)
	Get(ctx context.Context, userID, id int64) (*models.CurrencyPair, error)
	ListByUser(ctx context.Context, userID int64) ([]models.CurrencyPair, error)
	// Delete fails with ErrConflict while trades still reference the pair.
	Delete(ctx context.Context, userID, id int64) error
}

type TradeStore interface {
	Create(ctx context.Context, t *models.Trade) (*models.Trade, error)
	Get(ctx context.Context, userID, id int64) (*models.Trade, error)
	ListByUser(ctx context.Context, userID int64, f TradeFilter) ([]models.Trade, error)
	Update(ctx context.Context, t *models.Trade) (*models.Trade, error)
	Delete(ctx context.Context, userID, id int64) error
	// StrategyOutcomes counts winning and total trades recorded against a strategy.
	StrategyOutcomes(ctx context.Context, strategyID int64) (wins, total int, err error)
}

// TradeFilter narrows a trade listing. Zero values disable a condition.
// From is inclusive and To exclusive, both compared against the close date.
type TradeFilter struct {
	StrategyID     int64
	CurrencyPairID int64
	Status         string
	From           time.Time
	To             time.Time
	Limit          int
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Store bundles one implementation of every contract.
type Store struct {
	Users         UserStore
	Strategies    StrategyStore
	CurrencyPairs CurrencyPairStore
	Trades        TradeStore
	DB            Pinger
}
