package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/trahn-journal/internal/store"
)

// NewStore wires every PostgreSQL repository onto one pool.
func NewStore(pool *pgxpool.Pool) store.Store {
	return store.Store{
		Users:         NewUserRepo(pool),
		Strategies:    NewStrategyRepo(pool),
		CurrencyPairs: NewCurrencyPairRepo(pool),
		Trades:        NewTradeRepo(pool),
		DB:            pool,
	}
}
