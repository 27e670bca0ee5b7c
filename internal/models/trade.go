package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TradeStatusWin  = "win"
	TradeStatusLoss = "loss"

	TradeTypeBuy  = "buy"
	TradeTypeSell = "sell"
)

var (
	TradeStatuses = []string{TradeStatusWin, TradeStatusLoss}
	TradeTypes    = []string{TradeTypeBuy, TradeTypeSell}
)

// Trade is one closed position recorded in the journal.
// Profit is derived from the prices on every write and is never taken from input.
type Trade struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	UserID         int64     `json:"userId" gorm:"not null;index:idx_trades_user_close,priority:1"`
	StrategyID     int64     `json:"strategyId" gorm:"not null;index"`
	CurrencyPairID int64     `json:"currencyPairId" gorm:"not null;index"`
	OpenDate       time.Time `json:"openDate" gorm:"not null"`
	CloseDate      time.Time `json:"closeDate" gorm:"not null;index:idx_trades_user_close,priority:2"`
	Status         string    `json:"status" gorm:"size:8;not null"` // "win" or "loss"
	Type           string    `json:"type" gorm:"size:8;not null"`   // "buy" or "sell"
	Duration       int64     `json:"duration"`                      // milliseconds
	EntryPrice     float64   `json:"entryPrice" gorm:"not null"`
	ExitPrice      float64   `json:"exitPrice" gorm:"not null"`
	PositionSize   float64   `json:"positionSize"`
	MarketTrend    string    `json:"marketTrend" gorm:"size:64"`

	StopLossPrice   *float64 `json:"stopLossPrice,omitempty"`
	TakeProfitPrice *float64 `json:"takeProfitPrice,omitempty"`
	TransactionCost float64  `json:"transactionCost"`

	Reason     string                      `json:"reason" gorm:"type:text"`
	Comment    string                      `json:"comment" gorm:"type:text"`
	Categories datatypes.JSONSlice[string] `json:"categories"`
	Profit     float64                     `json:"profit"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Strategy     *Strategy     `json:"strategy,omitempty" gorm:"foreignKey:StrategyID"`
	CurrencyPair *CurrencyPair `json:"currencyPair,omitempty" gorm:"foreignKey:CurrencyPairID"`
}

// Holding returns how long the position was open. The stored duration wins
// over the dates when it is set.
func (t *Trade) Holding() time.Duration {
	if t.Duration > 0 {
		return time.Duration(t.Duration) * time.Millisecond
	}
	if t.CloseDate.After(t.OpenDate) {
		return t.CloseDate.Sub(t.OpenDate)
	}
	return 0
}
