package models

import "time"

type CurrencyPair struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	UserID        int64     `json:"userId" gorm:"not null;uniqueIndex:idx_currency_pairs_owner_symbol,priority:1"`
	Symbol        string    `json:"symbol" gorm:"size:32;not null;uniqueIndex:idx_currency_pairs_owner_symbol,priority:2"`
	BaseCurrency  string    `json:"baseCurrency" gorm:"size:16"`
	QuoteCurrency string    `json:"quoteCurrency" gorm:"size:16"`
	Description   string    `json:"description,omitempty" gorm:"size:255"`
	CreatedAt     time.Time `json:"createdAt"`
}
