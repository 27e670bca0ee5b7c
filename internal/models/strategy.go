package models

import (
	"slices"
	"time"
)

var (
	StrategyTypes    = []string{"Scalping", "Swing Trading", "Day Trading", "Range Trading"}
	MarketTypes      = []string{"Forex", "Crypto", "Stocks", "Commodities", "Other"}
	MarketConditions = []string{"Bullish", "Bearish", "Volatile", "Sideways"}
	RiskLevels       = []string{"Low", "Medium", "High"}
	TimeFrames       = []string{"1 Minute", "5 Minutes", "15 Minutes", "1 Hour", "4 Hours", "Daily"}
)

type Strategy struct {
	ID              int64   `json:"id" gorm:"primaryKey"`
	UserID          int64   `json:"userId" gorm:"not null;uniqueIndex:idx_strategies_owner_name,priority:1"`
	Name            string  `json:"name" gorm:"size:191;not null;uniqueIndex:idx_strategies_owner_name,priority:2"`
	Type            string  `json:"type" gorm:"size:32;not null;uniqueIndex:idx_strategies_owner_name,priority:3"`
	Comment         string  `json:"comment,omitempty" gorm:"size:255"`
	Description     string  `json:"description" gorm:"type:text"`
	MarketType      string  `json:"marketType" gorm:"size:32;not null"`
	MarketCondition string  `json:"marketCondition" gorm:"size:32;not null"`
	RiskLevel       string  `json:"riskLevel" gorm:"size:16;not null"`
	TimeFrame       string  `json:"timeFrame,omitempty" gorm:"size:16"`
	WinRate         float64 `json:"winRate"`
	TotalTrades     int     `json:"totalTrades"`

	CreatedAt        time.Time `json:"createdAt"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
}

// OneOf reports whether v is a member of the allowed enum values.
func OneOf(v string, allowed []string) bool {
	return slices.Contains(allowed, v)
}
