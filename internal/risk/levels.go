// Package risk validates protective order levels and measures the planned
// reward against the risk a trade was opened with.
package risk

import (
	"fmt"
	"math"

	"github.com/kjannette/trahn-journal/internal/models"
)

// CheckLevels validates stop-loss and take-profit placement for the trade
// direction. A buy must have its stop below and its target above the entry;
// a sell the other way round. Unset levels are not checked.
func CheckLevels(side string, entry float64, stopLoss, takeProfit *float64) error {
	if stopLoss != nil && *stopLoss <= 0 {
		return fmt.Errorf("stop-loss price must be positive, got %.5f", *stopLoss)
	}
	if takeProfit != nil && *takeProfit <= 0 {
		return fmt.Errorf("take-profit price must be positive, got %.5f", *takeProfit)
	}

	switch side {
	case models.TradeTypeBuy:
		if stopLoss != nil && *stopLoss >= entry {
			return fmt.Errorf("buy stop-loss %.5f must be below entry %.5f", *stopLoss, entry)
		}
		if takeProfit != nil && *takeProfit <= entry {
			return fmt.Errorf("buy take-profit %.5f must be above entry %.5f", *takeProfit, entry)
		}
	case models.TradeTypeSell:
		if stopLoss != nil && *stopLoss <= entry {
			return fmt.Errorf("sell stop-loss %.5f must be above entry %.5f", *stopLoss, entry)
		}
		if takeProfit != nil && *takeProfit >= entry {
			return fmt.Errorf("sell take-profit %.5f must be below entry %.5f", *takeProfit, entry)
		}
	default:
		return fmt.Errorf("unknown trade side %q", side)
	}
	return nil
}

// RewardRisk returns the planned reward-to-risk multiple of a trade.
// ok is false when either level is missing or the risk distance is zero.
func RewardRisk(entry float64, stopLoss, takeProfit *float64) (ratio float64, ok bool) {
	if stopLoss == nil || takeProfit == nil {
		return 0, false
	}
	risk := math.Abs(entry - *stopLoss)
	if risk == 0 {
		return 0, false
	}
	return math.Abs(*takeProfit-entry) / risk, true
}
