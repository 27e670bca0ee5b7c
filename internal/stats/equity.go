package stats

import (
	"time"

	"github.com/kjannette/trahn-journal/internal/models"
)

type EquityPoint struct {
	Date    time.Time `json:"date"`
	TradeID int64     `json:"tradeId,omitempty"`
	Profit  float64   `json:"profit"`
	Balance float64   `json:"balance"`
}

type Drawdown struct {
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

// EquityCurve folds trade results into a running balance in close-date order.
// The first point holds the starting balance at the earliest open date.
func EquityCurve(trades []models.Trade, startingBalance float64) []EquityPoint {
	if len(trades) == 0 {
		return []EquityPoint{}
	}

	ordered := chronological(trades)
	first := ordered[0].OpenDate
	for i := range ordered {
		if ordered[i].OpenDate.Before(first) {
			first = ordered[i].OpenDate
		}
	}

	out := make([]EquityPoint, 0, len(ordered)+1)
	out = append(out, EquityPoint{Date: first, Balance: startingBalance})

	balance := startingBalance
	for i := range ordered {
		t := &ordered[i]
		p := Profit(t)
		balance += p
		out = append(out, EquityPoint{Date: t.CloseDate, TradeID: t.ID, Profit: p, Balance: balance})
	}
	return out
}

// MaxDrawdown is the largest peak-to-trough decline along the curve.
func MaxDrawdown(curve []EquityPoint) Drawdown {
	var dd Drawdown
	if len(curve) == 0 {
		return dd
	}

	peak := curve[0].Balance
	for _, p := range curve {
		if p.Balance > peak {
			peak = p.Balance
		}
		if drop := peak - p.Balance; drop > dd.Amount {
			dd.Amount = drop
			if peak > 0 {
				dd.Percent = drop / peak * 100
			}
		}
	}
	return dd
}

// DrawdownRatio expresses the largest single loss as a percentage of the
// balance held just before that loss. When several trades share the largest
// loss the earliest one counts.
func DrawdownRatio(trades []models.Trade, startingBalance float64) float64 {
	balance := startingBalance
	var worst, ratio float64
	for _, t := range chronological(trades) {
		p := Profit(&t)
		if p < worst {
			worst = p
			ratio = 0
			if balance > 0 {
				ratio = -p / balance * 100
			}
		}
		balance += p
	}
	return ratio
}
