// Package stats derives journal performance figures from recorded trades.
//
// All functions are pure. Win and loss counts follow the status the trader
// recorded; money figures follow the sign of the computed profit. Every ratio
// is guarded so an empty or degenerate journal yields zeros, never NaN or Inf.
package stats

import (
	"cmp"
	"slices"
	"time"

	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/risk"
)

type GeneralStats struct {
	TotalTrades int     `json:"totalTrades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"winRate"`

	NetProfit    float64 `json:"netProfit"`
	GrossProfit  float64 `json:"grossProfit"`
	GrossLoss    float64 `json:"grossLoss"` // <= 0
	AverageWin   float64 `json:"averageWin"`
	AverageLoss  float64 `json:"averageLoss"` // <= 0
	LargestWin   float64 `json:"largestWin"`
	LargestLoss  float64 `json:"largestLoss"` // <= 0
	ProfitFactor float64 `json:"profitFactor"`
	PayoffRatio  float64 `json:"payoffRatio"`

	RiskRewardRatio        float64 `json:"riskRewardRatio"`
	AverageHoldingPeriodMs int64   `json:"averageHoldingPeriodMs"`
	AverageHoldingPeriod   string  `json:"averageHoldingPeriod"`

	DrawdownRatio      float64 `json:"drawdownRatio"`
	MaxDrawdown        float64 `json:"maxDrawdown"`
	MaxDrawdownPercent float64 `json:"maxDrawdownPercent"`

	StartingBalance float64 `json:"startingBalance"`
	EndingBalance   float64 `json:"endingBalance"`
	ReturnPercent   float64 `json:"returnPercent"`
}

// Profit returns the signed result of a trade net of transaction cost.
// A missing position size counts as one unit.
func Profit(t *models.Trade) float64 {
	size := t.PositionSize
	if size <= 0 {
		size = 1
	}

	var gross float64
	if t.Type == models.TradeTypeSell {
		gross = (t.EntryPrice - t.ExitPrice) * size
	} else {
		gross = (t.ExitPrice - t.EntryPrice) * size
	}
	return gross - t.TransactionCost
}

// WinRate returns wins as a percentage of total.
func WinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

func General(trades []models.Trade, startingBalance float64) GeneralStats {
	s := GeneralStats{
		TotalTrades:     len(trades),
		StartingBalance: startingBalance,
		EndingBalance:   startingBalance,
	}

	var winners, losers int
	for i := range trades {
		t := &trades[i]
		switch t.Status {
		case models.TradeStatusWin:
			s.Wins++
		case models.TradeStatusLoss:
			s.Losses++
		}

		p := Profit(t)
		s.NetProfit += p
		switch {
		case p > 0:
			winners++
			s.GrossProfit += p
			s.LargestWin = max(s.LargestWin, p)
		case p < 0:
			losers++
			s.GrossLoss += p
			s.LargestLoss = min(s.LargestLoss, p)
		}
	}

	s.WinRate = WinRate(s.Wins, s.TotalTrades)
	s.AverageWin = safeDiv(s.GrossProfit, float64(winners))
	s.AverageLoss = safeDiv(s.GrossLoss, float64(losers))
	s.ProfitFactor = safeDiv(s.GrossProfit, -s.GrossLoss)
	s.PayoffRatio = safeDiv(s.AverageWin, -s.AverageLoss)
	s.RiskRewardRatio = RiskReward(trades)

	hold := AverageHoldingPeriod(trades)
	s.AverageHoldingPeriodMs = hold.Milliseconds()
	s.AverageHoldingPeriod = hold.Round(time.Second).String()

	s.DrawdownRatio = DrawdownRatio(trades, startingBalance)
	dd := MaxDrawdown(EquityCurve(trades, startingBalance))
	s.MaxDrawdown = dd.Amount
	s.MaxDrawdownPercent = dd.Percent

	s.EndingBalance = startingBalance + s.NetProfit
	if startingBalance > 0 {
		s.ReturnPercent = s.NetProfit / startingBalance * 100
	}
	return s
}

// RiskReward averages the planned reward-to-risk multiple over trades that
// carry both a stop-loss and a take-profit.
func RiskReward(trades []models.Trade) float64 {
	var sum float64
	var n int
	for i := range trades {
		t := &trades[i]
		if r, ok := risk.RewardRisk(t.EntryPrice, t.StopLossPrice, t.TakeProfitPrice); ok {
			sum += r
			n++
		}
	}
	return safeDiv(sum, float64(n))
}

func AverageHoldingPeriod(trades []models.Trade) time.Duration {
	if len(trades) == 0 {
		return 0
	}
	var total time.Duration
	for i := range trades {
		total += trades[i].Holding()
	}
	return total / time.Duration(len(trades))
}

// chronological returns a copy ordered by close date, ties broken by ID.
func chronological(trades []models.Trade) []models.Trade {
	out := slices.Clone(trades)
	slices.SortStableFunc(out, func(a, b models.Trade) int {
		if c := a.CloseDate.Compare(b.CloseDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
