package stats

import (
	"cmp"
	"slices"
	"time"

	"github.com/kjannette/trahn-journal/internal/models"
)

type PeriodStats struct {
	Period        string  `json:"period"`
	Trades        int     `json:"trades"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"winRate"`
	NetProfit     float64 `json:"netProfit"`
	EndingBalance float64 `json:"endingBalance"`
}

type StrategyStats struct {
	StrategyID   int64   `json:"strategyId"`
	StrategyName string  `json:"strategyName,omitempty"`
	Trades       int     `json:"trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"winRate"`
	NetProfit    float64 `json:"netProfit"`
}

// Monthly groups trades by close month (UTC, YYYY-MM), oldest first.
func Monthly(trades []models.Trade, startingBalance float64) []PeriodStats {
	return bucket(trades, startingBalance, func(t time.Time) string {
		return t.UTC().Format("2006-01")
	})
}

// Daily groups trades by the trading day they closed on.
func Daily(trades []models.Trade, startingBalance float64) []PeriodStats {
	return bucket(trades, startingBalance, TradingDay)
}

func bucket(trades []models.Trade, startingBalance float64, key func(time.Time) string) []PeriodStats {
	out := []PeriodStats{}
	balance := startingBalance
	for _, t := range chronological(trades) {
		k := key(t.CloseDate)
		if len(out) == 0 || out[len(out)-1].Period != k {
			out = append(out, PeriodStats{Period: k})
		}
		cur := &out[len(out)-1]

		p := Profit(&t)
		balance += p
		cur.Trades++
		switch t.Status {
		case models.TradeStatusWin:
			cur.Wins++
		case models.TradeStatusLoss:
			cur.Losses++
		}
		cur.NetProfit += p
		cur.EndingBalance = balance
		cur.WinRate = WinRate(cur.Wins, cur.Trades)
	}
	return out
}

// ByStrategy totals trades per strategy, ordered by strategy ID.
func ByStrategy(trades []models.Trade) []StrategyStats {
	index := map[int64]int{}
	out := []StrategyStats{}
	for i := range trades {
		t := &trades[i]
		pos, ok := index[t.StrategyID]
		if !ok {
			pos = len(out)
			index[t.StrategyID] = pos
			out = append(out, StrategyStats{StrategyID: t.StrategyID})
		}
		s := &out[pos]
		if s.StrategyName == "" && t.Strategy != nil {
			s.StrategyName = t.Strategy.Name
		}
		s.Trades++
		switch t.Status {
		case models.TradeStatusWin:
			s.Wins++
		case models.TradeStatusLoss:
			s.Losses++
		}
		s.NetProfit += Profit(t)
	}

	for i := range out {
		out[i].WinRate = WinRate(out[i].Wins, out[i].Trades)
	}
	slices.SortFunc(out, func(a, b StrategyStats) int {
		return cmp.Compare(a.StrategyID, b.StrategyID)
	})
	return out
}
