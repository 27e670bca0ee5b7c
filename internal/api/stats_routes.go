package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/kjannette/trahn-journal/internal/cache"
	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/stats"
	"github.com/kjannette/trahn-journal/internal/store"
)

type tradeStatsResponse struct {
	stats.GeneralStats
	ByStrategy []stats.StrategyStats `json:"byStrategy"`
}

type equityResponse struct {
	StartingBalance float64             `json:"startingBalance"`
	Points          []stats.EquityPoint `json:"points"`
	MaxDrawdown     stats.Drawdown      `json:"maxDrawdown"`
}

func (s *Server) handleTradeStats(w http.ResponseWriter, r *http.Request) {
	s.serveStats(w, r, "general", func(trades []models.Trade, balance float64) any {
		return tradeStatsResponse{
			GeneralStats: stats.General(trades, balance),
			ByStrategy:   stats.ByStrategy(trades),
		}
	}, "Trade statistics retrieved successfully.")
}

func (s *Server) handleEquityCurve(w http.ResponseWriter, r *http.Request) {
	s.serveStats(w, r, "equity", func(trades []models.Trade, balance float64) any {
		curve := stats.EquityCurve(trades, balance)
		return equityResponse{
			StartingBalance: balance,
			Points:          curve,
			MaxDrawdown:     stats.MaxDrawdown(curve),
		}
	}, "Equity curve retrieved successfully.")
}

func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	s.serveStats(w, r, "monthly", func(trades []models.Trade, balance float64) any {
		return stats.Monthly(trades, balance)
	}, "Monthly statistics retrieved successfully.")
}

func (s *Server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	s.serveStats(w, r, "daily", func(trades []models.Trade, balance float64) any {
		return stats.Daily(trades, balance)
	}, "Daily statistics retrieved successfully.")
}

// serveStats loads the filtered trades and the user's starting balance,
// applies compute, and caches the encoded result per query string until
// the next trade write for the user. Aggregates always cover every trade
// matching the filter, so limit is ignored here.
func (s *Server) serveStats(w http.ResponseWriter, r *http.Request, kind string,
	compute func([]models.Trade, float64) any, msg string) {
	claims := userFrom(r.Context())

	f, err := parseTradeFilter(r, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.Limit = 0

	q := r.URL.Query()
	q.Del("limit")
	key := cache.Key(claims.ID, kind, q.Encode())
	payload, err := cache.Fetch(r.Context(), s.cache, claims.ID, key, func(ctx context.Context) (json.RawMessage, error) {
		trades, balance, err := s.statsInput(ctx, claims.ID, f)
		if err != nil {
			return nil, err
		}
		return json.Marshal(compute(trades, balance))
	})
	if err != nil {
		s.writeStoreError(w, r, err, "user")
		return
	}
	writeData(w, http.StatusOK, msg, payload)
}

func (s *Server) statsInput(ctx context.Context, userID int64, f store.TradeFilter) ([]models.Trade, float64, error) {
	u, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	trades, err := s.store.Trades.ListByUser(ctx, userID, f)
	if err != nil {
		return nil, 0, err
	}
	return trades, s.startingBalance(u), nil
}

// startingBalance falls back to the configured default when the user has
// not recorded one.
func (s *Server) startingBalance(u *models.User) float64 {
	if u.StartingBalance > 0 {
		return u.StartingBalance
	}
	return s.opts.DefaultStartingBalance
}
