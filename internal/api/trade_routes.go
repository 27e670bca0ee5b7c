package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjannette/trahn-journal/internal/events"
	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/risk"
	"github.com/kjannette/trahn-journal/internal/stats"
	"github.com/kjannette/trahn-journal/internal/store"
)

const (
	maxCategories      = 20
	notificationBudget = 30 * time.Second
)

// tradeRequest is the body for create and update. tradeCategories and
// comments are the names older clients send.
type tradeRequest struct {
	StrategyID      int64      `json:"strategyId"`
	CurrencyPairID  int64      `json:"currencyPairId"`
	OpenDate        flexTime   `json:"openDate"`
	CloseDate       flexTime   `json:"closeDate"`
	Status          string     `json:"status"`
	Type            string     `json:"type"`
	Duration        int64      `json:"duration"`
	EntryPrice      flexFloat  `json:"entryPrice"`
	ExitPrice       flexFloat  `json:"exitPrice"`
	PositionSize    flexFloat  `json:"positionSize"`
	MarketTrend     string     `json:"marketTrend"`
	StopLossPrice   *flexFloat `json:"stopLossPrice"`
	TakeProfitPrice *flexFloat `json:"takeProfitPrice"`
	TransactionCost flexFloat  `json:"transactionCost"`
	Reason          string     `json:"reason"`
	Comment         string     `json:"comment"`
	Comments        string     `json:"comments"`
	Categories      []string   `json:"categories"`
	TradeCategories []string   `json:"tradeCategories"`
}

// buildTrade validates a request and derives duration and profit. The
// strategy and currency pair must belong to the user.
func (s *Server) buildTrade(ctx context.Context, userID int64, req *tradeRequest) (*models.Trade, error) {
	if req.StrategyID <= 0 {
		return nil, invalid("strategyId is required")
	}
	if req.CurrencyPairID <= 0 {
		return nil, invalid("currencyPairId is required")
	}

	t := &models.Trade{
		UserID:          userID,
		StrategyID:      req.StrategyID,
		CurrencyPairID:  req.CurrencyPairID,
		OpenDate:        req.OpenDate.Time,
		CloseDate:       req.CloseDate.Time,
		Status:          strings.ToLower(strings.TrimSpace(req.Status)),
		Type:            strings.ToLower(strings.TrimSpace(req.Type)),
		EntryPrice:      float64(req.EntryPrice),
		ExitPrice:       float64(req.ExitPrice),
		PositionSize:    float64(req.PositionSize),
		MarketTrend:     strings.TrimSpace(req.MarketTrend),
		StopLossPrice:   req.StopLossPrice.optional(),
		TakeProfitPrice: req.TakeProfitPrice.optional(),
		TransactionCost: float64(req.TransactionCost),
		Reason:          strings.TrimSpace(req.Reason),
		Comment:         strings.TrimSpace(req.Comment),
	}
	if t.Comment == "" {
		t.Comment = strings.TrimSpace(req.Comments)
	}
	cats := req.Categories
	if cats == nil {
		cats = req.TradeCategories
	}
	t.Categories = cleanCategories(cats)

	switch {
	case t.OpenDate.IsZero() || t.CloseDate.IsZero():
		return nil, invalid("openDate and closeDate are required")
	case t.CloseDate.Before(t.OpenDate):
		return nil, invalid("closeDate cannot be before openDate")
	case !models.OneOf(t.Status, models.TradeStatuses):
		return nil, invalid("status must be one of %s", strings.Join(models.TradeStatuses, ", "))
	case !models.OneOf(t.Type, models.TradeTypes):
		return nil, invalid("type must be one of %s", strings.Join(models.TradeTypes, ", "))
	case t.EntryPrice <= 0 || t.ExitPrice <= 0:
		return nil, invalid("entryPrice and exitPrice must be positive")
	case t.PositionSize < 0:
		return nil, invalid("positionSize cannot be negative")
	case t.TransactionCost < 0:
		return nil, invalid("transactionCost cannot be negative")
	case req.Duration < 0:
		return nil, invalid("duration cannot be negative")
	case len(t.Categories) > maxCategories:
		return nil, invalid("at most %d categories are allowed", maxCategories)
	}
	if err := risk.CheckLevels(t.Type, t.EntryPrice, t.StopLossPrice, t.TakeProfitPrice); err != nil {
		return nil, invalid("%v", err)
	}

	if _, err := s.store.Strategies.Get(ctx, userID, t.StrategyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalid("strategy %d not found", t.StrategyID)
		}
		return nil, err
	}
	if _, err := s.store.CurrencyPairs.Get(ctx, userID, t.CurrencyPairID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalid("currency pair %d not found", t.CurrencyPairID)
		}
		return nil, err
	}

	if t.PositionSize == 0 {
		t.PositionSize = 1
	}
	t.Duration = req.Duration
	if t.Duration == 0 {
		t.Duration = t.CloseDate.Sub(t.OpenDate).Milliseconds()
	}
	t.Profit = stats.Profit(t)
	return t, nil
}

// cleanCategories trims, drops empties and removes duplicates, keeping order.
func cleanCategories(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	claims := userFrom(r.Context())

	var req tradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.buildTrade(r.Context(), claims.ID, &req)
	if err != nil {
		s.writeTradeError(w, r, err)
		return
	}

	created, err := s.store.Trades.Create(r.Context(), t)
	if err != nil {
		s.writeStoreError(w, r, err, "trade")
		return
	}

	s.afterTradeWrite(r.Context(), claims.ID, events.New(events.TradeCreated, claims.ID, created.ID, created), created.StrategyID)
	s.notifyTrade(created)

	writeData(w, http.StatusCreated, "Trade created successfully.", created)
}

// handleListTrades returns the user's trades oldest first. A limit keeps the
// earliest N by close date.
func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	claims := userFrom(r.Context())

	f, err := parseTradeFilter(r, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trades, err := s.store.Trades.ListByUser(r.Context(), claims.ID, f)
	if err != nil {
		s.writeStoreError(w, r, err, "trade")
		return
	}
	writeData(w, http.StatusOK, "Trades retrieved successfully.", trades)
}

func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid trade id")
		return
	}
	t, err := s.store.Trades.Get(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		s.writeStoreError(w, r, err, "trade")
		return
	}
	writeData(w, http.StatusOK, "Trade retrieved successfully.", t)
}

// handleUpdateTrade replaces the trade with the request body, validated the
// same way as on create.
func (s *Server) handleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	claims := userFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid trade id")
		return
	}

	var req tradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := s.store.Trades.Get(r.Context(), claims.ID, id)
	if err != nil {
		s.writeStoreError(w, r, err, "trade")
		return
	}

	t, err := s.buildTrade(r.Context(), claims.ID, &req)
	if err != nil {
		s.writeTradeError(w, r, err)
		return
	}
	t.ID = id

	updated, err := s.store.Trades.Update(r.Context(), t)
	if err != nil {
		s.writeStoreError(w, r, err, "trade")
		return
	}

	s.afterTradeWrite(r.Context(), claims.ID, events.New(events.TradeUpdated, claims.ID, id, updated),
		existing.StrategyID, updated.StrategyID)

	writeData(w, http.StatusOK, "Trade updated successfully.", updated)
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	claims := userFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid trade id")
		return
	}

	existing, err := s.store.Trades.Get(r.Context(), claims.ID, id)
	if err != nil {
		s.writeStoreError(w, r, err, "trade")
		return
	}
	if err := s.store.Trades.Delete(r.Context(), claims.ID, id); err != nil {
		s.writeStoreError(w, r, err, "trade")
		return
	}

	s.afterTradeWrite(r.Context(), claims.ID, events.New(events.TradeDeleted, claims.ID, id, nil), existing.StrategyID)

	writeData(w, http.StatusOK, "Trade deleted successfully.", nil)
}

func (s *Server) writeTradeError(w http.ResponseWriter, r *http.Request, err error) {
	if isValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeStoreError(w, r, err, "trade")
}

// afterTradeWrite refreshes the affected strategies' stats, drops the user's
// cached stats and emits the event. None of these fail the request.
func (s *Server) afterTradeWrite(ctx context.Context, userID int64, e events.Event, strategyIDs ...int64) {
	if s.refresher != nil {
		seen := map[int64]bool{}
		for _, id := range strategyIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if err := s.refresher.RefreshStrategy(ctx, id); err != nil {
				s.log.Warn("strategy stats refresh failed",
					zap.String("requestId", requestIDFrom(ctx)),
					zap.Int64("strategyId", id),
					zap.Error(err))
			}
		}
	}
	s.cache.Invalidate(ctx, userID)
	s.publish(ctx, e)
}

// notifyTrade delivers the webhook message in the background so a slow
// webhook never delays the response.
func (s *Server) notifyTrade(t *models.Trade) {
	if s.notify == nil {
		return
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notificationBudget)
		defer cancel()
		if err := s.notify.TradeRecorded(ctx, t); err != nil {
			s.log.Warn("trade notification failed", zap.Int64("tradeId", t.ID), zap.Error(err))
		}
	}()
}
