package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjannette/trahn-journal/internal/models"
)

var exportHeader = []string{
	"id", "open_date", "close_date", "strategy", "currency_pair", "type", "status",
	"entry_price", "exit_price", "position_size", "stop_loss", "take_profit",
	"transaction_cost", "profit", "duration_ms", "market_trend", "categories",
	"reason", "comment",
}

// handleExportTrades streams the filtered trades as CSV, honouring the same
// query parameters as the trade list.
func (s *Server) handleExportTrades(w http.ResponseWriter, r *http.Request) {
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

	name := fmt.Sprintf("trades-%s.csv", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	cw.Write(exportHeader)
	for i := range trades {
		cw.Write(exportRow(&trades[i]))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.log.Warn("trade export interrupted",
			zap.String("requestId", requestIDFrom(r.Context())),
			zap.Error(err))
	}
}

func exportRow(t *models.Trade) []string {
	var strategy, pair string
	if t.Strategy != nil {
		strategy = t.Strategy.Name
	}
	if t.CurrencyPair != nil {
		pair = t.CurrencyPair.Symbol
	}
	return []string{
		strconv.FormatInt(t.ID, 10),
		t.OpenDate.UTC().Format(time.RFC3339),
		t.CloseDate.UTC().Format(time.RFC3339),
		strategy,
		pair,
		t.Type,
		t.Status,
		num(t.EntryPrice),
		num(t.ExitPrice),
		num(t.PositionSize),
		optNum(t.StopLossPrice),
		optNum(t.TakeProfitPrice),
		num(t.TransactionCost),
		num(t.Profit),
		strconv.FormatInt(t.Duration, 10),
		t.MarketTrend,
		strings.Join(t.Categories, ";"),
		t.Reason,
		t.Comment,
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optNum(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}
