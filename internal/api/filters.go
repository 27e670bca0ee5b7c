package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/store"
)

// parseTradeFilter reads the listing filters shared by the trade list, the
// stats endpoints and the export. period ("30d", "2w", "12h") is a lookback
// from now and cannot be combined with from.
func parseTradeFilter(r *http.Request, now time.Time) (store.TradeFilter, error) {
	q := r.URL.Query()
	var f store.TradeFilter

	var err error
	if f.StrategyID, err = queryID(q.Get("strategyId"), "strategyId"); err != nil {
		return f, err
	}
	if f.CurrencyPairID, err = queryID(q.Get("currencyPairId"), "currencyPairId"); err != nil {
		return f, err
	}

	if status := strings.ToLower(q.Get("status")); status != "" {
		if !models.OneOf(status, models.TradeStatuses) {
			return f, fmt.Errorf("status must be one of %s", strings.Join(models.TradeStatuses, ", "))
		}
		f.Status = status
	}

	if from := q.Get("from"); from != "" {
		if !validateDate(from) {
			return f, errors.New("invalid from date (expected YYYY-MM-DD)")
		}
		f.From, _ = time.Parse("2006-01-02", from)
	}
	if to := q.Get("to"); to != "" {
		if !validateDate(to) {
			return f, errors.New("invalid to date (expected YYYY-MM-DD)")
		}
		day, _ := time.Parse("2006-01-02", to)
		f.To = day.AddDate(0, 0, 1)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return f, errors.New("from must not be after to")
	}

	if period := q.Get("period"); period != "" {
		if !f.From.IsZero() {
			return f, errors.New("period cannot be combined with from")
		}
		d, err := str2duration.ParseDuration(period)
		if err != nil || d <= 0 {
			return f, fmt.Errorf("invalid period %q (e.g. 30d, 2w, 12h)", period)
		}
		f.From = now.Add(-d).UTC()
	}

	f.Limit = parseLimit(r, 0)
	return f, nil
}

func queryID(v, name string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}
