package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kjannette/trahn-journal/internal/auth"
	"github.com/kjannette/trahn-journal/internal/cache"
	"github.com/kjannette/trahn-journal/internal/events"
	"github.com/kjannette/trahn-journal/internal/gormstore"
	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/scheduler"
	"github.com/kjannette/trahn-journal/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	trades []int64
}

func (n *recordingNotifier) TradeRecorded(_ context.Context, t *models.Trade) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.trades = append(n.trades, t.ID)
	return nil
}

type testEnv struct {
	t      *testing.T
	srv    *Server
	mem    *cache.Memory
	events *recordingPublisher
	notify *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := gormstore.New(testutil.SetupSQLite(t))
	mem := cache.NewMemory()
	log := zap.NewNop()
	env := &testEnv{
		t:      t,
		mem:    mem,
		events: &recordingPublisher{},
		notify: &recordingNotifier{},
	}
	env.srv = NewServer(Deps{
		Store:     st,
		Issuer:    auth.NewIssuer(testSecret, time.Hour),
		Cache:     cache.NewLayer(mem, time.Minute, log),
		Events:    env.events,
		Notifier:  env.notify,
		Refresher: scheduler.NewStrategyRefresher(st.Strategies, st.Trades, scheduler.StrategyRefresherConfig{}, log),
		Log:       log,
	}, Options{
		BcryptCost:             bcrypt.MinCost,
		DefaultStartingBalance: 10000,
	})
	return env
}

type testResponse struct {
	Code    int
	Header  http.Header
	Body    []byte
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (env *testEnv) do(method, path, token string, body any) *testResponse {
	env.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rr, req)

	res := &testResponse{Code: rr.Code, Header: rr.Header(), Body: rr.Body.Bytes()}
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(env.t, json.Unmarshal(res.Body, res), string(res.Body))
	}
	return res
}

func (res *testResponse) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(res.Data, dst), string(res.Body))
}

// signup registers and logs in a user, returning its id and token.
func (env *testEnv) signup(email string) (int64, string) {
	env.t.Helper()
	creds := map[string]string{"email": email, "password": "correct-horse"}

	res := env.do(http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(env.t, http.StatusCreated, res.Code, string(res.Body))

	res = env.do(http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(env.t, http.StatusOK, res.Code, string(res.Body))
	var out authUserJSON
	res.decode(env.t, &out)
	return out.ID, out.Token
}

func (env *testEnv) createStrategy(token, name string) int64 {
	env.t.Helper()
	res := env.do(http.MethodPost, "/api/strategies", token, map[string]string{
		"name":            name,
		"type":            "Day Trading",
		"marketType":      "Forex",
		"marketCondition": "Bullish",
		"riskLevel":       "Medium",
	})
	require.Equal(env.t, http.StatusCreated, res.Code, string(res.Body))
	var st models.Strategy
	res.decode(env.t, &st)
	return st.ID
}

func (env *testEnv) createPair(token, symbol string) int64 {
	env.t.Helper()
	res := env.do(http.MethodPost, "/api/currencies", token, map[string]string{"symbol": symbol})
	require.Equal(env.t, http.StatusCreated, res.Code, string(res.Body))
	var p models.CurrencyPair
	res.decode(env.t, &p)
	return p.ID
}

func tradeBody(strategyID, pairID int64, overrides map[string]any) map[string]any {
	body := map[string]any{
		"strategyId":      strategyID,
		"currencyPairId":  pairID,
		"openDate":        "2024-01-02T10:00:00Z",
		"closeDate":       "2024-01-02T18:00:00Z",
		"status":          "win",
		"type":            "buy",
		"entryPrice":      1.085,
		"exitPrice":       "1.09",
		"positionSize":    10000,
		"stopLossPrice":   1.08,
		"takeProfitPrice": 1.095,
		"transactionCost": 2,
		"reason":          "breakout",
		"tradeCategories": []string{"london", " london ", "trend"},
	}
	for k, v := range overrides {
		body[k] = v
	}
	return body
}

func (env *testEnv) createTrade(token string, body map[string]any) models.Trade {
	env.t.Helper()
	res := env.do(http.MethodPost, "/api/trades", token, body)
	require.Equal(env.t, http.StatusCreated, res.Code, string(res.Body))
	var tr models.Trade
	res.decode(env.t, &tr)
	return tr
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Server is running", string(res.Body))

	res = env.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var h healthResponse
	require.NoError(t, json.Unmarshal(res.Body, &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "connected", h.Services.Database)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "a@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.False(t, res.Success)

	res = env.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "not-an-email", "password": "long-enough"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	id, token := env.signup("Trader@Example.com")
	assert.Positive(t, id)
	assert.NotEmpty(t, token)

	res = env.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "trader@example.com", "password": "another-one"})
	assert.Equal(t, http.StatusConflict, res.Code)

	res = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "trader@example.com", "password": "wrong-horse"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(http.MethodGet, "/api/strategies/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "missing Authorization header", res.Error)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("p@example.com")

	res := env.do(http.MethodPut, "/api/users/me", token, map[string]any{
		"fullName":        "  Pat Trader ",
		"startingBalance": "25000",
		"dateOfBirth":     "1990-05-01",
	})
	require.Equal(t, http.StatusOK, res.Code, string(res.Body))

	res = env.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var u models.User
	res.decode(t, &u)
	assert.Equal(t, "Pat Trader", u.FullName)
	assert.Equal(t, 25000.0, u.StartingBalance)
	require.NotNil(t, u.DateOfBirth)

	res = env.do(http.MethodPut, "/api/users/me", token, map[string]any{"startingBalance": -1})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	res = env.do(http.MethodPut, "/api/users/me", token, map[string]any{"dateOfBirth": future})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestStrategyLifecycle(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("s@example.com")
	_, other := env.signup("o@example.com")

	id := env.createStrategy(token, "Breakout")

	res := env.do(http.MethodPost, "/api/strategies", token, map[string]string{
		"name": "Breakout", "type": "Day Trading", "marketType": "Forex",
		"marketCondition": "Bullish", "riskLevel": "Medium",
	})
	assert.Equal(t, http.StatusConflict, res.Code)

	res = env.do(http.MethodPost, "/api/strategies", token, map[string]string{
		"name": "Bad", "type": "Hodl", "marketType": "Forex",
		"marketCondition": "Bullish", "riskLevel": "Medium",
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = env.do(http.MethodGet, fmt.Sprintf("/api/strategies/%d", id), other, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = env.do(http.MethodPut, fmt.Sprintf("/api/strategies/%d", id), token, map[string]string{"riskLevel": "High"})
	require.Equal(t, http.StatusOK, res.Code, string(res.Body))
	var st models.Strategy
	res.decode(t, &st)
	assert.Equal(t, "High", st.RiskLevel)
	assert.Equal(t, "Breakout", st.Name)

	res = env.do(http.MethodGet, "/api/strategies/user", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var list []models.Strategy
	res.decode(t, &list)
	assert.Len(t, list, 1)

	res = env.do(http.MethodDelete, fmt.Sprintf("/api/strategies/%d", id), token, nil)
	assert.Equal(t, http.StatusOK, res.Code)
	res = env.do(http.MethodGet, fmt.Sprintf("/api/strategies/%d", id), token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	assert.Equal(t, []string{events.StrategyCreated, events.StrategyDeleted}, env.events.types())
}

func TestCurrencyPairs(t *testing.T) {
	env := newTestEnv(t)
	uid, token := env.signup("c@example.com")
	otherID, _ := env.signup("o@example.com")

	id := env.createPair(token, "eur/usd")

	res := env.do(http.MethodGet, fmt.Sprintf("/api/currencies/%d", id), token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var p models.CurrencyPair
	res.decode(t, &p)
	assert.Equal(t, "EUR/USD", p.Symbol)
	assert.Equal(t, "EUR", p.BaseCurrency)
	assert.Equal(t, "USD", p.QuoteCurrency)

	res = env.do(http.MethodPost, "/api/currencies", token, map[string]string{"symbol": "EUR/USD"})
	assert.Equal(t, http.StatusConflict, res.Code)

	res = env.do(http.MethodGet, fmt.Sprintf("/api/currencies/user/%d", uid), token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var list []models.CurrencyPair
	res.decode(t, &list)
	assert.Len(t, list, 1)

	res = env.do(http.MethodGet, fmt.Sprintf("/api/currencies/user/%d", otherID), token, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	sid := env.createStrategy(token, "Carry")
	env.createTrade(token, tradeBody(sid, id, nil))

	res = env.do(http.MethodDelete, fmt.Sprintf("/api/currencies/%d", id), token, nil)
	assert.Equal(t, http.StatusConflict, res.Code)
}

func TestCreateTrade(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("t@example.com")
	sid := env.createStrategy(token, "Breakout")
	pid := env.createPair(token, "EURUSD")

	tr := env.createTrade(token, tradeBody(sid, pid, nil))

	assert.InDelta(t, 48.0, tr.Profit, 1e-6)
	assert.Equal(t, (8 * time.Hour).Milliseconds(), tr.Duration)
	assert.Equal(t, []string{"london", "trend"}, []string(tr.Categories))
	require.NotNil(t, tr.StopLossPrice)
	assert.Equal(t, 1.08, *tr.StopLossPrice)

	res := env.do(http.MethodGet, fmt.Sprintf("/api/strategies/%d", sid), token, nil)
	var st models.Strategy
	res.decode(t, &st)
	assert.Equal(t, 1, st.TotalTrades)
	assert.Equal(t, 100.0, st.WinRate)

	res = env.do(http.MethodGet, fmt.Sprintf("/api/trades/%d", tr.ID), token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var got models.Trade
	res.decode(t, &got)
	require.NotNil(t, got.Strategy)
	require.NotNil(t, got.CurrencyPair)
	assert.Equal(t, "Breakout", got.Strategy.Name)
	assert.Equal(t, "EURUSD", got.CurrencyPair.Symbol)

	env.srv.bg.Wait()
	assert.Equal(t, []int64{tr.ID}, env.notify.trades)
	assert.Contains(t, env.events.types(), events.TradeCreated)
}

func TestCreateTrade_Validation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("v@example.com")
	_, other := env.signup("x@example.com")
	sid := env.createStrategy(token, "Breakout")
	pid := env.createPair(token, "EURUSD")
	foreign := env.createStrategy(other, "Theirs")

	cases := map[string]map[string]any{
		"foreign strategy":   {"strategyId": foreign},
		"missing pair":       {"currencyPairId": 0},
		"close before open":  {"closeDate": "2024-01-01T00:00:00Z"},
		"bad status":         {"status": "breakeven"},
		"bad type":           {"type": "hold"},
		"zero entry":         {"entryPrice": 0},
		"negative cost":      {"transactionCost": -1},
		"stop above entry":   {"stopLossPrice": 1.09},
		"target below entry": {"takeProfitPrice": 1.08},
		"unparseable price":  {"exitPrice": "abc"},
	}
	for name, override := range cases {
		t.Run(name, func(t *testing.T) {
			res := env.do(http.MethodPost, "/api/trades", token, tradeBody(sid, pid, override))
			assert.Equal(t, http.StatusBadRequest, res.Code, string(res.Body))
			assert.False(t, res.Success)
		})
	}
}

func TestUpdateAndDeleteTrade(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("u@example.com")
	first := env.createStrategy(token, "Breakout")
	second := env.createStrategy(token, "Reversal")
	pid := env.createPair(token, "GBP/USD")

	tr := env.createTrade(token, tradeBody(first, pid, nil))

	res := env.do(http.MethodPut, fmt.Sprintf("/api/trades/%d", tr.ID), token, tradeBody(second, pid, map[string]any{
		"type":            "sell",
		"status":          "loss",
		"exitPrice":       1.09,
		"stopLossPrice":   1.095,
		"takeProfitPrice": 1.08,
	}))
	require.Equal(t, http.StatusOK, res.Code, string(res.Body))
	var updated models.Trade
	res.decode(t, &updated)
	assert.Equal(t, second, updated.StrategyID)
	assert.InDelta(t, -52.0, updated.Profit, 1e-6)

	var st models.Strategy
	env.do(http.MethodGet, fmt.Sprintf("/api/strategies/%d", first), token, nil).decode(t, &st)
	assert.Equal(t, 0, st.TotalTrades)
	env.do(http.MethodGet, fmt.Sprintf("/api/strategies/%d", second), token, nil).decode(t, &st)
	assert.Equal(t, 1, st.TotalTrades)
	assert.Equal(t, 0.0, st.WinRate)

	_, other := env.signup("someone@example.com")
	res = env.do(http.MethodDelete, fmt.Sprintf("/api/trades/%d", tr.ID), other, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = env.do(http.MethodDelete, fmt.Sprintf("/api/trades/%d", tr.ID), token, nil)
	assert.Equal(t, http.StatusOK, res.Code)
	res = env.do(http.MethodGet, fmt.Sprintf("/api/trades/%d", tr.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	assert.Equal(t, []string{
		events.StrategyCreated, events.StrategyCreated,
		events.TradeCreated, events.TradeUpdated, events.TradeDeleted,
	}, env.events.types())
}

func TestListTrades_Filters(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("f@example.com")
	sid := env.createStrategy(token, "Breakout")
	pid := env.createPair(token, "EURUSD")

	env.createTrade(token, tradeBody(sid, pid, nil))
	env.createTrade(token, tradeBody(sid, pid, map[string]any{
		"openDate": "2024-02-05T09:00:00Z", "closeDate": "2024-02-05T12:00:00Z",
		"status": "loss", "exitPrice": 1.08, "stopLossPrice": nil, "takeProfitPrice": nil,
	}))

	count := func(query string) int {
		t.Helper()
		res := env.do(http.MethodGet, "/api/trades/user"+query, token, nil)
		require.Equal(t, http.StatusOK, res.Code, string(res.Body))
		var list []models.Trade
		res.decode(t, &list)
		return len(list)
	}

	assert.Equal(t, 2, count(""))
	assert.Equal(t, 1, count("?status=loss"))
	assert.Equal(t, 1, count("?from=2024-02-01"))
	assert.Equal(t, 1, count("?to=2024-01-02"))
	assert.Equal(t, 0, count("?from=2024-03-01"))
	assert.Equal(t, 1, count("?limit=1"))
	assert.Equal(t, 2, count(fmt.Sprintf("?strategyId=%d", sid)))

	for _, q := range []string{"?status=open", "?from=2024-13-01", "?period=30d&from=2024-01-01", "?period=soon", "?strategyId=-1"} {
		res := env.do(http.MethodGet, "/api/trades/user"+q, token, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code, q)
	}
}

func TestTradeStats(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("stats@example.com")
	sid := env.createStrategy(token, "Breakout")
	pid := env.createPair(token, "EURUSD")

	res := env.do(http.MethodGet, "/api/trades/users/trade-stats", token, nil)
	require.Equal(t, http.StatusOK, res.Code, string(res.Body))
	var empty tradeStatsResponse
	res.decode(t, &empty)
	assert.Equal(t, 0, empty.TotalTrades)
	assert.Equal(t, 10000.0, empty.StartingBalance)
	assert.Equal(t, 1, env.mem.Len())

	env.createTrade(token, tradeBody(sid, pid, nil))
	assert.Equal(t, 0, env.mem.Len(), "trade write should invalidate cached stats")

	res = env.do(http.MethodGet, "/api/trades/users/trade-stats", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var got tradeStatsResponse
	res.decode(t, &got)
	assert.Equal(t, 1, got.TotalTrades)
	assert.Equal(t, 1, got.Wins)
	assert.Equal(t, 100.0, got.WinRate)
	assert.InDelta(t, 48.0, got.NetProfit, 1e-6)
	assert.InDelta(t, 10048.0, got.EndingBalance, 1e-6)
	require.Len(t, got.ByStrategy, 1)
	assert.Equal(t, sid, got.ByStrategy[0].StrategyID)

	res = env.do(http.MethodGet, "/api/trades/users/trade-stats?status=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestEquityMonthlyDaily(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("eq@example.com")
	sid := env.createStrategy(token, "Breakout")
	pid := env.createPair(token, "EURUSD")

	env.do(http.MethodPut, "/api/users/me", token, map[string]any{"startingBalance": 5000})
	env.createTrade(token, tradeBody(sid, pid, nil))
	env.createTrade(token, tradeBody(sid, pid, map[string]any{
		"openDate": "2024-02-05T09:00:00Z", "closeDate": "2024-02-05T12:00:00Z",
		"status": "loss", "exitPrice": 1.08, "stopLossPrice": nil, "takeProfitPrice": nil,
	}))

	res := env.do(http.MethodGet, "/api/trades/users/trade-stats/equity", token, nil)
	require.Equal(t, http.StatusOK, res.Code, string(res.Body))
	var eq equityResponse
	res.decode(t, &eq)
	assert.Equal(t, 5000.0, eq.StartingBalance)
	require.Len(t, eq.Points, 3)
	assert.InDelta(t, 5048.0, eq.Points[1].Balance, 1e-6)
	assert.InDelta(t, 4996.0, eq.Points[2].Balance, 1e-6)
	assert.InDelta(t, 52.0, eq.MaxDrawdown.Amount, 1e-6)

	res = env.do(http.MethodGet, "/api/trades/users/trade-stats/monthly", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var months []struct {
		Period string `json:"period"`
		Trades int    `json:"trades"`
	}
	res.decode(t, &months)
	require.Len(t, months, 2)
	assert.Equal(t, "2024-01", months[0].Period)
	assert.Equal(t, "2024-02", months[1].Period)

	res = env.do(http.MethodGet, "/api/trades/users/trade-stats/daily", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var days []struct {
		Period string `json:"period"`
	}
	res.decode(t, &days)
	require.Len(t, days, 2)
	// 18:00 UTC is past the 17:00 rollover, 12:00 is not
	assert.Equal(t, "2024-01-02", days[0].Period)
	assert.Equal(t, "2024-02-04", days[1].Period)
}

func TestTradeStats_IgnoresLimit(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("limit@example.com")
	sid := env.createStrategy(token, "Breakout")
	pid := env.createPair(token, "EURUSD")

	env.createTrade(token, tradeBody(sid, pid, nil))
	env.createTrade(token, tradeBody(sid, pid, map[string]any{
		"openDate": "2024-02-05T09:00:00Z", "closeDate": "2024-02-05T12:00:00Z",
		"status": "loss", "exitPrice": 1.08, "stopLossPrice": nil, "takeProfitPrice": nil,
	}))

	total := func(query string) int {
		t.Helper()
		res := env.do(http.MethodGet, "/api/trades/users/trade-stats"+query, token, nil)
		require.Equal(t, http.StatusOK, res.Code, string(res.Body))
		var got tradeStatsResponse
		res.decode(t, &got)
		return got.TotalTrades
	}

	assert.Equal(t, 2, total("?limit=1"))
	assert.Equal(t, 2, total(""))
	assert.Equal(t, 1, env.mem.Len(), "limit should not split the cache key")
}

func TestExportTrades(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("csv@example.com")
	sid := env.createStrategy(token, "Breakout")
	pid := env.createPair(token, "EUR/USD")
	tr := env.createTrade(token, tradeBody(sid, pid, map[string]any{"comment": "held, then closed"}))

	res := env.do(http.MethodGet, "/api/trades/export", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "text/csv; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "attachment")

	rows, err := csv.NewReader(bytes.NewReader(res.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, fmt.Sprint(tr.ID), rows[1][0])
	assert.Equal(t, "Breakout", rows[1][3])
	assert.Equal(t, "EUR/USD", rows[1][4])
	assert.Equal(t, "london;trend", rows[1][16])
	assert.Equal(t, "held, then closed", rows[1][18])

	res = env.do(http.MethodGet, "/api/trades/export?status=loss", token, nil)
	rows, err = csv.NewReader(bytes.NewReader(res.Body)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
