package api

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjannette/trahn-journal/internal/auth"
	"github.com/kjannette/trahn-journal/internal/cache"
	"github.com/kjannette/trahn-journal/internal/events"
	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/store"
)

const maxQueryLimit = 1000

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Notifier announces recorded trades.
type Notifier interface {
	TradeRecorded(ctx context.Context, t *models.Trade) error
}

// StrategyRefresher recomputes a strategy's win rate and trade count.
type StrategyRefresher interface {
	RefreshStrategy(ctx context.Context, strategyID int64) error
}

type Deps struct {
	Store     store.Store
	Issuer    *auth.Issuer
	Cache     *cache.Layer
	Events    events.Publisher
	Notifier  Notifier
	Refresher StrategyRefresher
	Log       *zap.Logger
}

type Options struct {
	Port                   int
	CORSAllowOrigin        string
	BcryptCost             int
	DefaultStartingBalance float64
	AuthRateLimit          float64 // requests per second per client IP
	AuthRateBurst          int
}

type Server struct {
	store     store.Store
	issuer    *auth.Issuer
	cache     *cache.Layer
	events    events.Publisher
	notify    Notifier
	refresher StrategyRefresher
	log       *zap.Logger
	opts      Options

	limiter    *ipLimiter
	handler    http.Handler
	httpServer *http.Server

	// background notification deliveries, drained on shutdown
	bg sync.WaitGroup
}

func NewServer(d Deps, o Options) *Server {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Cache == nil {
		d.Cache = cache.NewLayer(cache.NewMemory(), 5*time.Minute, d.Log)
	}

	s := &Server{
		store:     d.Store,
		issuer:    d.Issuer,
		cache:     d.Cache,
		events:    d.Events,
		notify:    d.Notifier,
		refresher: d.Refresher,
		log:       d.Log,
		opts:      o,
		limiter:   newIPLimiter(o.AuthRateLimit, o.AuthRateBurst),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	// User routes
	mux.HandleFunc("GET /api/users/me", s.handleGetProfile)
	mux.HandleFunc("PUT /api/users/me", s.handleUpdateProfile)

	// Strategy routes
	mux.HandleFunc("POST /api/strategies", s.handleCreateStrategy)
	mux.HandleFunc("GET /api/strategies/user", s.handleListStrategies)
	mux.HandleFunc("GET /api/strategies/{id}", s.handleGetStrategy)
	mux.HandleFunc("PUT /api/strategies/{id}", s.handleUpdateStrategy)
	mux.HandleFunc("DELETE /api/strategies/{id}", s.handleDeleteStrategy)

	// Currency pair routes
	mux.HandleFunc("POST /api/currencies", s.handleCreateCurrencyPair)
	mux.HandleFunc("GET /api/currencies/{id}", s.handleGetCurrencyPair)
	mux.HandleFunc("GET /api/currencies/user/{userId}", s.handleListCurrencyPairs)
	mux.HandleFunc("DELETE /api/currencies/{id}", s.handleDeleteCurrencyPair)

	// Trade routes
	mux.HandleFunc("POST /api/trades", s.handleCreateTrade)
	mux.HandleFunc("GET /api/trades/user", s.handleListTrades)
	mux.HandleFunc("GET /api/trades/export", s.handleExportTrades)
	mux.HandleFunc("GET /api/trades/{id}", s.handleGetTrade)
	mux.HandleFunc("PUT /api/trades/{id}", s.handleUpdateTrade)
	mux.HandleFunc("DELETE /api/trades/{id}", s.handleDeleteTrade)

	// Stats routes
	mux.HandleFunc("GET /api/trades/users/trade-stats", s.handleTradeStats)
	mux.HandleFunc("GET /api/trades/users/trade-stats/equity", s.handleEquityCurve)
	mux.HandleFunc("GET /api/trades/users/trade-stats/monthly", s.handleMonthlyStats)
	mux.HandleFunc("GET /api/trades/users/trade-stats/daily", s.handleDailyStats)

	var h http.Handler = mux
	h = s.rateLimitMiddleware(h)
	h = s.authMiddleware(h)
	h = corsMiddleware(h, o.CORSAllowOrigin)
	h = s.accessLogMiddleware(h)
	h = requestIDMiddleware(h)
	s.handler = h

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", o.Port),
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler exposes the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start() error {
	s.log.Info("REST API server started", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight requests and
// pending notifications.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.bg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("shutdown before pending notifications finished")
	}
	return err
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Server is running"))
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
