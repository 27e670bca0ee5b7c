package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjannette/trahn-journal/internal/stats"
	"github.com/kjannette/trahn-journal/internal/store"
)

type StrategyRefresherConfig struct {
	Interval time.Duration // e.g. 1*time.Hour
	Timeout  time.Duration // per run
}

// StrategyRefresher keeps each strategy's winRate and totalTrades in line with
// the trades recorded against it.
type StrategyRefresher struct {
	strategies store.StrategyStore
	trades     store.TradeStore
	cfg        StrategyRefresherConfig
	log        *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    sync.WaitGroup
}

func NewStrategyRefresher(strategies store.StrategyStore, trades store.TradeStore, cfg StrategyRefresherConfig, log *zap.Logger) *StrategyRefresher {
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &StrategyRefresher{
		strategies: strategies,
		trades:     trades,
		cfg:        cfg,
		log:        log,
	}
}

// Start runs one refresh immediately and then one per interval.
func (r *StrategyRefresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.log.Debug("already running")
		return
	}
	r.running = true
	stopCh := make(chan struct{})
	r.stopCh = stopCh

	r.done.Add(1)
	go func() {
		defer r.done.Done()
		r.runOnce()

		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				r.runOnce()
			}
		}
	}()

	r.log.Info("started", zap.Duration("interval", r.cfg.Interval))
}

// Stop halts the ticker and waits for an in-flight run to finish.
func (r *StrategyRefresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	close(r.stopCh)
	r.running = false
	r.mu.Unlock()

	r.done.Wait()
	r.log.Info("stopped")
}

func (r *StrategyRefresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *StrategyRefresher) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
	defer cancel()

	updated, err := r.RefreshAll(ctx)
	if err != nil {
		r.log.Error("strategy refresh failed", zap.Int("updated", updated), zap.Error(err))
		return
	}
	r.log.Info("strategy refresh complete", zap.Int("updated", updated))
}

// RefreshAll recomputes every strategy and returns how many changed. One
// failing strategy does not stop the others.
func (r *StrategyRefresher) RefreshAll(ctx context.Context) (int, error) {
	all, err := r.strategies.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list strategies: %w", err)
	}

	var updated int
	var errs []error
	for _, s := range all {
		wins, total, err := r.trades.StrategyOutcomes(ctx, s.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("strategy %d: %w", s.ID, err))
			continue
		}
		winRate := stats.WinRate(wins, total)
		if winRate == s.WinRate && total == s.TotalTrades {
			continue
		}
		if err := r.strategies.UpdateStats(ctx, s.ID, winRate, total); err != nil {
			errs = append(errs, fmt.Errorf("strategy %d: %w", s.ID, err))
			continue
		}
		updated++
	}
	return updated, errors.Join(errs...)
}

// RefreshStrategy recomputes a single strategy after one of its trades changed.
func (r *StrategyRefresher) RefreshStrategy(ctx context.Context, strategyID int64) error {
	wins, total, err := r.trades.StrategyOutcomes(ctx, strategyID)
	if err != nil {
		return fmt.Errorf("strategy outcomes: %w", err)
	}
	if err := r.strategies.UpdateStats(ctx, strategyID, stats.WinRate(wins, total), total); err != nil {
		return fmt.Errorf("update strategy stats: %w", err)
	}
	return nil
}
