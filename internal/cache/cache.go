// Package cache keeps computed journal statistics between trade writes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// StatsCache stores opaque payloads per user. Invalidate drops every entry
// written for that user.
type StatsCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, userID int64, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, userID int64) error
}

// Key builds stats:{userID}:{kind}:{variant}.
func Key(userID int64, kind, variant string) string {
	return fmt.Sprintf("stats:%d:%s:%s", userID, kind, variant)
}

// loadTimeout bounds a shared load once it no longer follows any caller.
const loadTimeout = 30 * time.Second

// Layer is cache-aside over a StatsCache. Cache failures are logged and
// treated as misses so a broken backend only costs recomputation.
//
// Each user has a generation that Invalidate bumps. A load started under an
// older generation still answers its callers but is not stored.
type Layer struct {
	cache StatsCache
	ttl   time.Duration
	log   *zap.Logger
	group singleflight.Group

	mu   sync.Mutex
	gens map[int64]uint64
}

func NewLayer(c StatsCache, ttl time.Duration, log *zap.Logger) *Layer {
	return &Layer{cache: c, ttl: ttl, log: log, gens: make(map[int64]uint64)}
}

func (l *Layer) generation(userID int64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[userID]
}

func (l *Layer) Invalidate(ctx context.Context, userID int64) {
	l.mu.Lock()
	l.gens[userID]++
	l.mu.Unlock()

	if err := l.cache.Invalidate(ctx, userID); err != nil {
		l.log.Warn("stats cache invalidate failed", zap.Int64("userId", userID), zap.Error(err))
	}
}

// store writes the payload unless the user's data changed since gen was read.
// The generation check and the write happen under l.mu so an Invalidate
// cannot slip between them.
func (l *Layer) store(ctx context.Context, userID int64, gen uint64, key string, payload []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gens[userID] != gen {
		return
	}
	if err := l.cache.Set(ctx, userID, key, payload, l.ttl); err != nil {
		l.log.Warn("stats cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Fetch returns the cached value under key or computes it with load.
// Concurrent misses for the same key and generation share one load. The
// shared load is detached from the caller that started it, so a caller
// going away only ends its own wait.
func Fetch[T any](ctx context.Context, l *Layer, userID int64, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := lookup[T](ctx, l, key); ok {
		return v, nil
	}

	gen := l.generation(userID)
	flight := fmt.Sprintf("%s#%d", key, gen)
	ch := l.group.DoChan(flight, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		if v, ok := lookup[T](lctx, l, key); ok {
			return v, nil
		}
		fresh, err := load(lctx)
		if err != nil {
			return fresh, err
		}
		payload, err := json.Marshal(fresh)
		if err != nil {
			l.log.Warn("stats cache encode failed", zap.String("key", key), zap.Error(err))
			return fresh, nil
		}
		l.store(lctx, userID, gen, key, payload)
		return fresh, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func lookup[T any](ctx context.Context, l *Layer, key string) (T, bool) {
	var v T
	raw, ok, err := l.cache.Get(ctx, key)
	if err != nil {
		l.log.Warn("stats cache get failed", zap.String("key", key), zap.Error(err))
		return v, false
	}
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		l.log.Warn("stats cache decode failed", zap.String("key", key), zap.Error(err))
		return v, false
	}
	return v, true
}
