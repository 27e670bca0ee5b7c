package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type summary struct {
	Trades int     `json:"trades"`
	Net    float64 `json:"net"`
}

func TestKey(t *testing.T) {
	assert.Equal(t, "stats:7:general:all", Key(7, "general", "all"))
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, 1, "k", []byte("v"), time.Minute))

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(2 * time.Minute)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestMemory_InvalidateIsPerUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, 1, Key(1, "general", "all"), []byte("a"), time.Minute))
	require.NoError(t, m.Set(ctx, 1, Key(1, "monthly", "all"), []byte("b"), time.Minute))
	require.NoError(t, m.Set(ctx, 2, Key(2, "general", "all"), []byte("c"), time.Minute))

	require.NoError(t, m.Invalidate(ctx, 1))

	_, ok, _ := m.Get(ctx, Key(1, "general", "all"))
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, Key(2, "general", "all"))
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestFetch_CachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	layer := NewLayer(NewMemory(), time.Minute, zap.NewNop())

	var loads int
	load := func(context.Context) (summary, error) {
		loads++
		return summary{Trades: loads, Net: 12.5}, nil
	}

	key := Key(1, "general", "all")
	first, err := Fetch(ctx, layer, 1, key, load)
	require.NoError(t, err)
	second, err := Fetch(ctx, layer, 1, key, load)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, first, second)

	layer.Invalidate(ctx, 1)
	third, err := Fetch(ctx, layer, 1, key, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
	assert.Equal(t, 2, third.Trades)
}

func TestFetch_LoadErrorNotCached(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	layer := NewLayer(mem, time.Minute, zap.NewNop())

	boom := errors.New("db down")
	_, err := Fetch(ctx, layer, 1, "k", func(context.Context) (summary, error) {
		return summary{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, mem.Len())
}

func TestFetch_CollapsesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	layer := NewLayer(NewMemory(), time.Minute, zap.NewNop())

	var loads atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (summary, error) {
		loads.Add(1)
		<-release
		return summary{Trades: 3}, nil
	}

	var wg sync.WaitGroup
	results := make([]summary, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(ctx, layer, 1, "k", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	for _, r := range results {
		assert.Equal(t, 3, r.Trades)
	}
}

func TestFetch_WaiterOutlivesCancelledLeader(t *testing.T) {
	layer := NewLayer(NewMemory(), time.Minute, zap.NewNop())

	started := make(chan struct{})
	release := make(chan struct{})
	var loadErr error
	load := func(ctx context.Context) (summary, error) {
		close(started)
		<-release
		loadErr = ctx.Err()
		return summary{Trades: 4}, nil
	}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := Fetch(leaderCtx, layer, 1, "k", load)
		leaderDone <- err
	}()
	<-started

	waiterDone := make(chan summary, 1)
	go func() {
		v, err := Fetch(context.Background(), layer, 1, "k", load)
		assert.NoError(t, err)
		waiterDone <- v
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	assert.ErrorIs(t, <-leaderDone, context.Canceled)

	close(release)
	got := <-waiterDone
	assert.Equal(t, 4, got.Trades)
	assert.NoError(t, loadErr, "shared load must not inherit the leader's cancellation")
}

func TestFetch_InvalidateDuringLoadIsNotStored(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	layer := NewLayer(mem, time.Minute, zap.NewNop())
	key := Key(1, "general", "all")

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan string, 1)
	go func() {
		v, err := Fetch(ctx, layer, 1, key, func(context.Context) (string, error) {
			close(started)
			<-release
			return "old", nil
		})
		assert.NoError(t, err)
		done <- v
	}()
	<-started

	layer.Invalidate(ctx, 1)
	close(release)
	assert.Equal(t, "old", <-done)
	assert.Zero(t, mem.Len())

	got, err := Fetch(ctx, layer, 1, key, func(context.Context) (string, error) {
		return "new", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestFetch_InvalidateIsPerUser(t *testing.T) {
	ctx := context.Background()
	layer := NewLayer(NewMemory(), time.Minute, zap.NewNop())

	_, err := Fetch(ctx, layer, 2, Key(2, "general", "all"), func(context.Context) (string, error) {
		return "two", nil
	})
	require.NoError(t, err)

	layer.Invalidate(ctx, 1)

	got, err := Fetch(ctx, layer, 2, Key(2, "general", "all"), func(context.Context) (string, error) {
		return "recomputed", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "two", got)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("unreachable")
}
func (failingCache) Set(context.Context, int64, string, []byte, time.Duration) error {
	return errors.New("unreachable")
}
func (failingCache) Invalidate(context.Context, int64) error { return errors.New("unreachable") }

func TestFetch_BrokenBackendFallsThrough(t *testing.T) {
	layer := NewLayer(failingCache{}, time.Minute, zap.NewNop())
	v, err := Fetch(context.Background(), layer, 1, "k", func(context.Context) (summary, error) {
		return summary{Trades: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v.Trades)
}

func TestRedis(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping Redis tests")
	}
	ctx := context.Background()
	r, err := NewRedis(ctx, url)
	require.NoError(t, err)
	defer r.Close()

	key := Key(99, "general", "test")
	require.NoError(t, r.Set(ctx, 99, key, []byte(`{"trades":1}`), time.Minute))

	got, ok, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"trades":1}`, string(got))

	require.NoError(t, r.Invalidate(ctx, 99))
	_, ok, err = r.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
