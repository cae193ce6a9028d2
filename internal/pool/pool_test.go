package pool_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolforge/mcp-bridge-go/internal/mcptest"
	"github.com/toolforge/mcp-bridge-go/internal/pool"
	"github.com/toolforge/mcp-bridge-go/internal/protocol"
)

// countingTransport records how often its idle connections are closed, which
// happens exactly once per protocol client close.
type countingTransport struct {
	mu     sync.Mutex
	closes int
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return http.DefaultTransport.RoundTrip(req)
}

func (t *countingTransport) CloseIdleConnections() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closes++
}

func (t *countingTransport) Closes() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closes
}

// fakeClock is an injectable clock for idle-eviction tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(d)
}

func newPool(t *testing.T, cfg pool.Config) (*pool.Pool, *countingTransport) {
	t.Helper()

	transport := &countingTransport{}
	if cfg.Factory == nil {
		cfg.Factory = func(address string) *protocol.Client {
			return protocol.NewClient(address, protocol.Config{
				HTTPClient: &http.Client{Transport: transport},
			})
		}
	}

	return pool.New(cfg), transport
}

func TestGetOrCreate_PoolsAndReuses(t *testing.T) {
	srv := mcptest.New(mcptest.Config{})
	defer srv.Close()

	p, _ := newPool(t, pool.Config{})

	first, err := p.GetOrCreate(context.Background(), srv.URL)
	require.NoError(t, err)

	second, err := p.GetOrCreate(context.Background(), srv.URL)
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, 1, srv.InitializeCalls())
	require.Equal(t, 1, p.Len())
}

func TestGetOrCreate_NormalizesAddress(t *testing.T) {
	srv := mcptest.New(mcptest.Config{})
	defer srv.Close()

	p, _ := newPool(t, pool.Config{})

	first, err := p.GetOrCreate(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	second, err := p.GetOrCreate(context.Background(), srv.URL)
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, 1, p.Len())
}

func TestGetOrCreate_HandshakeFailureNotPooled(t *testing.T) {
	srv := mcptest.New(mcptest.Config{InitializeStatus: http.StatusNotFound})
	defer srv.Close()

	p, _ := newPool(t, pool.Config{})

	_, err := p.GetOrCreate(context.Background(), srv.URL)
	require.Error(t, err)
	require.Equal(t, 0, p.Len())
	require.False(t, p.Contains(srv.URL))
}

func TestIdleEviction(t *testing.T) {
	stale := mcptest.New(mcptest.Config{})
	defer stale.Close()

	fresh := mcptest.New(mcptest.Config{})
	defer fresh.Close()

	clock := &fakeClock{t: time.Now()}

	p, transport := newPool(t, pool.Config{
		IdleThreshold: 5 * time.Minute,
		Now:           clock.Now,
	})

	_, err := p.GetOrCreate(context.Background(), stale.URL)
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)

	// An unrelated access triggers the lazy sweep.
	_, err = p.GetOrCreate(context.Background(), fresh.URL)
	require.NoError(t, err)

	require.False(t, p.Contains(stale.URL))
	require.True(t, p.Contains(fresh.URL))
	require.Equal(t, 1, transport.Closes())

	// Another access must not close the evicted client again.
	_, err = p.GetOrCreate(context.Background(), fresh.URL)
	require.NoError(t, err)
	require.Equal(t, 1, transport.Closes())
}

func TestIdleEviction_FreshEntrySurvives(t *testing.T) {
	srv := mcptest.New(mcptest.Config{})
	defer srv.Close()

	other := mcptest.New(mcptest.Config{})
	defer other.Close()

	clock := &fakeClock{t: time.Now()}

	p, _ := newPool(t, pool.Config{
		IdleThreshold: 5 * time.Minute,
		Now:           clock.Now,
	})

	_, err := p.GetOrCreate(context.Background(), srv.URL)
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)

	_, err = p.GetOrCreate(context.Background(), other.URL)
	require.NoError(t, err)

	require.True(t, p.Contains(srv.URL))
	require.Equal(t, 2, p.Len())
}

func TestAccessRefreshesLastUsed(t *testing.T) {
	srv := mcptest.New(mcptest.Config{})
	defer srv.Close()

	other := mcptest.New(mcptest.Config{})
	defer other.Close()

	clock := &fakeClock{t: time.Now()}

	p, _ := newPool(t, pool.Config{
		IdleThreshold: 5 * time.Minute,
		Now:           clock.Now,
	})

	_, err := p.GetOrCreate(context.Background(), srv.URL)
	require.NoError(t, err)

	// Touch the entry at 4m so it survives the sweep at 8m.
	clock.Advance(4 * time.Minute)
	_, err = p.GetOrCreate(context.Background(), srv.URL)
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	_, err = p.GetOrCreate(context.Background(), other.URL)
	require.NoError(t, err)

	require.True(t, p.Contains(srv.URL))
}

func TestRemove_ClosesClient(t *testing.T) {
	srv := mcptest.New(mcptest.Config{})
	defer srv.Close()

	p, transport := newPool(t, pool.Config{})

	_, err := p.GetOrCreate(context.Background(), srv.URL)
	require.NoError(t, err)

	p.Remove(srv.URL)

	require.False(t, p.Contains(srv.URL))
	require.Equal(t, 1, transport.Closes())

	// Removing an absent address is a no-op.
	p.Remove(srv.URL)
	require.Equal(t, 1, transport.Closes())
}

func TestCloseAll(t *testing.T) {
	a := mcptest.New(mcptest.Config{})
	defer a.Close()

	b := mcptest.New(mcptest.Config{})
	defer b.Close()

	p, transport := newPool(t, pool.Config{})

	_, err := p.GetOrCreate(context.Background(), a.URL)
	require.NoError(t, err)
	_, err = p.GetOrCreate(context.Background(), b.URL)
	require.NoError(t, err)

	p.CloseAll()

	require.Equal(t, 0, p.Len())
	require.Equal(t, 2, transport.Closes())
}

func TestConcurrentGetOrCreate_SingleHandshake(t *testing.T) {
	srv := mcptest.New(mcptest.Config{})
	defer srv.Close()

	p, _ := newPool(t, pool.Config{})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := p.GetOrCreate(context.Background(), srv.URL)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	require.Equal(t, 1, srv.InitializeCalls())
	require.Equal(t, 1, p.Len())
}
