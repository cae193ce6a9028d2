// Package pool owns protocol client lifetimes, amortizing handshake cost
// across repeated calls to the same server.
package pool

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/toolforge/mcp-bridge-go/internal/protocol"
)

// DefaultIdleThreshold is how long a pooled client may sit unused before
// lazy eviction closes it.
const DefaultIdleThreshold = 5 * time.Minute

// Factory builds an uninitialized protocol client for an address.
type Factory func(address string) *protocol.Client

// Config carries the pool's dependencies.
type Config struct {
	// Factory builds clients; required.
	Factory Factory

	// IdleThreshold overrides DefaultIdleThreshold when positive.
	IdleThreshold time.Duration

	Logger *slog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Pool owns a collection of protocol clients keyed by normalized server
// address. It creates clients on demand, evicts idle entries lazily on each
// access, and guarantees close-on-removal.
//
// The pool exclusively owns every client it creates; callers must not retain
// a returned client past a single call sequence.
type Pool struct {
	log           *slog.Logger
	idleThreshold time.Duration
	newClient     Factory
	now           func() time.Time

	// group deduplicates concurrent create+handshake per address so that
	// unrelated servers never serialize on a shared creation lock.
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
}

// entry pairs a client with its last-used timestamp.
type entry struct {
	client   *protocol.Client
	lastUsed time.Time
}

// New creates an empty pool.
func New(cfg Config) *Pool {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	threshold := cfg.IdleThreshold
	if threshold <= 0 {
		threshold = DefaultIdleThreshold
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Pool{
		log:           log.With("component", "pool"),
		idleThreshold: threshold,
		newClient:     cfg.Factory,
		now:           now,
		entries:       make(map[string]*entry),
	}
}

// GetOrCreate returns the pooled client for the address, constructing and
// initializing one when absent. Stale entries across the whole pool are
// evicted first. A failed handshake propagates to the caller and leaves no
// pool entry behind.
func (p *Pool) GetOrCreate(ctx context.Context, address string) (*protocol.Client, error) {
	address = protocol.NormalizeAddress(address)

	p.evictIdle()

	if client, ok := p.lookup(address); ok {
		return client, nil
	}

	v, err, _ := p.group.Do(address, func() (any, error) {
		// Re-check: another caller may have pooled the client between the
		// lookup above and entering the singleflight.
		if client, ok := p.lookup(address); ok {
			return client, nil
		}

		client := p.newClient(address)
		if err := client.Initialize(ctx); err != nil {
			_ = client.Close()

			return nil, err
		}

		p.mu.Lock()
		p.entries[address] = &entry{client: client, lastUsed: p.now()}
		p.mu.Unlock()

		p.log.Debug("pooled new MCP client", "server", address)

		return client, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*protocol.Client), nil
}

// lookup returns the pooled client for the address, refreshing its last-used
// timestamp.
func (p *Pool) lookup(address string) (*protocol.Client, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[address]
	if !ok {
		return nil, false
	}

	e.lastUsed = p.now()

	return e.client, true
}

// evictIdle closes and removes every entry whose idle time exceeds the
// threshold. This is a lazy sweep run on each access, not a background
// timer; an address can remain pooled indefinitely when the pool is never
// touched, which is why CloseAll must be invoked on shutdown.
func (p *Pool) evictIdle() {
	cutoff := p.now().Add(-p.idleThreshold)

	p.mu.Lock()
	defer p.mu.Unlock()

	for address, e := range p.entries {
		if e.lastUsed.After(cutoff) {
			continue
		}

		p.log.Info("closing idle MCP client", "server", address)
		p.closeEntry(address, e)
	}
}

// closeEntry closes the client then drops the entry. Close failures are
// logged, never propagated; cleanup must not block callers. Caller must
// hold p.mu.
func (p *Pool) closeEntry(address string, e *entry) {
	if err := e.client.Close(); err != nil {
		p.log.Warn("error closing MCP client", "server", address, "error", err)
	}

	delete(p.entries, address)
}

// Remove closes and removes the client for the address, if pooled.
func (p *Pool) Remove(address string) {
	address = protocol.NormalizeAddress(address)

	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entries[address]; ok {
		p.closeEntry(address, e)
	}
}

// CloseAll closes every pooled client and empties the pool.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for address, e := range p.entries {
		p.closeEntry(address, e)
	}
}

// Contains reports whether a live client is pooled for the address.
func (p *Pool) Contains(address string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.entries[protocol.NormalizeAddress(address)]

	return ok
}

// Len returns the number of pooled clients.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.entries)
}
