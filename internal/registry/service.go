// Package registry provides the caller-facing MCP service: server
// bookkeeping, cross-server tool aggregation, and name-based invocation
// routing.
package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/toolforge/mcp-bridge-go/internal/errors"
	"github.com/toolforge/mcp-bridge-go/internal/pool"
	"github.com/toolforge/mcp-bridge-go/internal/protocol"
)

// Config carries the service's dependencies.
type Config struct {
	// Pool owns all protocol clients; required.
	Pool *pool.Pool

	Logger *slog.Logger

	// ParallelListing fans AllTools fetches out across servers instead of
	// querying them sequentially. Ordering and per-server failure isolation
	// are preserved either way.
	ParallelListing bool
}

// Service tracks registered MCP server addresses and routes tool listing and
// invocation across them. Construct one per process (or per test) with New;
// there is no package-level instance.
type Service struct {
	log      *slog.Logger
	pool     *pool.Pool
	parallel bool

	mu        sync.RWMutex
	addresses []string
}

// New creates a service with no registered servers.
func New(cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		log:      log.With("component", "registry"),
		pool:     cfg.Pool,
		parallel: cfg.ParallelListing,
	}
}

// RegisterServer connects to the server and probes it with a tool listing.
// On success the address joins the registered set; registering an address
// twice is idempotent and re-validates connectivity. Failure is a
// recoverable, reportable outcome: it is logged and returned as false,
// never as an error.
func (s *Service) RegisterServer(ctx context.Context, address string) bool {
	address = protocol.NormalizeAddress(address)

	client, err := s.pool.GetOrCreate(ctx, address)
	if err != nil {
		s.log.Error("failed to register MCP server", "server", address, "error", err)

		return false
	}

	tools, err := client.ListTools(ctx)
	if err != nil {
		s.log.Error("failed to register MCP server", "server", address, "error", err)

		return false
	}

	s.mu.Lock()
	if !slices.Contains(s.addresses, address) {
		s.addresses = append(s.addresses, address)
	}
	s.mu.Unlock()

	s.log.Info("registered MCP server", "server", address, "tools", len(tools))

	return true
}

// UnregisterServer removes the address from the registered set and reports
// whether it was present. The pooled client is left alone; idle eviction
// reclaims it later.
func (s *Service) UnregisterServer(address string) bool {
	address = protocol.NormalizeAddress(address)

	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.Index(s.addresses, address)
	if i < 0 {
		return false
	}

	s.addresses = slices.Delete(s.addresses, i, i+1)
	s.log.Info("unregistered MCP server", "server", address)

	return true
}

// Addresses returns a copy of the registered addresses in registration
// order.
func (s *Service) Addresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.addresses)
}

// AllTools aggregates tool listings. A nil addresses slice queries every
// registered server; an explicit empty slice yields no tools; an explicit
// list queries exactly those servers, registered or not. One server's
// failure is logged and skipped, never aborting the others. Output order:
// servers as given or registered, tools within a server in server order.
func (s *Service) AllTools(ctx context.Context, addresses []string) []protocol.Tool {
	var targets []string
	if addresses == nil {
		targets = s.Addresses()
	} else {
		targets = make([]string, len(addresses))
		for i, addr := range addresses {
			targets[i] = protocol.NormalizeAddress(addr)
		}
	}

	if s.parallel {
		return s.allToolsParallel(ctx, targets)
	}

	var all []protocol.Tool

	for _, address := range targets {
		tools, err := s.fetchTools(ctx, address)
		if err != nil {
			s.log.Error("failed to fetch tools", "server", address, "error", err)
			continue
		}

		all = append(all, tools...)
	}

	return all
}

// allToolsParallel fans the per-server fetches out and reassembles results
// in input order. Failures stay isolated per server exactly as in the
// sequential path.
func (s *Service) allToolsParallel(ctx context.Context, targets []string) []protocol.Tool {
	results := make([][]protocol.Tool, len(targets))

	var g errgroup.Group

	for i, address := range targets {
		g.Go(func() error {
			tools, err := s.fetchTools(ctx, address)
			if err != nil {
				s.log.Error("failed to fetch tools", "server", address, "error", err)

				return nil
			}

			results[i] = tools

			return nil
		})
	}

	_ = g.Wait()

	var all []protocol.Tool
	for _, tools := range results {
		all = append(all, tools...)
	}

	return all
}

func (s *Service) fetchTools(ctx context.Context, address string) ([]protocol.Tool, error) {
	client, err := s.pool.GetOrCreate(ctx, address)
	if err != nil {
		return nil, err
	}

	return client.ListTools(ctx)
}

// CallTool invokes a tool by name. When address is non-empty the call goes
// directly to that server and its transport or protocol failures propagate.
// Otherwise registered servers are searched in registration order for the
// first whose listing contains the name; listing failures during the search
// are logged and skipped. Exhausting the search yields
// *errors.ToolNotFoundError.
//
// A tool that runs and reports failure surfaces here as
// *errors.ToolExecutionError: this is the last layer before an
// application-level caller expecting a single success/failure outcome.
func (s *Service) CallTool(ctx context.Context, name string, arguments map[string]any, address string) (any, error) {
	target := protocol.NormalizeAddress(address)

	if target == "" {
		found, err := s.findServer(ctx, name)
		if err != nil {
			return nil, err
		}

		target = found
	}

	client, err := s.pool.GetOrCreate(ctx, target)
	if err != nil {
		return nil, err
	}

	result, isError, err := client.CallTool(ctx, name, arguments)
	if err != nil {
		return nil, err
	}

	if isError {
		return nil, &errors.ToolExecutionError{
			Name:    name,
			Address: target,
			Message: fmt.Sprint(result),
		}
	}

	return result, nil
}

// findServer locates the first registered server whose listing contains the
// tool name.
func (s *Service) findServer(ctx context.Context, name string) (string, error) {
	for _, address := range s.Addresses() {
		tools, err := s.fetchTools(ctx, address)
		if err != nil {
			s.log.Error("failed to check tools", "server", address, "error", err)
			continue
		}

		if slices.ContainsFunc(tools, func(t protocol.Tool) bool { return t.Name == name }) {
			return address, nil
		}
	}

	return "", &errors.ToolNotFoundError{Name: name}
}

// FindTool returns the first registered server's description of the named
// tool, searching in registration order. Listing failures are skipped.
func (s *Service) FindTool(ctx context.Context, name string) (*protocol.Tool, bool) {
	for _, address := range s.Addresses() {
		tools, err := s.fetchTools(ctx, address)
		if err != nil {
			s.log.Error("failed to fetch tools", "server", address, "error", err)
			continue
		}

		for _, tool := range tools {
			if tool.Name == name {
				return &tool, true
			}
		}
	}

	return nil, false
}

// Close tears down every pooled client and clears the registered set.
func (s *Service) Close() {
	s.pool.CloseAll()

	s.mu.Lock()
	s.addresses = nil
	s.mu.Unlock()
}
