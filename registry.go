package mcpbridge

import (
	"context"

	"github.com/toolforge/mcp-bridge-go/internal/pool"
	"github.com/toolforge/mcp-bridge-go/internal/protocol"
	"github.com/toolforge/mcp-bridge-go/internal/registry"
)

// Registry is the caller-facing façade over the MCP client layer: it tracks
// registered server addresses, aggregates tool listings across servers, and
// routes tool invocations by name.
//
// A Registry owns all protocol clients it creates through an internal pool;
// construct one per process with New and Close it on shutdown. Registries
// are independent: multiple instances in one process never share state.
type Registry struct {
	svc *registry.Service
}

// New constructs a Registry with no registered servers.
func New(opts ...Option) *Registry {
	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	clientCfg := protocol.Config{
		HTTPClient:        options.HTTPClient,
		Logger:            log,
		InitializeTimeout: options.InitializeTimeout,
		ListTimeout:       options.ListTimeout,
		CallTimeout:       options.CallTimeout,
	}

	p := pool.New(pool.Config{
		Factory: func(address string) *protocol.Client {
			return protocol.NewClient(address, clientCfg)
		},
		IdleThreshold: options.IdleThreshold,
		Logger:        log,
	})

	return &Registry{
		svc: registry.New(registry.Config{
			Pool:            p,
			Logger:          log,
			ParallelListing: options.ParallelListing,
		}),
	}
}

// RegisterServer connects to the server at the given base address and
// probes it with a tool listing. It reports success as a boolean rather
// than an error: registration is explicitly a best-effort probe.
// Registering an already-registered address is idempotent and re-validates
// connectivity.
func (r *Registry) RegisterServer(ctx context.Context, address string) bool {
	return r.svc.RegisterServer(ctx, address)
}

// UnregisterServer removes the address from the registered set and reports
// whether it was present. Its pooled connection is not closed eagerly; idle
// eviction reclaims it.
func (r *Registry) UnregisterServer(address string) bool {
	return r.svc.UnregisterServer(address)
}

// AllTools aggregates tool listings across servers.
//
// A nil addresses slice queries every registered server; a non-nil empty
// slice yields no tools; an explicit list queries exactly those servers,
// registered or not. Per-server failures are logged and skipped. Output
// order follows the servers as given or registered, with tools in each
// server's own order.
func (r *Registry) AllTools(ctx context.Context, addresses []string) []Tool {
	return r.svc.AllTools(ctx, addresses)
}

// CallTool invokes a tool by name, searching registered servers in
// registration order for the first whose listing contains the name.
//
// Transport and protocol failures surface as typed errors; a tool that runs
// and reports failure surfaces as *ToolExecutionError; an exhausted search
// yields *ToolNotFoundError.
func (r *Registry) CallTool(ctx context.Context, name string, arguments map[string]any) (any, error) {
	return r.svc.CallTool(ctx, name, arguments, "")
}

// CallToolOn invokes a tool directly on the given server, bypassing the
// search. The server does not need to be registered.
func (r *Registry) CallToolOn(ctx context.Context, address, name string, arguments map[string]any) (any, error) {
	return r.svc.CallTool(ctx, name, arguments, address)
}

// FindTool returns the first registered server's description of the named
// tool, searching in registration order.
func (r *Registry) FindTool(ctx context.Context, name string) (*Tool, bool) {
	return r.svc.FindTool(ctx, name)
}

// Addresses returns the registered server addresses in registration order.
func (r *Registry) Addresses() []string {
	return r.svc.Addresses()
}

// Close tears down every pooled connection and clears the registered set.
// Cleanup never fails: close errors are logged, not returned.
func (r *Registry) Close() {
	r.svc.Close()
}
