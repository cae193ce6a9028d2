package mcpbridge

import (
	"log/slog"
	"net/http"
	"time"
)

// RegistryOptions holds the configuration assembled from functional options.
type RegistryOptions struct {
	Logger     *slog.Logger
	HTTPClient *http.Client

	IdleThreshold     time.Duration
	InitializeTimeout time.Duration
	ListTimeout       time.Duration
	CallTimeout       time.Duration

	ParallelListing bool
}

// Option configures RegistryOptions using the functional options pattern.
type Option func(*RegistryOptions)

// applyOptions applies functional options to a RegistryOptions struct.
func applyOptions(opts []Option) *RegistryOptions {
	options := &RegistryOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// WithLogger sets the logger for operational output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *RegistryOptions) {
		o.Logger = logger
	}
}

// WithHTTPClient sets the HTTP client shared by all protocol clients.
// Use this to customize transport settings such as proxies or TLS.
func WithHTTPClient(client *http.Client) Option {
	return func(o *RegistryOptions) {
		o.HTTPClient = client
	}
}

// WithIdleThreshold sets how long a pooled connection may sit unused before
// lazy eviction closes it. Default: 5 minutes.
func WithIdleThreshold(d time.Duration) Option {
	return func(o *RegistryOptions) {
		o.IdleThreshold = d
	}
}

// WithInitializeTimeout bounds the MCP handshake request. Default: 10s.
func WithInitializeTimeout(d time.Duration) Option {
	return func(o *RegistryOptions) {
		o.InitializeTimeout = d
	}
}

// WithListTimeout bounds a tool-listing request. Default: 10s.
func WithListTimeout(d time.Duration) Option {
	return func(o *RegistryOptions) {
		o.ListTimeout = d
	}
}

// WithCallTimeout bounds a tool-invocation request. Default: 30s.
func WithCallTimeout(d time.Duration) Option {
	return func(o *RegistryOptions) {
		o.CallTimeout = d
	}
}

// WithParallelListing makes AllTools query servers concurrently instead of
// sequentially. Result ordering and per-server failure isolation are
// preserved.
func WithParallelListing() Option {
	return func(o *RegistryOptions) {
		o.ParallelListing = true
	}
}
