package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/toolforge/mcp-bridge-go/internal/errors"
)

const (
	// defaultInitializeTimeout bounds the handshake request.
	defaultInitializeTimeout = 10 * time.Second

	// defaultListTimeout bounds a tools/list request.
	defaultListTimeout = 10 * time.Second

	// defaultCallTimeout bounds a tools/call request.
	defaultCallTimeout = 30 * time.Second

	// bodyPreviewLimit caps how much of an unexpected response body is
	// carried into error messages.
	bodyPreviewLimit = 200
)

// Config carries the shared dependencies a Client needs. The zero value is
// usable: a default HTTP client, silent logging, and default timeouts.
type Config struct {
	HTTPClient *http.Client
	Logger     *slog.Logger

	InitializeTimeout time.Duration
	ListTimeout       time.Duration
	CallTimeout       time.Duration
}

// Client speaks the MCP HTTP protocol to exactly one server.
//
// A Client is safe for concurrent use. No ordering is promised between
// concurrent calls; the protocol is request/response with no server-side
// state beyond the session token attached per request.
type Client struct {
	address string
	http    *http.Client
	log     *slog.Logger

	initializeTimeout time.Duration
	listTimeout       time.Duration
	callTimeout       time.Duration

	mu        sync.RWMutex
	sessionID string
	closed    bool
}

// NewClient creates a client for the server at the given base address.
// The address is normalized by stripping trailing separators. The client is
// not initialized; call Initialize before listing or calling tools.
func NewClient(address string, cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	address = NormalizeAddress(address)

	return &Client{
		address:           address,
		http:              httpClient,
		log:               log.With("component", "protocol", "server", address),
		initializeTimeout: orDefault(cfg.InitializeTimeout, defaultInitializeTimeout),
		listTimeout:       orDefault(cfg.ListTimeout, defaultListTimeout),
		callTimeout:       orDefault(cfg.CallTimeout, defaultCallTimeout),
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}

	return d
}

// Address returns the normalized base address this client talks to.
func (c *Client) Address() string {
	return c.address
}

// SessionID returns the session token issued at initialization, or the empty
// string when the server does not track sessions.
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.sessionID
}

// Initialize performs the MCP handshake and stores the returned session
// token, if any. On failure the client remains usable but uninitialized;
// the caller decides whether to retry.
//
// Failures are classified: *errors.ConnectionError for transport-level
// unreachability (including timeouts), *errors.ProtocolError when the
// handshake endpoint is missing or misbehaving, and
// *errors.MalformedResponseError for invalid JSON.
func (c *Client) Initialize(ctx context.Context) error {
	body, err := c.post(ctx, initializePath, initializeRequest{
		ProtocolVersion: Version,
		Capabilities: map[string]any{
			"tools": map[string]any{},
		},
		ClientInfo: clientInfo{Name: clientName, Version: clientVersion},
	}, c.initializeTimeout)
	if err != nil {
		return err
	}

	var resp initializeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &errors.MalformedResponseError{
			Address:  c.address,
			Endpoint: initializePath,
			Err:      err,
		}
	}

	c.mu.Lock()
	c.sessionID = resp.SessionID
	c.mu.Unlock()

	c.log.Debug("initialized MCP session", "session", resp.SessionID != "")

	return nil
}

// ListTools fetches the server's tool listing in server-provided order.
//
// A malformed top-level response is fatal (*errors.MalformedResponseError).
// Individual entries that are malformed or missing a name are skipped with a
// warning; partial results are preferable to total failure for listing.
// Every returned Tool has ServerAddress set to this client's address.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	body, err := c.post(ctx, listToolsPath, map[string]any{}, c.listTimeout)
	if err != nil {
		return nil, err
	}

	var resp listToolsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &errors.MalformedResponseError{
			Address:  c.address,
			Endpoint: listToolsPath,
			Err:      err,
		}
	}

	// The tools field must be a JSON array; a response that omits it or
	// nulls it out is not a listing at all.
	raw := bytes.TrimSpace(resp.Tools)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, &errors.MalformedResponseError{
			Address:  c.address,
			Endpoint: listToolsPath,
			Err:      fmt.Errorf("response has no tools array"),
		}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &errors.MalformedResponseError{
			Address:  c.address,
			Endpoint: listToolsPath,
			Err:      err,
		}
	}

	tools := make([]Tool, 0, len(entries))

	for i, entry := range entries {
		var payload toolPayload
		if err := json.Unmarshal(entry, &payload); err != nil {
			c.log.Warn("skipping malformed tool entry", "index", i, "error", err)
			continue
		}

		if payload.Name == "" {
			c.log.Warn("skipping tool entry without a name", "index", i)
			continue
		}

		tools = append(tools, Tool{
			Name:          payload.Name,
			Description:   payload.Description,
			InputSchema:   payload.InputSchema,
			ServerAddress: c.address,
		})
	}

	c.log.Debug("listed tools", "count", len(tools))

	return tools, nil
}

// CallTool invokes a tool on the server and returns (result, isError).
//
// The error return covers transport and protocol failures only. A tool that
// executes and reports a logical failure returns isError=true with the error
// text as the result, so callers can treat "tool ran but failed" differently
// from "could not reach tool".
//
// Result extraction prefers the first content block's text, parsed as JSON
// when possible with a raw-string fallback. Absent content yields
// (nil, false).
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (any, bool, error) {
	body, err := c.post(ctx, callToolPath, callToolRequest{
		Name:      name,
		Arguments: arguments,
	}, c.callTimeout)
	if err != nil {
		return nil, false, err
	}

	var resp callToolResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false, &errors.MalformedResponseError{
			Address:  c.address,
			Endpoint: callToolPath,
			Err:      err,
		}
	}

	if resp.IsError {
		message := "unknown error"
		if len(resp.Content) > 0 && resp.Content[0].Text != "" {
			message = resp.Content[0].Text
		}

		c.log.Debug("tool reported error", "tool", name)

		return message, true, nil
	}

	if len(resp.Content) == 0 {
		return nil, false, nil
	}

	text := resp.Content[0].Text

	var structured any
	if err := json.Unmarshal([]byte(text), &structured); err == nil {
		return structured, false, nil
	}

	return text, false, nil
}

// Close releases the client's idle connections. Close is idempotent and
// never fails; after the first call all protocol operations return
// errors.ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return nil
	}

	c.closed = true
	c.mu.Unlock()

	c.http.CloseIdleConnections()

	return nil
}

// post sends one protocol request and returns the raw response body with
// transport and HTTP-status failures already classified.
func (c *Client) post(ctx context.Context, path string, payload any, timeout time.Duration) ([]byte, error) {
	c.mu.RLock()
	closed := c.closed
	session := c.sessionID
	c.mu.RUnlock()

	if closed {
		return nil, errors.ErrClientClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request for %s%s: %w", c.address, path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.address+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s%s: %w", c.address, path, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, ulid.Make().String())

	if session != "" {
		req.Header.Set(SessionHeader, session)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		connErr := &errors.ConnectionError{Address: c.address, Err: err}
		c.log.Error("request failed", "endpoint", path, "error", err)

		return nil, connErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.ConnectionError{Address: c.address, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		protoErr := &errors.ProtocolError{
			Address:    c.address,
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Body:       preview(body),
		}
		c.log.Error("unexpected status", "endpoint", path, "status", resp.StatusCode)

		return nil, protoErr
	}

	return body, nil
}

func preview(body []byte) string {
	if len(body) > bodyPreviewLimit {
		body = body[:bodyPreviewLimit]
	}

	return string(body)
}
