package mcpbridge

import "github.com/toolforge/mcp-bridge-go/internal/errors"

// Re-export error types from internal package

// ConnectionError indicates a server was unreachable at the transport level.
type ConnectionError = errors.ConnectionError

// ProtocolError indicates a server answered but is not MCP-compliant or
// returned an unexpected status.
type ProtocolError = errors.ProtocolError

// MalformedResponseError indicates a structurally invalid response payload.
type MalformedResponseError = errors.MalformedResponseError

// ToolNotFoundError indicates no registered server exposes the tool name.
type ToolNotFoundError = errors.ToolNotFoundError

// ToolExecutionError indicates a tool ran and reported failure.
type ToolExecutionError = errors.ToolExecutionError

// BridgeError is the base interface for all errors produced by this module.
type BridgeError = errors.BridgeError

// Re-export sentinel errors from internal package.
var (
	// ErrClientClosed indicates a client has been closed and cannot be reused.
	ErrClientClosed = errors.ErrClientClosed
)
