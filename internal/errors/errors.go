package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// BridgeError is the base interface for all errors produced by this module.
type BridgeError interface {
	error
	IsBridgeError() bool
}

// Compile-time verification that all error types implement BridgeError.
var (
	_ BridgeError = (*ConnectionError)(nil)
	_ BridgeError = (*ProtocolError)(nil)
	_ BridgeError = (*MalformedResponseError)(nil)
	_ BridgeError = (*ToolNotFoundError)(nil)
	_ BridgeError = (*ToolExecutionError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.New("client closed")
)

// ConnectionError indicates the server was unreachable at the transport
// level. Request timeouts are classified as connection errors; retrying is
// the caller's decision.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to MCP server at %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ConnectionError) IsBridgeError() bool { return true }

// ProtocolError indicates the server answered but did not behave like a
// conforming MCP server: the endpoint is missing (404), rejects POST (405),
// or returned an unexpected status.
type ProtocolError struct {
	Address    string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	switch e.StatusCode {
	case http.StatusNotFound:
		return fmt.Sprintf(
			"MCP server at %s does not expose the required %q endpoint; server is not MCP-compliant",
			e.Address, e.Endpoint,
		)
	case http.StatusMethodNotAllowed:
		return fmt.Sprintf(
			"MCP server at %s does not accept POST requests at %q; server is not MCP-compliant",
			e.Address, e.Endpoint,
		)
	default:
		return fmt.Sprintf(
			"MCP server at %s returned HTTP %d for %q: %s",
			e.Address, e.StatusCode, e.Endpoint, e.Body,
		)
	}
}

// Incompatible reports whether the failure marks the server as not speaking
// the protocol at all, as opposed to an unexpected status on a single call.
func (e *ProtocolError) Incompatible() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusMethodNotAllowed
}

// IsBridgeError implements BridgeError.
func (e *ProtocolError) IsBridgeError() bool { return true }

// MalformedResponseError indicates the server returned a payload that is not
// structurally valid where a valid structure was required.
type MalformedResponseError struct {
	Address  string
	Endpoint string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf(
		"MCP server at %s returned an invalid response for %q: %v",
		e.Address, e.Endpoint, e.Err,
	)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *MalformedResponseError) IsBridgeError() bool { return true }

// ToolNotFoundError indicates no registered server exposes the requested
// tool name.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found on any registered MCP server", e.Name)
}

// IsBridgeError implements BridgeError.
func (e *ToolNotFoundError) IsBridgeError() bool { return true }

// ToolExecutionError indicates the remote tool ran and reported failure.
// The protocol client carries this outcome as data; the registry escalates
// it to an error at its own call boundary.
type ToolExecutionError struct {
	Name    string
	Address string
	Message string
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q on %s failed: %s", e.Name, e.Address, e.Message)
}

// IsBridgeError implements BridgeError.
func (e *ToolExecutionError) IsBridgeError() bool { return true }
