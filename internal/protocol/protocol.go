package protocol

import (
	"encoding/json"
	"strings"
)

// Protocol constants for the MCP HTTP handshake.
const (
	// Version is the MCP protocol version declared during the handshake.
	Version = "2024-11-05"

	// SessionHeader carries the session token issued at initialization.
	SessionHeader = "X-MCP-Session-ID"

	// RequestIDHeader carries a per-request correlation ID.
	RequestIDHeader = "X-Request-ID"

	clientName    = "mcp-bridge-go"
	clientVersion = "0.1.0"
)

// Endpoint paths relative to a server's base address.
const (
	initializePath = "/mcp/v1/initialize"
	listToolsPath  = "/mcp/v1/tools/list"
	callToolPath   = "/mcp/v1/tools/call"
)

// Tool describes one invocable capability offered by an MCP server.
//
// Name is unique within its server only; the same name may exist on multiple
// servers. ServerAddress is stamped by the client that fetched the tool and
// never taken from the server's own response.
type Tool struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	InputSchema   map[string]any `json:"inputSchema"`
	ServerAddress string         `json:"serverAddress"`
}

// NormalizeAddress strips trailing path separators from a server base URL so
// that equivalent spellings key the same pool entry.
func NormalizeAddress(address string) string {
	return strings.TrimRight(address, "/")
}

// initializeRequest is the handshake request body.
type initializeRequest struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      clientInfo     `json:"clientInfo"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// initializeResponse is the handshake response body. The session token is
// optional; servers that do not track sessions omit it.
type initializeResponse struct {
	SessionID string `json:"sessionId"`
}

// listToolsResponse is the tools/list response body. The tools field is kept
// raw so its shape can be checked before entries are decoded one by one.
type listToolsResponse struct {
	Tools json.RawMessage `json:"tools"`
}

// toolPayload is a single entry of a tools/list response.
type toolPayload struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// callToolRequest is the tools/call request body.
type callToolRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// contentBlock is one element of a tools/call response content array.
type contentBlock struct {
	Text string `json:"text"`
}

// callToolResponse is the tools/call response body.
type callToolResponse struct {
	IsError bool           `json:"isError"`
	Content []contentBlock `json:"content"`
}
