package mcpbridge

import "github.com/toolforge/mcp-bridge-go/internal/protocol"

// Tool describes one invocable capability offered by an MCP server.
//
// Tools are constructed fresh on every listing call and carry no identity
// across calls: two listings produce two distinct values describing the same
// conceptual tool. ServerAddress records which server owns the tool and is
// always set by the fetching client, never taken from the server's response.
type Tool = protocol.Tool

// ProtocolVersion is the MCP protocol version declared during the handshake.
const ProtocolVersion = protocol.Version

// SessionHeader is the HTTP header carrying the session token issued at
// initialization.
const SessionHeader = protocol.SessionHeader
