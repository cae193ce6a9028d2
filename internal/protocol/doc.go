// Package protocol implements the client side of the MCP HTTP protocol:
// session initialization, tool listing, and tool invocation against a single
// server, with transport and protocol failures classified into the typed
// errors of the internal errors package.
package protocol
