// Package mcptest provides a configurable fake MCP server for tests.
package mcptest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Config controls the fake server's behavior. Zero values mean "behave":
// status 200 everywhere, no session token, no tools.
type Config struct {
	// SessionID, when set, is returned from the initialize endpoint.
	SessionID string

	// Tools is the raw tools array returned from tools/list. Entries are
	// arbitrary JSON values so tests can return malformed ones.
	Tools []any

	// CallResponse is the body returned from tools/call.
	CallResponse map[string]any

	// Per-endpoint status overrides; 0 means 200.
	InitializeStatus int
	ListStatus       int
	CallStatus       int

	// Raw body overrides; when set the corresponding endpoint writes the
	// bytes verbatim instead of encoding JSON.
	InitializeBody string
	ListBody       string
	CallBody       string
}

// Server is a fake MCP server backed by httptest. It records request counts
// and the session header seen on the most recent request per endpoint.
type Server struct {
	*httptest.Server

	cfg Config

	mu              sync.Mutex
	initializeCalls int
	listCalls       int
	callCalls       int
	lastSession     string
	lastCallName    string
	lastCallArgs    map[string]any
}

// New starts a fake MCP server. Callers must Close it.
func New(cfg Config) *Server {
	s := &Server{cfg: cfg}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /mcp/v1/initialize", s.handleInitialize)
	mux.HandleFunc("POST /mcp/v1/tools/list", s.handleList)
	mux.HandleFunc("POST /mcp/v1/tools/call", s.handleCall)

	s.Server = httptest.NewServer(mux)

	return s
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.initializeCalls++
	s.lastSession = r.Header.Get("X-MCP-Session-ID")
	s.mu.Unlock()

	body := map[string]any{}
	if s.cfg.SessionID != "" {
		body["sessionId"] = s.cfg.SessionID
	}

	s.respond(w, s.cfg.InitializeStatus, s.cfg.InitializeBody, body)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.listCalls++
	s.lastSession = r.Header.Get("X-MCP-Session-ID")
	status, body := s.cfg.ListStatus, s.cfg.ListBody
	tools := s.cfg.Tools
	s.mu.Unlock()

	if tools == nil {
		tools = []any{}
	}

	s.respond(w, status, body, map[string]any{"tools": tools})
}

// SetListStatus changes the tools/list behavior at runtime, letting tests
// break a server after it registered successfully.
func (s *Server) SetListStatus(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.ListStatus = status
	s.cfg.ListBody = body
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	s.callCalls++
	s.lastSession = r.Header.Get("X-MCP-Session-ID")
	s.lastCallName = req.Name
	s.lastCallArgs = req.Arguments
	s.mu.Unlock()

	body := s.cfg.CallResponse
	if body == nil {
		body = map[string]any{"content": []any{}}
	}

	s.respond(w, s.cfg.CallStatus, s.cfg.CallBody, body)
}

func (s *Server) respond(w http.ResponseWriter, status int, raw string, body any) {
	if status == 0 {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if raw != "" {
		_, _ = w.Write([]byte(raw))
		return
	}

	_ = json.NewEncoder(w).Encode(body)
}

// InitializeCalls returns how many handshake requests were received.
func (s *Server) InitializeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.initializeCalls
}

// ListCalls returns how many tools/list requests were received.
func (s *Server) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listCalls
}

// CallCalls returns how many tools/call requests were received.
func (s *Server) CallCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.callCalls
}

// LastSession returns the session header seen on the most recent request.
func (s *Server) LastSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSession
}

// LastCall returns the name and arguments of the most recent tools/call.
func (s *Server) LastCall() (string, map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastCallName, s.lastCallArgs
}
