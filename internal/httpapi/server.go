// Package httpapi exposes the tool registry to outside callers over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/toolforge/mcp-bridge-go/internal/protocol"
)

// Registry is the slice of the tool registry the HTTP surface needs.
type Registry interface {
	RegisterServer(ctx context.Context, address string) bool
	UnregisterServer(address string) bool
	AllTools(ctx context.Context, addresses []string) []protocol.Tool
	Addresses() []string
}

// Config carries the HTTP server's dependencies.
type Config struct {
	Registry Registry
	Logger   *slog.Logger
}

// Server wires the registry behind a chi router.
type Server struct {
	registry Registry
	log      *slog.Logger
	router   *chi.Mux
}

// New constructs a Server with middleware and routes configured.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		registry: cfg.Registry,
		log:      log.With("component", "httpapi"),
		router:   chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Route("/api/mcp", func(r chi.Router) {
		r.Get("/tools", s.handleListTools)
		r.Get("/health", s.handleHealth)
		r.Post("/servers", s.handleRegister)
		r.Delete("/servers", s.handleUnregister)
	})

	return s
}

// Router exposes the root HTTP handler.
func (s *Server) Router() http.Handler { return s.router }

// toolListResponse is the body of GET /api/mcp/tools.
type toolListResponse struct {
	Tools []protocol.Tool `json:"tools"`
	Total int             `json:"total"`
}

// handleListTools lists tools across servers. The optional "servers" query
// parameter is a comma-separated address list; when absent every registered
// server is queried.
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	var addresses []string
	if raw := r.URL.Query().Get("servers"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				addresses = append(addresses, part)
			}
		}
	}

	tools := s.registry.AllTools(r.Context(), addresses)
	if tools == nil {
		tools = []protocol.Tool{}
	}

	s.writeJSON(w, http.StatusOK, toolListResponse{Tools: tools, Total: len(tools)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	servers := s.registry.Addresses()
	if servers == nil {
		servers = []string{}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"registeredServers": len(servers),
		"servers":           servers,
	})
}

// serverRequest is the body of POST and DELETE /api/mcp/servers.
type serverRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req serverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "url is required"})
		return
	}

	ok := s.registry.RegisterServer(r.Context(), req.URL)

	s.writeJSON(w, http.StatusOK, map[string]any{"registered": ok})
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	var req serverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "url is required"})
		return
	}

	ok := s.registry.UnregisterServer(req.URL)

	s.writeJSON(w, http.StatusOK, map[string]any{"unregistered": ok})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}
