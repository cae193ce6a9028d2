package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toolforge/mcp-bridge-go/internal/protocol"
)

// stubRegistry records calls and serves canned tools.
type stubRegistry struct {
	tools        map[string][]protocol.Tool
	registered   []string
	registerOK   bool
	unregistered []string
}

func (s *stubRegistry) RegisterServer(_ context.Context, address string) bool {
	s.registered = append(s.registered, address)

	return s.registerOK
}

func (s *stubRegistry) UnregisterServer(address string) bool {
	s.unregistered = append(s.unregistered, address)

	return true
}

func (s *stubRegistry) AllTools(_ context.Context, addresses []string) []protocol.Tool {
	if addresses == nil {
		addresses = s.Addresses()
	}

	var all []protocol.Tool
	for _, addr := range addresses {
		all = append(all, s.tools[addr]...)
	}

	return all
}

func (s *stubRegistry) Addresses() []string {
	addrs := make([]string, 0, len(s.tools))
	for addr := range s.tools {
		addrs = append(addrs, addr)
	}

	return addrs
}

func serve(t *testing.T, reg Registry, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	srv := New(Config{Registry: reg})

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	return rr
}

func TestListTools(t *testing.T) {
	reg := &stubRegistry{
		tools: map[string][]protocol.Tool{
			"http://a": {{Name: "echo", ServerAddress: "http://a"}},
		},
	}

	rr := serve(t, reg, http.MethodGet, "/api/mcp/tools", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Tools []protocol.Tool `json:"tools"`
		Total int             `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, 1, resp.Total)
	require.Equal(t, "echo", resp.Tools[0].Name)
}

func TestListTools_ServerFilter(t *testing.T) {
	reg := &stubRegistry{
		tools: map[string][]protocol.Tool{
			"http://a": {{Name: "alpha"}},
			"http://b": {{Name: "beta"}},
		},
	}

	rr := serve(t, reg, http.MethodGet, "/api/mcp/tools?servers=http://b", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Tools []protocol.Tool `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Tools, 1)
	require.Equal(t, "beta", resp.Tools[0].Name)
}

func TestListTools_EmptyIsArrayNotNull(t *testing.T) {
	reg := &stubRegistry{tools: map[string][]protocol.Tool{}}

	rr := serve(t, reg, http.MethodGet, "/api/mcp/tools", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"tools":[]`)
}

func TestHealth(t *testing.T) {
	reg := &stubRegistry{
		tools: map[string][]protocol.Tool{"http://a": nil},
	}

	rr := serve(t, reg, http.MethodGet, "/api/mcp/health", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Status            string   `json:"status"`
		RegisteredServers int      `json:"registeredServers"`
		Servers           []string `json:"servers"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, "healthy", resp.Status)
	require.Equal(t, 1, resp.RegisteredServers)
	require.Equal(t, []string{"http://a"}, resp.Servers)
}

func TestRegisterServer(t *testing.T) {
	reg := &stubRegistry{registerOK: true}

	rr := serve(t, reg, http.MethodPost, "/api/mcp/servers", `{"url":"http://a"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"registered":true`)
	require.Equal(t, []string{"http://a"}, reg.registered)
}

func TestRegisterServer_FailureIsReportedNotRaised(t *testing.T) {
	reg := &stubRegistry{registerOK: false}

	rr := serve(t, reg, http.MethodPost, "/api/mcp/servers", `{"url":"http://down"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"registered":false`)
}

func TestRegisterServer_MissingURL(t *testing.T) {
	reg := &stubRegistry{registerOK: true}

	rr := serve(t, reg, http.MethodPost, "/api/mcp/servers", `{}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, reg.registered)
}

func TestUnregisterServer(t *testing.T) {
	reg := &stubRegistry{}

	rr := serve(t, reg, http.MethodDelete, "/api/mcp/servers", `{"url":"http://a"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"unregistered":true`)
	require.Equal(t, []string{"http://a"}, reg.unregistered)
}
