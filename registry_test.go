package mcpbridge_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mcpbridge "github.com/toolforge/mcp-bridge-go"
	"github.com/toolforge/mcp-bridge-go/internal/mcptest"
)

func echoServer(t *testing.T) *mcptest.Server {
	t.Helper()

	srv := mcptest.New(mcptest.Config{
		SessionID: "session-1",
		Tools: []any{
			map[string]any{
				"name":        "echo",
				"description": "Echo text",
				"inputSchema": map[string]any{},
			},
		},
		CallResponse: map[string]any{
			"content": []any{map[string]any{"text": "hi"}},
		},
	})
	t.Cleanup(srv.Close)

	return srv
}

func TestRegistry_EndToEnd(t *testing.T) {
	ctx := context.Background()
	srv := echoServer(t)

	reg := mcpbridge.New(mcpbridge.WithLogger(mcpbridge.NopLogger()))
	defer reg.Close()

	require.True(t, reg.RegisterServer(ctx, srv.URL))
	require.Equal(t, []string{srv.URL}, reg.Addresses())

	tools := reg.AllTools(ctx, nil)
	require.Len(t, tools, 1)
	require.Equal(t, "echo", tools[0].Name)
	require.Equal(t, srv.URL, tools[0].ServerAddress)

	result, err := reg.CallTool(ctx, "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	require.Equal(t, "hi", result)

	// The session token from the handshake is echoed on every request.
	require.Equal(t, "session-1", srv.LastSession())
}

func TestRegistry_IndependentInstances(t *testing.T) {
	ctx := context.Background()
	srv := echoServer(t)

	first := mcpbridge.New()
	defer first.Close()

	second := mcpbridge.New()
	defer second.Close()

	require.True(t, first.RegisterServer(ctx, srv.URL))

	require.Len(t, first.Addresses(), 1)
	require.Empty(t, second.Addresses())
}

func TestRegistry_RegisterFailureIsReported(t *testing.T) {
	reg := mcpbridge.New(mcpbridge.WithInitializeTimeout(time.Second))
	defer reg.Close()

	require.False(t, reg.RegisterServer(context.Background(), "http://127.0.0.1:1"))
	require.Empty(t, reg.Addresses())
}

func TestRegistry_ToolNotFound(t *testing.T) {
	ctx := context.Background()
	srv := echoServer(t)

	reg := mcpbridge.New()
	defer reg.Close()

	require.True(t, reg.RegisterServer(ctx, srv.URL))

	_, err := reg.CallTool(ctx, "missing", nil)

	var notFound *mcpbridge.ToolNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestRegistry_FindTool(t *testing.T) {
	ctx := context.Background()
	srv := echoServer(t)

	reg := mcpbridge.New()
	defer reg.Close()

	require.True(t, reg.RegisterServer(ctx, srv.URL))

	tool, ok := reg.FindTool(ctx, "echo")
	require.True(t, ok)
	require.Equal(t, srv.URL, tool.ServerAddress)
}
