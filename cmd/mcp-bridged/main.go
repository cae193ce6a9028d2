// Command mcp-bridged serves the tool registry HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	mcpbridge "github.com/toolforge/mcp-bridge-go"
	"github.com/toolforge/mcp-bridge-go/internal/httpapi"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	port := getEnv("PORT", "8080")
	idleThreshold := getEnvInt("IDLE_THRESHOLD", 300)
	servers := splitCSV(os.Getenv("MCP_SERVERS"))

	reg := mcpbridge.New(
		mcpbridge.WithLogger(log),
		mcpbridge.WithIdleThreshold(time.Duration(idleThreshold)*time.Second),
	)
	defer reg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Boot-time registration is best-effort; a server that is down now can
	// be registered later through the API.
	for _, address := range servers {
		if !reg.RegisterServer(ctx, address) {
			log.Warn("initial MCP server registration failed", "server", address)
		}
	}

	api := httpapi.New(httpapi.Config{Registry: reg, Logger: log})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	}()

	log.Info("starting MCP bridge", "port", port, "servers", len(servers))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}

	return def
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
