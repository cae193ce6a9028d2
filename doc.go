// Package mcpbridge discovers, connects to, and invokes tools exposed by
// remote MCP servers over HTTP, aggregating tools across multiple servers
// for a calling application.
//
// # Basic Usage
//
// Construct a Registry, register servers, and list or call tools:
//
//	ctx := context.Background()
//	reg := mcpbridge.New(mcpbridge.WithLogger(slog.Default()))
//	defer reg.Close()
//
//	if !reg.RegisterServer(ctx, "http://localhost:8000") {
//	    log.Fatal("server did not respond to the MCP handshake")
//	}
//
//	for _, tool := range reg.AllTools(ctx, nil) {
//	    fmt.Printf("%s (%s): %s\n", tool.Name, tool.ServerAddress, tool.Description)
//	}
//
//	result, err := reg.CallTool(ctx, "echo", map[string]any{"text": "hi"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result)
//
// # Tool Bindings
//
// For handing discovered tools to a reasoning loop, build one ToolBinding
// per tool. A binding pins the tool's name and owning server at construction
// time and optionally validates arguments against the tool's declared input
// schema before invoking:
//
//	for _, b := range mcpbridge.Bindings(reg, reg.AllTools(ctx, nil)) {
//	    result, err := b.Invoke(ctx, map[string]any{"text": "hi"})
//	    // ...
//	}
//
// # Error Handling
//
// Failures are classified with typed errors so callers can react to each
// class differently:
//
//	result, err := reg.CallTool(ctx, "echo", args)
//	if err != nil {
//	    var connErr *mcpbridge.ConnectionError
//	    if errors.As(err, &connErr) {
//	        // transport unreachable: retry or back off
//	    }
//	    var execErr *mcpbridge.ToolExecutionError
//	    if errors.As(err, &execErr) {
//	        // the tool ran and reported failure: execErr.Message
//	    }
//	}
//
// Connection lifecycle is managed internally: one protocol client per server
// is pooled, idle clients are evicted lazily on access, and Close tears
// everything down.
package mcpbridge
