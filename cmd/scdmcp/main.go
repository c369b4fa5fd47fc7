// Command scdmcp exposes a running dimension over MCP so an agent can look
// up current rows and submit update batches as tool calls. The engine is
// single-writer, so every tool call serializes through one mutex.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/scdkit/scd/pkg/boot"
	"github.com/scdkit/scd/pkg/config"
	"github.com/scdkit/scd/pkg/scd"
	"github.com/scdkit/scd/pkg/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "scdmcp:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config.json")
	addr := flag.String("addr", "127.0.0.1:8642", "listen address for the MCP streamable-HTTP transport")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := boot.Logger(cfg.Log)

	ctx := context.Background()
	engine, closeFn, err := boot.OpenEngine(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer closeFn()

	deps := &toolDeps{engine: engine, logger: logger}

	mcpSrv := mcpserver.NewMCPServer(
		"scd-engine",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	lookupTool := mcp.NewTool("lookup",
		mcp.WithDescription("Return the current version of a dimension row matching the given natural key."),
		mcp.WithString("key", mcp.Description("JSON object of lookup-attribute values, e.g. {\"order\":\"1\"}"), mcp.Required()),
	)
	updateTool := mcp.NewTool("update",
		mcp.WithDescription("Apply a batch of incoming rows against the dimension, classifying and mutating as needed."),
		mcp.WithString("rows", mcp.Description("JSON array of row objects"), mcp.Required()),
	)
	statsTool := mcp.NewTool("stats",
		mcp.WithDescription("Return cumulative new/updated row counters since this server started."),
	)

	mcpSrv.AddTool(lookupTool, deps.handleLookup)
	mcpSrv.AddTool(updateTool, deps.handleUpdate)
	mcpSrv.AddTool(statsTool, deps.handleStats)

	httpServer := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
	)

	logger.Info("starting MCP server", "addr", *addr)
	return httpServer.Start(*addr)
}

type toolDeps struct {
	mu     sync.Mutex
	engine *scd.Engine
	logger *slog.Logger
}

func (d *toolDeps) handleLookup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyJSON := req.GetString("key", "")
	if keyJSON == "" {
		return mcp.NewToolResultError("key parameter is required"), nil
	}
	var key store.Row
	if err := json.Unmarshal([]byte(keyJSON), &key); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid key JSON: %v", err)), nil
	}

	d.mu.Lock()
	row, ok, err := d.engine.Lookup(ctx, key)
	d.mu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultText("no current row for that key"), nil
	}

	out, err := json.Marshal(row)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (d *toolDeps) handleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rowsJSON := req.GetString("rows", "")
	if rowsJSON == "" {
		return mcp.NewToolResultError("rows parameter is required"), nil
	}
	var batch []store.Row
	if err := json.Unmarshal([]byte(rowsJSON), &batch); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid rows JSON: %v", err)), nil
	}

	traceID := uuid.New().String()
	d.logger.Info("update tool call", "trace_id", traceID, "rows", len(batch))

	d.mu.Lock()
	counters, err := d.engine.Update(ctx, batch)
	d.mu.Unlock()
	if err != nil {
		d.logger.Error("update tool call failed", "trace_id", traceID, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"trace_id=%s new_rows=%d updated_type1_rows=%d updated_type2_rows=%d",
		traceID, counters.NewRows, counters.UpdatedType1Rows, counters.UpdatedType2Rows,
	)), nil
}

func (d *toolDeps) handleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d.mu.Lock()
	totals := d.engine.Totals()
	d.mu.Unlock()

	return mcp.NewToolResultText(fmt.Sprintf(
		"new_rows=%d updated_type1_rows=%d updated_type2_rows=%d",
		totals.NewRows, totals.UpdatedType1Rows, totals.UpdatedType2Rows,
	)), nil
}
