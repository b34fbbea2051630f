// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the dynbike MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"dynbike Segmentation Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: start_segmentation ---
	s.AddTool(mcp.NewTool("start_segmentation",
		mcp.WithDescription("Load one cycling session, fit a piecewise linear model to its cadence and return the numbered segments."),
		mcp.WithString("input", mcp.Description("Path to a raw or pre-cleaned CSV export, or a FIT file."), mcp.Required()),
		mcp.WithString("session_key", mcp.Description("Session to segment, e.g. 'SMB024_day1'. Optional when the input holds one session.")),
		mcp.WithString("side", mcp.Description("Which side of a cut segment is kept. Defaults to 'left'."), mcp.Enum("left", "right")),
	), h.handleStartSegmentation)

	// --- 2. Tool: respond_segmentation ---
	s.AddTool(mcp.NewTool("respond_segmentation",
		mcp.WithDescription("Answer a pending segmentation prompt: a segment number cuts, 'all' or '1,3' splits, 'stop' finalizes."),
		mcp.WithString("session_id", mcp.Description("ID returned by start_segmentation."), mcp.Required()),
		mcp.WithString("response", mcp.Description("Operator response."), mcp.Required()),
		mcp.WithString("series_file", mcp.Description("Optional path (.csv, .json or .parquet) to write the resulting series once the session finishes.")),
	), h.handleRespondSegmentation)

	// --- 3. Tool: get_segmentation ---
	s.AddTool(mcp.NewTool("get_segmentation",
		mcp.WithDescription("Return the stored state of a segmentation session."),
		mcp.WithString("session_id", mcp.Description("Session ID."), mcp.Required()),
	), h.handleGetSegmentation)

	// --- 4. Tool: list_sessions ---
	s.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List stored segmentation sessions, most recently updated first."),
	), h.handleListSessions)

	// --- 5. Tool: trim_sessions ---
	s.AddTool(mcp.NewTool("trim_sessions",
		mcp.WithDescription("Filter extreme cadence and trim trailing flatlines for every session in an input, returning the per-session reports."),
		mcp.WithString("input", mcp.Description("Path to a raw or pre-cleaned CSV export, or a FIT file."), mcp.Required()),
		mcp.WithNumber("min_flat_start", mcp.Description("Smallest row index at which a trailing flatline may begin.")),
		mcp.WithNumber("min_flat_length", mcp.Description("Shortest flatline run that is trimmed.")),
	), h.handleTrimSessions)

	return s
}

// StartMCPServer starts the dynbike MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
