package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepCounter", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepCounter exercise tracker. Query the exercise catalog, lifetime rep totals, per-exercise session history and statistics, and the live training session."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetTotals, Handler: h.getTotals},
		server.ServerTool{Tool: toolGetExerciseStats, Handler: h.getExerciseStats},
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
		server.ServerTool{Tool: toolGetCurrentSession, Handler: h.getCurrentSession},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resTotals, Handler: h.totals},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resTotals = mcp.NewResource(
	"repcounter://totals",
	"Lifetime Totals",
	mcp.WithResourceDescription("Lifetime repetition totals for every exercise in the catalog"),
	mcp.WithMIMEType("application/json"),
)
