// Package mcpserver exposes the fusion core's readiness, cycle-prediction,
// and symptom-insight queries as MCP tools for LLM agents, mirroring the
// teacher's internal/mcp package shape.
package mcpserver

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/vitalfusion/internal/fusionconfig"
	"github.com/claude/vitalfusion/internal/store"
)

// New creates an MCP server with every fusion-core tool registered.
func New(db *store.DB, cfg *fusionconfig.Manager, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("vitalfusion", version,
		server.WithToolCapabilities(false),
		server.WithInstructions("Wearable telemetry fusion server. Query readiness scores, cycle predictions, and symptom correlation insights. All queries are scoped to an explicit owner identifier."),
	)

	h := &handlers{db: db, cfg: cfg, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetReadiness, Handler: h.getReadiness},
		server.ServerTool{Tool: toolGetReadinessHistory, Handler: h.getReadinessHistory},
		server.ServerTool{Tool: toolPredictCycle, Handler: h.predictCycle},
		server.ServerTool{Tool: toolGetSymptomInsights, Handler: h.getSymptomInsights},
	)

	return s
}

// handlers holds dependencies for MCP tool handlers.
type handlers struct {
	db  *store.DB
	cfg *fusionconfig.Manager
	log *slog.Logger
}
