// Package server exposes the fusion core over HTTP for the demo host:
// fuse/readiness/cycle-prediction/symptom-insight endpoints backed by
// internal/store. Authentication and multi-tenant identity resolution are
// out of scope; every endpoint takes an explicit "owner" parameter.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/vitalfusion/internal/fusionconfig"
	"github.com/claude/vitalfusion/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *store.DB
	cfg    *fusionconfig.Manager
	log    *slog.Logger
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db *store.DB, cfg *fusionconfig.Manager, log *slog.Logger) *Server {
	s := &Server{db: db, cfg: cfg, log: log, router: chi.NewRouter()}
	s.routes()
	return s
}

// SetMCP mounts an MCP Streamable HTTP server at /mcp. Must be called
// before the server starts handling requests.
func (s *Server) SetMCP(mcpSrv *mcpserver.MCPServer) {
	httpServer := mcpserver.NewStreamableHTTPServer(mcpSrv)
	s.router.Handle("/mcp", httpServer)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/fuse/daily", s.handleFuseDaily)
		r.Post("/fuse/sleep", s.handleFuseSleep)
		r.Get("/readiness", s.handleReadiness)
		r.Get("/readiness/history", s.handleReadinessHistory)
		r.Get("/cycle/predict", s.handleCyclePredict)
		r.Post("/cycle", s.handleRecordCycle)
		r.Post("/symptoms", s.handleRecordSymptomLog)
		r.Get("/symptoms/insights", s.handleSymptomInsights)
	})
}
