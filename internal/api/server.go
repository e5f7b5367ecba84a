// File path: internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/querypilot/querypilot/internal/common"
	"github.com/querypilot/querypilot/internal/rag"
	"github.com/querypilot/querypilot/internal/sqlgen"
)

// Generator is the slice of the generation orchestrator the handlers need.
type Generator interface {
	GenerateSQL(ctx context.Context, question string, includeSamples bool, sampleRows int) sqlgen.GenerateResult
	GenerateAndExecute(ctx context.Context, question string, includeSamples bool, sampleRows int, explain bool) sqlgen.GenerateResult
	Execute(ctx context.Context, sql string) sqlgen.GenerateResult
	Suggestions(limit int) []string
}

// Indexer manages the schema index backing retrieval.
type Indexer interface {
	IndexSchema(ctx context.Context, force bool) rag.IndexResult
	IndexStats(ctx context.Context) rag.Stats
}

// Explainer produces plain-language breakdowns of SQL statements.
type Explainer interface {
	Explain(ctx context.Context, sql string) sqlgen.Explanation
}

// Health reports readiness of the backing database connection.
type Health interface {
	Connected() bool
}

type Server struct {
	router    chi.Router
	generator Generator
	indexer   Indexer
	explainer Explainer
	health    Health
}

func NewServer(generator Generator, indexer Indexer, explainer Explainer, health Health) *Server {
	logger := common.Logger()
	srv := &Server{
		router:    chi.NewRouter(),
		generator: generator,
		indexer:   indexer,
		explainer: explainer,
		health:    health,
	}
	srv.routes()
	logger.Info("api: server ready")
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()
			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r)
			logger.Debug("request",
				"method", r.Method, "path", r.URL.Path,
				"dur", time.Since(start), "remote", r.RemoteAddr,
				"request_id", requestID)
		})
	})

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/generate-sql", s.handleGenerateSQL)
	s.router.Post("/explain-sql", s.handleExplainSQL)
	s.router.Get("/suggestions", s.handleSuggestions)
	s.router.Post("/execute", s.handleExecute)
	s.router.Post("/index", s.handleIndex)
	s.router.Get("/stats", s.handleStats)
	s.router.Get("/logs", s.handleLogs)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
