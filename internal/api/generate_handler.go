// File path: internal/api/generate_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/querypilot/querypilot/internal/common"
	"github.com/querypilot/querypilot/internal/sqlgen"
)

func (s *Server) handleGenerateSQL(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: generate decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		logger.Warn("api: generate question missing")
		writeError(w, http.StatusBadRequest, fmt.Errorf("question required"))
		return
	}
	logger.Info("api: generate request received",
		"question_length", len(question), "execute", req.Execute)
	var result sqlgen.GenerateResult
	if req.Execute {
		result = s.generator.GenerateAndExecute(ctx, question, req.IncludeSampleData, req.SampleRows, req.Explain)
	} else {
		result = s.generator.GenerateSQL(ctx, question, req.IncludeSampleData, req.SampleRows)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExplainSQL(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: explain decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sql := strings.TrimSpace(req.SQL)
	if sql == "" {
		logger.Warn("api: explain sql missing")
		writeError(w, http.StatusBadRequest, fmt.Errorf("sql required"))
		return
	}
	explanation := s.explainer.Explain(ctx, sql)
	resp := explainResponse{Success: explanation.Success, Err: explanation.Err}
	if explanation.Success {
		resp.Explanation = &explanation
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{
		Suggestions: s.generator.Suggestions(limit),
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: execute decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sql := strings.TrimSpace(req.SQL)
	if sql == "" {
		logger.Warn("api: execute sql missing")
		writeError(w, http.StatusBadRequest, fmt.Errorf("sql required"))
		return
	}
	logger.Info("api: execute request received", "sql_length", len(sql))
	result := s.generator.Execute(ctx, sql)
	writeJSON(w, http.StatusOK, result)
}
