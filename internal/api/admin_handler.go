// File path: internal/api/admin_handler.go
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/querypilot/querypilot/internal/common"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		logger.Warn("api: index decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	logger.Info("api: index request received", "force", req.Force)
	result := s.indexer.IndexSchema(ctx, req.Force)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.indexer.IndexStats(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"database_connected": s.health.Connected(),
		"index":              stats,
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": common.LogEntries(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil && !s.health.Connected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
