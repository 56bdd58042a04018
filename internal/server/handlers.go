package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"newsmesh/internal/core"
	"newsmesh/internal/pipeline"
)

// triggerResponse is the body of a /trigger call.
type triggerResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message"`
	Stats     *core.CycleStats `json:"stats,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// handleTrigger runs exactly one cycle and reports its stats. A skip (lock
// held elsewhere) is a successful no-op, not an error.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	stats, err := s.runner.RunCycle(r.Context())

	resp := triggerResponse{
		Success:   true,
		Message:   "cycle complete",
		Stats:     &stats,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	switch {
	case errors.Is(err, pipeline.ErrSkipped):
		resp.Message = "cycle skipped: another run is in progress"
		resp.Stats = nil
	case err != nil:
		s.log.Error("Cycle failed", "error", err.Error())
		resp.Success = false
		resp.Message = err.Error()
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus reports the last completed cycle's counters.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	stats := s.runner.LastStats()
	if stats == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ran": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ran": true, "stats": stats})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
