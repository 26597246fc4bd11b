package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth responds to health checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.Conn().Ping(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSystemStatus reports service configuration and database reachability
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	dbOK := s.db.Conn().Ping() == nil

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"database": dbOK,
		"dev_mode": s.cfg.DevMode,
		"port":     s.cfg.Port,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}
