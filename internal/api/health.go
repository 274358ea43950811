package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

// handleHealth stays reachable without auth; a failed ping degrades the
// response instead of erroring so load balancers still get a body.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, database := "ok", "connected"
	if err := s.pool.Ping(r.Context()); err != nil {
		s.logger.Warn("Health check database ping failed", zap.Error(err))
		status, database = "degraded", "disconnected"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Database:  database,
	})
}
