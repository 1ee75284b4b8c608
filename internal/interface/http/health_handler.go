package httpapi

import (
	"context"
	"net/http"
	"time"
)

type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
}

// handleHealth 回報服務與資料庫狀態。無 DSN 的記憶體模式視為健康。
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errCodeMethodNotAllowed, "method not allowed")
		return
	}

	resp := healthResponse{Status: "ok", DB: "memory"}
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("health check db ping failed")
			resp.Status = "degraded"
			resp.DB = "error"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.DB = "ok"
	}
	writeJSON(w, http.StatusOK, resp)
}
