package httpapi

import (
	"errors"
	"net/http"
	"time"

	"ai-stock-advisor/internal/application/schedule"
)

type runResponse struct {
	Success   bool   `json:"success"`
	RunID     string `json:"run_id"`
	Processed int    `json:"processed"`
	Sent      int    `json:"sent"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

// handleRunNow 手動觸發一輪通知流程，主要供維運與測試使用。
// 已有一輪在跑時回 409，不會排隊。
func (s *Server) handleRunNow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errCodeMethodNotAllowed, "method not allowed")
		return
	}

	summary, err := s.scheduler.RunOnce(r.Context(), time.Now())
	if err != nil {
		if errors.Is(err, schedule.ErrRunInProgress) {
			writeError(w, http.StatusConflict, errCodeRunInProgress, "a run is already in progress")
			return
		}
		s.logger.Error().Err(err).Msg("manual run failed")
		writeError(w, http.StatusInternalServerError, errCodeInternal, "run failed")
		return
	}

	resp := runResponse{
		Success:   summary.Err == nil,
		RunID:     summary.RunID,
		Processed: summary.Processed,
		Sent:      summary.Sent,
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
	}
	if summary.Err != nil {
		resp.Error = summary.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
