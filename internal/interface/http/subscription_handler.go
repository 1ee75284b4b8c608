package httpapi

import (
	"net/http"

	"ai-stock-advisor/internal/application/subscribe"
)

// handleSubscriptions 處理訂閱的建立與取消。
// POST   /api/subscriptions  建立或更新訂閱
// DELETE /api/subscriptions  取消訂閱
func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createSubscription(w, r)
	case http.MethodDelete:
		s.deleteSubscription(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, errCodeMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) createSubscription(w http.ResponseWriter, r *http.Request) {
	var in subscribe.Input
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	res := s.subscribeUC.Subscribe(r.Context(), in)
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (s *Server) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	var in subscribe.Input
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	res := s.subscribeUC.Unsubscribe(r.Context(), in.Email, in.Ticker)
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}
