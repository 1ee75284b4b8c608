package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	errCodeRunInProgress    = "RUN_IN_PROGRESS"
	errCodeInternal         = "INTERNAL_ERROR"
)

// 請求本文上限，夠放一筆訂閱，擋掉誤傳的大 payload。
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

// readJSON 解析請求本文到 dst，套用大小上限並拒絕尾隨內容。
func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{
		Success:   false,
		Error:     msg,
		ErrorCode: code,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
