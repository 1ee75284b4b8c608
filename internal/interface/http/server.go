package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ai-stock-advisor/internal/application/schedule"
	"ai-stock-advisor/internal/application/subscribe"
)

// Server 封裝 HTTP 路由與依賴。
type Server struct {
	mux         *http.ServeMux
	db          *sql.DB
	subscribeUC *subscribe.UseCase
	scheduler   *schedule.Scheduler
	logger      zerolog.Logger
}

// NewServer 建立 API 伺服器。db 可為 nil（記憶體模式）。
func NewServer(db *sql.DB, subscribeUC *subscribe.UseCase, scheduler *schedule.Scheduler, logger zerolog.Logger) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		db:          db,
		subscribeUC: subscribeUC,
		scheduler:   scheduler,
		logger:      logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/subscriptions", s.handleSubscriptions)
	s.mux.HandleFunc("/api/runs", s.handleRunNow)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
}

// Handler 回傳對外的 http.Handler。
func (s *Server) Handler() http.Handler {
	return s.mux
}
