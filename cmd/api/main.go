package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ai-stock-advisor/internal/application/dispatch"
	"ai-stock-advisor/internal/application/schedule"
	"ai-stock-advisor/internal/application/subscribe"
	"ai-stock-advisor/internal/domain/subscription"
	"ai-stock-advisor/internal/infra/memory"
	"ai-stock-advisor/internal/infrastructure/config"
	"ai-stock-advisor/internal/infrastructure/db"
	"ai-stock-advisor/internal/infrastructure/external/marketdata"
	"ai-stock-advisor/internal/infrastructure/external/signalai"
	"ai-stock-advisor/internal/infrastructure/metrics"
	"ai-stock-advisor/internal/infrastructure/notify"
	"ai-stock-advisor/internal/infrastructure/persistence/postgres"
	httpapi "ai-stock-advisor/internal/interface/http"
)

func main() {
	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}

	logger := newLogger(cfg.Log)
	logger.Info().Str("http_addr", cfg.HTTP.Addr).Msg("configuration loaded")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store subscription.Store
	pool, err := db.Connect(ctx, cfg.DB)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("database connection failed, falling back to in-memory store")
		store = memory.NewStore()
		pool = nil
	case pool == nil:
		logger.Info().Msg("no DB_DSN provided; running with in-memory store only")
		store = memory.NewStore()
	default:
		defer pool.Close()
		logger.Info().Msg("database connected")
		store = postgres.NewSubscriptionRepo(pool)
	}

	var market schedule.MarketData
	if cfg.MarketData.UseSynthetic || cfg.MarketData.BaseURL == "" {
		logger.Info().Msg("using synthetic market data source")
		market = marketdata.NewSynthetic()
	} else {
		market = marketdata.NewClient(cfg.MarketData.BaseURL, cfg.MarketData.APIKey, cfg.MarketData.Timeout)
	}

	var signals schedule.SignalProvider
	if cfg.SignalAI.UseRuleBased || cfg.SignalAI.BaseURL == "" {
		logger.Info().Msg("using rule-based signal provider")
		signals = signalai.NewRuleBased()
	} else {
		signals = signalai.NewClient(cfg.SignalAI.BaseURL, cfg.SignalAI.APIKey, cfg.SignalAI.Timeout)
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Scheduler.Timezone).Msg("invalid scheduler timezone")
	}

	mailer := notify.NewMailerClient(cfg.Mailer.BaseURL, cfg.Mailer.APIKey, cfg.Mailer.From, cfg.Mailer.SubjectPrefix)
	recorder := metrics.New()
	dispatcher := dispatch.NewDispatcher(mailer, loc, cfg.Scheduler.DailyAt, logger)

	scheduler := schedule.New(store, market, signals, dispatcher, recorder, logger, schedule.Config{
		DailyAt:        cfg.Scheduler.DailyAt,
		Location:       loc,
		MaxConcurrency: int64(cfg.Scheduler.MaxConcurrency),
		UnitTimeout:    cfg.Scheduler.UnitTimeout,
	})
	if cfg.Scheduler.Enabled {
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("start scheduler failed")
		}
		logger.Info().Str("daily_at", cfg.Scheduler.DailyAt).Str("timezone", loc.String()).Msg("scheduler started")
	} else {
		logger.Info().Msg("scheduler disabled; runs only via POST /api/runs")
	}

	subscribeUC := subscribe.NewUseCase(store, mailer, cfg.Scheduler.DailyAt, logger)
	apiServer := httpapi.NewServer(pool, subscribeUC, scheduler, logger)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: apiServer.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Msg("starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}

	scheduler.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
