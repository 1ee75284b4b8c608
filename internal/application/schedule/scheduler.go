package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"ai-stock-advisor/internal/application/dispatch"
	"ai-stock-advisor/internal/domain/marketdata"
	"ai-stock-advisor/internal/domain/signal"
	"ai-stock-advisor/internal/domain/subscription"
	"ai-stock-advisor/internal/infrastructure/metrics"
)

// ErrRunInProgress 表示上一輪尚未結束，本次觸發視為 no-op。
var ErrRunInProgress = errors.New("a run is already in progress")

// MarketData 供應歷史收盤價。
type MarketData interface {
	Historical(ctx context.Context, ticker string) (marketdata.Series, error)
}

// SignalProvider 供應三個指標判讀。排程已取回的價格序列會一併傳入，
// 讓規則式 provider 不必重抓同一份資料。
type SignalProvider interface {
	Votes(ctx context.Context, ticker, strategy string, series marketdata.Series) ([3]signal.IndicatorVote, error)
}

// Notifier 把訊號結果變成一筆通知紀錄，永不拋錯。
type Notifier interface {
	Notify(ctx context.Context, sub subscription.Subscription, res signal.Result, runDay time.Time) dispatch.Record
}

// Summary 是一輪排程的彙總，僅存在於該輪的日誌與回傳值。
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Sent       int
	Skipped    int
	Failed     int
	Err        error
}

// Config 控制每日觸發時間與扇出上限。
type Config struct {
	DailyAt        string // "15:04"
	Location       *time.Location
	MaxConcurrency int64
	UnitTimeout    time.Duration
}

// Scheduler 是每日訊號管線的協調者：列舉訂閱、受限扇出、
// 隔離單筆失敗，一輪結束後產出 Summary。
type Scheduler struct {
	store    subscription.Store
	market   MarketData
	signals  SignalProvider
	notifier Notifier
	recorder *metrics.Recorder
	logger   zerolog.Logger
	cfg      Config

	cron    *cron.Cron
	running atomic.Bool
	nowFn   func() time.Time

	mu        sync.Mutex
	cancelRun context.CancelFunc
}

// New 建立排程器；Start 之前不會有任何背景活動。
func New(store subscription.Store, market MarketData, signals SignalProvider, notifier Notifier, recorder *metrics.Recorder, logger zerolog.Logger, cfg Config) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.UnitTimeout <= 0 {
		cfg.UnitTimeout = 30 * time.Second
	}
	return &Scheduler{
		store:    store,
		market:   market,
		signals:  signals,
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
		cfg:      cfg,
		nowFn:    time.Now,
	}
}

// Start 註冊每日定時觸發並啟動 cron。重複呼叫是 no-op。
func (s *Scheduler) Start() error {
	if s.cron != nil {
		return nil
	}

	at, err := time.Parse("15:04", s.cfg.DailyAt)
	if err != nil {
		return fmt.Errorf("invalid daily_at %q: %w", s.cfg.DailyAt, err)
	}

	c := cron.New(cron.WithLocation(s.cfg.Location), cron.WithSeconds())
	spec := fmt.Sprintf("0 %d %d * * *", at.Minute(), at.Hour())
	if _, err := c.AddFunc(spec, s.trigger); err != nil {
		return fmt.Errorf("register cron job: %w", err)
	}
	s.cron = c
	c.Start()

	s.logger.Info().Str("daily_at", s.cfg.DailyAt).Str("tz", s.cfg.Location.String()).Msg("scheduler started")
	return nil
}

// Stop 停掉 cron 並協同取消進行中的一輪。
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
	s.mu.Lock()
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.mu.Unlock()
}

func (s *Scheduler) trigger() {
	summary, err := s.RunOnce(context.Background(), s.nowFn())
	if errors.Is(err, ErrRunInProgress) {
		s.logger.Warn().Msg("daily trigger fired while previous run still processing, skipping")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", summary.RunID).Msg("daily run aborted")
	}
}

// RunOnce 執行一輪完整的管線。同時只允許一輪；持久層故障會提前中止。
func (s *Scheduler) RunOnce(ctx context.Context, day time.Time) (Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Summary{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelRun = cancel
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelRun = nil
		s.mu.Unlock()
	}()

	summary := Summary{
		RunID:     uuid.NewString(),
		StartedAt: s.nowFn(),
	}
	logger := s.logger.With().Str("run_id", summary.RunID).Logger()
	logger.Info().Msg("daily signal run starting")

	subs, err := s.store.ListActive(runCtx)
	if err != nil {
		summary.FinishedAt = s.nowFn()
		summary.Err = err
		s.recorder.RecordRun("store_error", 0, summary.FinishedAt.Sub(summary.StartedAt))
		return summary, err
	}
	summary.Processed = len(subs)

	var (
		sem        = semaphore.NewWeighted(s.cfg.MaxConcurrency)
		wg         sync.WaitGroup
		mu         sync.Mutex
		storeFault atomic.Pointer[subscription.StoreError]
	)

	for _, sub := range subs {
		if err := sem.Acquire(runCtx, 1); err != nil {
			// 整輪已取消：剩餘訂閱記為失敗
			mu.Lock()
			summary.Failed++
			mu.Unlock()
			logger.Error().Str("subscription_id", sub.ID).Str("stage", "cancelled").Err(err).Msg("unit not started")
			continue
		}

		wg.Add(1)
		go func(sub subscription.Subscription) {
			defer wg.Done()
			defer sem.Release(1)

			outcome := s.processOne(runCtx, logger, sub, day)

			mu.Lock()
			switch outcome.result {
			case dispatch.OutcomeSent:
				summary.Sent++
			case dispatch.OutcomeSkipped:
				summary.Skipped++
			default:
				summary.Failed++
			}
			mu.Unlock()
			s.recorder.RecordOutcome(string(outcome.result))

			var serr *subscription.StoreError
			if outcome.err != nil && errors.As(outcome.err, &serr) {
				storeFault.Store(serr)
				cancel() // 無法記錄進度，整輪中止
			}
		}(sub)
	}

	wg.Wait()
	summary.FinishedAt = s.nowFn()

	result := "ok"
	if serr := storeFault.Load(); serr != nil {
		summary.Err = serr
		result = "store_error"
	}
	s.recorder.RecordRun(result, summary.Processed, summary.FinishedAt.Sub(summary.StartedAt))

	logger.Info().
		Int("processed", summary.Processed).
		Int("sent", summary.Sent).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Dur("took", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("daily signal run finished")

	return summary, summary.Err
}

type unitOutcome struct {
	result dispatch.Outcome
	stage  string
	err    error
}

// processOne 是單一訂閱的工作單元：fetch → signal → score → notify → record。
// 任何一站失敗都就地收斂成 Failed，不外洩到其他訂閱。
func (s *Scheduler) processOne(ctx context.Context, logger zerolog.Logger, sub subscription.Subscription, day time.Time) unitOutcome {
	unitCtx, cancel := context.WithTimeout(ctx, s.cfg.UnitTimeout)
	defer cancel()

	fail := func(stage string, err error) unitOutcome {
		logger.Error().
			Str("subscription_id", sub.ID).
			Str("ticker", sub.Ticker).
			Str("stage", stage).
			Err(err).
			Msg("unit of work failed")
		return unitOutcome{result: dispatch.OutcomeFailed, stage: stage, err: err}
	}

	if err := unitCtx.Err(); err != nil {
		return fail("cancelled", err)
	}

	series, err := s.market.Historical(unitCtx, sub.Ticker)
	if err != nil {
		return fail("fetch", err)
	}
	if _, ok := series.Latest(); !ok {
		return fail("fetch", fmt.Errorf("empty series for %s", sub.Ticker))
	}

	votes, err := s.signals.Votes(unitCtx, sub.Ticker, sub.TradingStrategy, series)
	if err != nil {
		return fail("signal", err)
	}

	res := signal.Score(sub.Ticker, votes)
	rec := s.notifier.Notify(unitCtx, sub, res, day)

	// LastRunAt 記的是本輪的 run day 而非牆上時鐘，
	// 同日去重才能以它和下一輪的 run day 對齊比較。
	if err := s.store.RecordOutcome(unitCtx, sub.ID, rec.Bucket, day); err != nil {
		return fail("record", err)
	}

	logger.Debug().
		Str("subscription_id", sub.ID).
		Str("ticker", sub.Ticker).
		Str("bucket", string(rec.Bucket)).
		Str("outcome", string(rec.Outcome)).
		Str("reason", rec.Reason).
		Msg("unit of work settled")

	if rec.Outcome == dispatch.OutcomeFailed {
		return unitOutcome{result: dispatch.OutcomeFailed, stage: "notify", err: rec.Err}
	}
	return unitOutcome{result: rec.Outcome}
}
