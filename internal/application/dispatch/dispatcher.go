package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-stock-advisor/internal/domain/signal"
	"ai-stock-advisor/internal/domain/subscription"
)

// Outcome 是一筆通知的最終狀態。
type Outcome string

const (
	OutcomeSent    Outcome = "Sent"
	OutcomeSkipped Outcome = "Skipped"
	OutcomeFailed  Outcome = "Failed"
)

// Skip 原因，寫進 Record 與結構化日誌。
const (
	ReasonHold            = "hold"
	ReasonAlreadyNotified = "already_notified"
)

// Record 是單一訂閱在一輪中唯一的一筆通知紀錄。
type Record struct {
	SubscriptionID string
	Bucket         signal.Bucket
	SentAt         time.Time
	Outcome        Outcome
	Reason         string
	Err            error
}

// MailSender 抽象郵件傳輸；傳輸失敗時回傳 *notify.TransportError。
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Dispatcher 負責把訊號結果轉成郵件：Hold 壓制、同日去重、失敗重試。
type Dispatcher struct {
	sender      MailSender
	loc         *time.Location
	dailyAt     string
	maxAttempts int
	baseDelay   time.Duration
	nowFn       func() time.Time
	logger      zerolog.Logger
}

// NewDispatcher 建立通知派送器；loc 決定「同一天」的日曆界線，
// dailyAt 是信件內文提到的每日發送時間（"15:04" 格式）。
func NewDispatcher(sender MailSender, loc *time.Location, dailyAt string, logger zerolog.Logger) *Dispatcher {
	if loc == nil {
		loc = time.Local
	}
	if dailyAt == "" {
		dailyAt = "05:00"
	}
	return &Dispatcher{
		sender:      sender,
		loc:         loc,
		dailyAt:     dailyAt,
		maxAttempts: 3,
		baseDelay:   500 * time.Millisecond,
		nowFn:       time.Now,
		logger:      logger,
	}
}

// SetRetry 調整傳輸失敗時的重試上限與初始退避。
func (d *Dispatcher) SetRetry(maxAttempts int, baseDelay time.Duration) {
	if maxAttempts > 0 {
		d.maxAttempts = maxAttempts
	}
	if baseDelay > 0 {
		d.baseDelay = baseDelay
	}
}

// Notify 對單一訂閱套用產品規則並送出郵件。
// 永不回傳 error：傳輸失敗以 OutcomeFailed 回報，由排程彙整。
func (d *Dispatcher) Notify(ctx context.Context, sub subscription.Subscription, res signal.Result, runDay time.Time) Record {
	record := Record{
		SubscriptionID: sub.ID,
		Bucket:         res.Bucket,
		SentAt:         d.nowFn(),
	}

	// 產品規則：Hold 不發信
	if res.Bucket == signal.BucketHold {
		record.Outcome = OutcomeSkipped
		record.Reason = ReasonHold
		return record
	}

	// 同一日曆日已送出過就略過，避免排程重覆觸發造成重複郵件
	if sub.NotifiedOn(runDay, d.loc) {
		record.Outcome = OutcomeSkipped
		record.Reason = ReasonAlreadyNotified
		return record
	}

	subject := fmt.Sprintf("%s: %s", sub.Ticker, res.Bucket)
	body := renderBody(sub, res, d.dailyAt)

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		lastErr = d.sender.Send(ctx, sub.Email, subject, body)
		if lastErr == nil {
			record.Outcome = OutcomeSent
			return record
		}

		d.logger.Warn().
			Str("subscription_id", sub.ID).
			Int("attempt", attempt).
			Err(lastErr).
			Msg("mail send failed")

		if attempt == d.maxAttempts {
			break
		}
		// 指數退避：base, 2*base, 4*base...
		delay := d.baseDelay << (attempt - 1)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			record.Outcome = OutcomeFailed
			record.Err = ctx.Err()
			return record
		}
	}

	record.Outcome = OutcomeFailed
	record.Err = lastErr
	return record
}

func renderBody(sub subscription.Subscription, res signal.Result, dailyAt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily signal for %s\n\n", sub.Ticker)
	fmt.Fprintf(&b, "Overall signal: %s (score %+d)\n\n", res.Bucket, res.TotalScore)
	b.WriteString("Indicators:\n")
	for _, ind := range res.Indicators {
		fmt.Fprintf(&b, "  - %s: %s\n", ind.Name, ind.Vote)
	}
	if sub.TradingStrategy != "" {
		fmt.Fprintf(&b, "\nTrading strategy: %s\n", sub.TradingStrategy)
	}
	fmt.Fprintf(&b, "\nYou receive this analysis every day at %s. Reply to unsubscribe.\n", dailyAt)
	return b.String()
}
