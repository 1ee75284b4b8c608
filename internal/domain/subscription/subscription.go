package subscription

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ai-stock-advisor/internal/domain/signal"
)

// Subscription 描述一組 (email, ticker) 的每日訊號訂閱。
// 由 Store 獨佔持有；只有 Upsert 與排程結束後的 RecordOutcome 會改動它。
type Subscription struct {
	ID                 string
	Email              string
	Ticker             string
	TradingStrategy    string
	CreatedAt          time.Time
	LastNotifiedSignal *signal.Bucket
	LastRunAt          *time.Time
}

// Key 回傳正規化後的識別鍵，格式為 "email|ticker"。
func (s Subscription) Key() string {
	return Key(s.Email, s.Ticker)
}

// Key 組合 (email, ticker) 唯一鍵。呼叫端需先 Normalize。
func Key(email, ticker string) string {
	return email + "|" + ticker
}

// NotifiedOn 回報訂閱是否已在指定日曆日（以 loc 換算）送出過通知。
func (s Subscription) NotifiedOn(day time.Time, loc *time.Location) bool {
	if s.LastRunAt == nil || s.LastNotifiedSignal == nil {
		return false
	}
	y1, m1, d1 := s.LastRunAt.In(loc).Date()
	y2, m2, d2 := day.In(loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

var (
	validate      = validator.New()
	tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,12}$`)
)

// Normalize 回傳鍵值正規化後的 email 與 ticker：
// email 轉小寫、ticker 轉大寫，皆去除前後空白。
func Normalize(email, ticker string) (string, string) {
	return strings.ToLower(strings.TrimSpace(email)), strings.ToUpper(strings.TrimSpace(ticker))
}

// Validate 檢查正規化後的欄位。失敗回傳 *ValidationError。
func Validate(email, ticker string) error {
	if email == "" {
		return &ValidationError{Field: "email", Reason: "email is required"}
	}
	if err := validate.Var(email, "email"); err != nil {
		return &ValidationError{Field: "email", Reason: "not a valid email address"}
	}
	if ticker == "" {
		return &ValidationError{Field: "ticker", Reason: "ticker is required"}
	}
	if !tickerPattern.MatchString(ticker) {
		return &ValidationError{Field: "ticker", Reason: "ticker may only contain A-Z, 0-9, '.' or '-' (max 12 chars)"}
	}
	return nil
}

// Store 定義訂閱清單的持久化能力，讓底層技術（記憶體、Postgres）可替換。
type Store interface {
	// Upsert 以正規化後的 (email, ticker) 為鍵新增或更新訂閱；
	// 鍵已存在時覆寫 TradingStrategy 並回傳既有紀錄，created 為 false。
	Upsert(ctx context.Context, email, ticker, strategy string) (Subscription, bool, error)

	// ListActive 回傳所有待跑的訂閱，依 (email, ticker) 穩定排序。
	ListActive(ctx context.Context) ([]Subscription, error)

	// RecordOutcome 原子性更新單筆訂閱的 LastNotifiedSignal 與 LastRunAt。
	RecordOutcome(ctx context.Context, id string, bucket signal.Bucket, at time.Time) error

	// Remove 取消訂閱；鍵不存在視為成功。
	Remove(ctx context.Context, email, ticker string) error
}
