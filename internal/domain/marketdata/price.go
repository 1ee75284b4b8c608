package marketdata

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TrailingSessions 是歷史資料的固定回看窗口（約一年的交易日）。
const TrailingSessions = 252

// ClosingPrice 描述單一交易日的收盤價。
type ClosingPrice struct {
	Date  time.Time
	Close decimal.Decimal
}

// Series 是由舊到新排序的收盤價序列。
type Series []ClosingPrice

// ValidationError 收集多個驗證失敗原因。
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("price series validation failed: %v", e.Reasons)
}

// Validate 檢查序列完整性：由舊到新、日期不重複、收盤價非負。
func (s Series) Validate() error {
	var reasons []string

	if len(s) == 0 {
		reasons = append(reasons, "series is empty")
	}

	seen := make(map[string]struct{}, len(s))
	for i, p := range s {
		if p.Date.IsZero() {
			reasons = append(reasons, fmt.Sprintf("entry %d: date is required", i))
			continue
		}
		key := p.Date.Format("2006-01-02")
		if _, dup := seen[key]; dup {
			reasons = append(reasons, fmt.Sprintf("duplicate date %s", key))
		}
		seen[key] = struct{}{}

		if i > 0 && !s[i-1].Date.Before(p.Date) {
			reasons = append(reasons, fmt.Sprintf("entry %d: dates must be ascending", i))
		}
		if p.Close.IsNegative() {
			reasons = append(reasons, fmt.Sprintf("entry %d: close must be >= 0", i))
		}
	}

	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

// Closes 回傳 float64 收盤價切片，供指標運算使用。
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close.InexactFloat64()
	}
	return out
}

// Latest 回傳最新一筆收盤價；序列為空時 ok 為 false。
func (s Series) Latest() (ClosingPrice, bool) {
	if len(s) == 0 {
		return ClosingPrice{}, false
	}
	return s[len(s)-1], true
}
