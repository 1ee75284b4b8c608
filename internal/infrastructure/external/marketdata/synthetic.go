package marketdata

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	domain "ai-stock-advisor/internal/domain/marketdata"
)

// Synthetic 為無法取數（或本機開發）時的確定性假資料來源。
// 相同 ticker 與結束日永遠產出相同序列，方便測試與展示。
type Synthetic struct {
	nowFn func() time.Time
}

// NewSynthetic 建立合成資料來源。
func NewSynthetic() *Synthetic {
	return &Synthetic{nowFn: time.Now}
}

// Historical 產生 252 個交易日（略過週末）的收盤價，由舊到新。
// 起始價與長期漂移由 ticker 字元決定。
func (s *Synthetic) Historical(ctx context.Context, ticker string) (domain.Series, error) {
	if ticker == "" {
		return nil, &FetchError{Ticker: ticker, Err: fmt.Errorf("ticker is required")}
	}

	seed := int64(0)
	for _, r := range ticker {
		seed = seed*31 + int64(r)
	}
	rng := rand.New(rand.NewSource(seed))

	startPrice := 100.0 + float64(ticker[0]%50)
	drift := 0.0
	if len(ticker) > 1 {
		drift = 0.05 * float64(ticker[1]%5) / 10.0
	}

	// 回溯收集 252 個交易日（略過週末），再反轉為由舊到新
	y, m, d := s.nowFn().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, 0, domain.TrailingSessions)
	for len(dates) < domain.TrailingSessions {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, day)
		}
		day = day.AddDate(0, 0, -1)
	}
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}

	series := make(domain.Series, 0, domain.TrailingSessions)
	lastClose := startPrice
	for i, date := range dates {
		changePercent := (rng.Float64() - 0.49) * 0.05 // 約 -2.45% 到 +2.55%
		close := lastClose*(1+changePercent) + float64(i)*drift
		if close < 1 {
			close = 1
		}
		series = append(series, domain.ClosingPrice{
			Date:  date,
			Close: decimal.NewFromFloat(close).Round(2),
		})
		lastClose = close
	}
	return series, nil
}
