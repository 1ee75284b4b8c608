package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	domain "ai-stock-advisor/internal/domain/marketdata"
)

// FetchError 表示歷史價格來源不可用或代號不存在。整輪中只影響該訂閱。
type FetchError struct {
	Ticker string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("market data fetch failed for %s: %v", e.Ticker, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client 是歷史收盤價 API 的 HTTP 封裝。
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient 建立歷史價格客戶端。
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type historyResponse struct {
	Ticker string `json:"ticker"`
	Points []struct {
		Date  string  `json:"date"`
		Close float64 `json:"close"`
	} `json:"points"`
}

// Historical 取得最近 252 個交易日的收盤價，由舊到新。
func (c *Client) Historical(ctx context.Context, ticker string) (domain.Series, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("days", fmt.Sprintf("%d", domain.TrailingSessions))

	fullURL := fmt.Sprintf("%s/v1/history?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &FetchError{Ticker: ticker, Err: err}
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Ticker: ticker, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Ticker: ticker, Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &FetchError{Ticker: ticker, Err: fmt.Errorf("unknown ticker")}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Ticker: ticker, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	var parsed historyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &FetchError{Ticker: ticker, Err: fmt.Errorf("decode response: %w", err)}
	}

	series := make(domain.Series, 0, len(parsed.Points))
	for _, p := range parsed.Points {
		date, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return nil, &FetchError{Ticker: ticker, Err: fmt.Errorf("bad date %q: %w", p.Date, err)}
		}
		series = append(series, domain.ClosingPrice{
			Date:  date,
			Close: decimal.NewFromFloat(p.Close),
		})
	}
	if err := series.Validate(); err != nil {
		return nil, &FetchError{Ticker: ticker, Err: err}
	}
	return series, nil
}
