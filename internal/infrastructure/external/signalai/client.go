package signalai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "ai-stock-advisor/internal/domain/marketdata"
	"ai-stock-advisor/internal/domain/signal"
)

// ProviderError 表示指標訊號來源故障或回傳格式不符。整輪中只影響該訂閱。
type ProviderError struct {
	Ticker string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("signal provider failed for %s: %v", e.Ticker, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Client 封裝生成式 AI 後端的訊號 API。
// 提示詞與指標挑選邏輯都在後端，這裡只負責傳輸與格式驗證。
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient 建立指標訊號客戶端。
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type signalRequest struct {
	Ticker          string `json:"ticker"`
	TradingStrategy string `json:"trading_strategy,omitempty"`
}

type signalResponse struct {
	Indicators []struct {
		Name string `json:"name"`
		Vote string `json:"vote"`
	} `json:"indicators"`
}

// Votes 取得 ticker/strategy 對應的三個指標判讀。
// 指標挑選發生在後端，傳入的價格序列不上送。
// 回傳不是剛好三筆或票值不合法時視為 *ProviderError。
func (c *Client) Votes(ctx context.Context, ticker, strategy string, _ domain.Series) ([3]signal.IndicatorVote, error) {
	var out [3]signal.IndicatorVote

	payload, _ := json.Marshal(signalRequest{Ticker: ticker, TradingStrategy: strategy})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/signal", bytes.NewReader(payload))
	if err != nil {
		return out, &ProviderError{Ticker: ticker, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, &ProviderError{Ticker: ticker, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, &ProviderError{Ticker: ticker, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return out, &ProviderError{Ticker: ticker, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	var parsed signalResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return out, &ProviderError{Ticker: ticker, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Indicators) != 3 {
		return out, &ProviderError{Ticker: ticker, Err: fmt.Errorf("expected 3 indicators, got %d", len(parsed.Indicators))}
	}

	for i, ind := range parsed.Indicators {
		if ind.Name == "" {
			return out, &ProviderError{Ticker: ticker, Err: fmt.Errorf("indicator %d: name is required", i)}
		}
		vote, err := signal.ParseVote(ind.Vote)
		if err != nil {
			return out, &ProviderError{Ticker: ticker, Err: fmt.Errorf("indicator %q: %w", ind.Name, err)}
		}
		out[i] = signal.IndicatorVote{Name: ind.Name, Vote: vote}
	}
	return out, nil
}
