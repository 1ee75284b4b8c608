package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TransportError 表示郵件中繼服務回覆非 2xx 或無法連線。
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mail transport failed: %v", e.Err)
	}
	return fmt.Sprintf("mail transport failed status=%d body=%s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MailerClient 提供簡單的 HTTP 郵件中繼 API 封裝。
type MailerClient struct {
	apiKey     string
	from       string
	prefix     string
	baseURL    string
	httpClient *http.Client
}

// NewMailerClient 建立郵件中繼客戶端；prefix 會附加在主旨前。
func NewMailerClient(baseURL, apiKey, from, prefix string) *MailerClient {
	return &MailerClient{
		apiKey:  apiKey,
		from:    from,
		prefix:  prefix,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type mailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Send 將一封純文字郵件交給中繼服務。非 2xx 回應視為 *TransportError。
func (c *MailerClient) Send(ctx context.Context, to, subject, body string) error {
	if c == nil {
		return &TransportError{Err: fmt.Errorf("mailer client is nil")}
	}
	if c.baseURL == "" {
		return &TransportError{Err: fmt.Errorf("mailer base_url missing")}
	}

	fullSubject := subject
	if c.prefix != "" {
		fullSubject = fmt.Sprintf("[%s] %s", c.prefix, subject)
	}

	payload, _ := json.Marshal(mailPayload{
		From:    c.from,
		To:      to,
		Subject: fullSubject,
		Text:    body,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &TransportError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return nil
}
