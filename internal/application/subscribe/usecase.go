package subscribe

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"ai-stock-advisor/internal/domain/subscription"
)

// Input 是新增訂閱的請求內容。
type Input struct {
	Email           string `json:"email"`
	Ticker          string `json:"ticker"`
	TradingStrategy string `json:"trading_strategy,omitempty"`
}

// Result 是回給前端的結構化結果，驗證失敗也走這個形狀而非錯誤。
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WelcomeMailer 發送訂閱成功的歡迎信。
type WelcomeMailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// UseCase 處理訂閱與退訂。
type UseCase struct {
	store   subscription.Store
	mailer  WelcomeMailer
	dailyAt string
	logger  zerolog.Logger
}

// NewUseCase 建立訂閱用例；dailyAt 用於成功訊息（例如 "05:00"）。
func NewUseCase(store subscription.Store, mailer WelcomeMailer, dailyAt string, logger zerolog.Logger) *UseCase {
	if dailyAt == "" {
		dailyAt = "05:00"
	}
	return &UseCase{store: store, mailer: mailer, dailyAt: dailyAt, logger: logger}
}

// Subscribe 驗證輸入並寫入訂閱；同一 (email, ticker) 重複訂閱會更新策略。
// 驗證失敗不動 Store，回傳 success=false 與可讀原因。
func (uc *UseCase) Subscribe(ctx context.Context, in Input) Result {
	email, ticker := subscription.Normalize(in.Email, in.Ticker)
	if err := subscription.Validate(email, ticker); err != nil {
		var verr *subscription.ValidationError
		if errors.As(err, &verr) {
			return Result{Success: false, Message: verr.Error()}
		}
		return Result{Success: false, Message: "invalid input"}
	}

	sub, created, err := uc.store.Upsert(ctx, email, ticker, in.TradingStrategy)
	if err != nil {
		uc.logger.Error().Err(err).Str("ticker", ticker).Msg("subscription upsert failed")
		return Result{Success: false, Message: "subscription could not be saved, please try again later"}
	}

	// 歡迎信採 best-effort：寄送失敗不影響已寫入的訂閱
	if uc.mailer != nil {
		subject := fmt.Sprintf("Welcome! Daily signals for %s", ticker)
		if err := uc.mailer.Send(ctx, email, subject, uc.welcomeBody(sub)); err != nil {
			uc.logger.Warn().Err(err).Str("subscription_id", sub.ID).Msg("welcome mail failed")
		}
	}

	verb := "Subscribed"
	if !created {
		verb = "Subscription updated"
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("%s! A daily analysis for %s will be sent every day at %s.", verb, ticker, uc.dailyAt),
	}
}

// Unsubscribe 移除訂閱；鍵不存在也回成功，避免洩漏訂閱名單。
func (uc *UseCase) Unsubscribe(ctx context.Context, email, ticker string) Result {
	email, ticker = subscription.Normalize(email, ticker)
	if err := subscription.Validate(email, ticker); err != nil {
		var verr *subscription.ValidationError
		if errors.As(err, &verr) {
			return Result{Success: false, Message: verr.Error()}
		}
		return Result{Success: false, Message: "invalid input"}
	}

	if err := uc.store.Remove(ctx, email, ticker); err != nil {
		uc.logger.Error().Err(err).Str("ticker", ticker).Msg("unsubscribe failed")
		return Result{Success: false, Message: "unsubscribe failed, please try again later"}
	}
	return Result{Success: true, Message: fmt.Sprintf("Unsubscribed from %s.", ticker)}
}

func (uc *UseCase) welcomeBody(sub subscription.Subscription) string {
	body := fmt.Sprintf("You are now subscribed to daily trading signals for %s.\n", sub.Ticker)
	if sub.TradingStrategy != "" {
		body += fmt.Sprintf("Trading strategy: %s\n", sub.TradingStrategy)
	}
	body += fmt.Sprintf("\nThe first analysis arrives tomorrow at %s.\n", uc.dailyAt)
	return body
}
