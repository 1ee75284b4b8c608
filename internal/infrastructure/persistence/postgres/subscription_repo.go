package postgres

import (
	"context"
	"database/sql"
	"time"

	"ai-stock-advisor/internal/domain/signal"
	"ai-stock-advisor/internal/domain/subscription"
)

// SubscriptionRepo 提供訂閱清單的 Postgres 存取。
// 所有失敗都包成 *subscription.StoreError，讓排程能辨識持久層故障。
type SubscriptionRepo struct {
	db *sql.DB
}

// NewSubscriptionRepo 建立 Postgres 訂閱 repo。
func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// Upsert 以 (email, ticker) 作為唯一鍵新增或更新；回傳是否為新建。
func (r *SubscriptionRepo) Upsert(ctx context.Context, email, ticker, strategy string) (subscription.Subscription, bool, error) {
	email, ticker = subscription.Normalize(email, ticker)

	const q = `
INSERT INTO subscriptions (id, email, ticker, trading_strategy, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, NOW())
ON CONFLICT (email, ticker)
DO UPDATE SET trading_strategy = EXCLUDED.trading_strategy
RETURNING id, email, ticker, trading_strategy, created_at, last_notified_signal, last_run_at, (xmax = 0) AS inserted
`
	var (
		sub      subscription.Subscription
		bucket   sql.NullString
		lastRun  sql.NullTime
		inserted bool
	)
	err := r.db.QueryRowContext(ctx, q, email, ticker, strategy).Scan(
		&sub.ID, &sub.Email, &sub.Ticker, &sub.TradingStrategy, &sub.CreatedAt, &bucket, &lastRun, &inserted,
	)
	if err != nil {
		return subscription.Subscription{}, false, &subscription.StoreError{Op: "upsert", Err: err}
	}
	applyNullable(&sub, bucket, lastRun)
	return sub, inserted, nil
}

// ListActive 回傳所有訂閱，依 (email, ticker) 排序。
func (r *SubscriptionRepo) ListActive(ctx context.Context) ([]subscription.Subscription, error) {
	const q = `
SELECT id, email, ticker, trading_strategy, created_at, last_notified_signal, last_run_at
FROM subscriptions
ORDER BY email, ticker
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, &subscription.StoreError{Op: "list_active", Err: err}
	}
	defer rows.Close()

	var out []subscription.Subscription
	for rows.Next() {
		var (
			sub     subscription.Subscription
			bucket  sql.NullString
			lastRun sql.NullTime
		)
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.Ticker, &sub.TradingStrategy, &sub.CreatedAt, &bucket, &lastRun); err != nil {
			return nil, &subscription.StoreError{Op: "list_active", Err: err}
		}
		applyNullable(&sub, bucket, lastRun)
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, &subscription.StoreError{Op: "list_active", Err: err}
	}
	return out, nil
}

// RecordOutcome 更新單筆訂閱的最後訊號與最後執行時間（單列 UPDATE，最後寫入者勝）。
func (r *SubscriptionRepo) RecordOutcome(ctx context.Context, id string, bucket signal.Bucket, at time.Time) error {
	const q = `
UPDATE subscriptions
SET last_notified_signal = $2, last_run_at = $3
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, id, string(bucket), at)
	if err != nil {
		return &subscription.StoreError{Op: "record_outcome", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &subscription.StoreError{Op: "record_outcome", Err: sql.ErrNoRows}
	}
	return nil
}

// Remove 取消訂閱；鍵不存在視為成功。
func (r *SubscriptionRepo) Remove(ctx context.Context, email, ticker string) error {
	email, ticker = subscription.Normalize(email, ticker)

	const q = `DELETE FROM subscriptions WHERE email = $1 AND ticker = $2`
	if _, err := r.db.ExecContext(ctx, q, email, ticker); err != nil {
		return &subscription.StoreError{Op: "remove", Err: err}
	}
	return nil
}

func applyNullable(sub *subscription.Subscription, bucket sql.NullString, lastRun sql.NullTime) {
	if bucket.Valid {
		if b, err := signal.ParseBucket(bucket.String); err == nil {
			sub.LastNotifiedSignal = &b
		}
	}
	if lastRun.Valid {
		t := lastRun.Time
		sub.LastRunAt = &t
	}
}
