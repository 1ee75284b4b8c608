package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-stock-advisor/internal/domain/signal"
	"ai-stock-advisor/internal/domain/subscription"
)

// Store 為未設定 DSN 時使用的記憶體訂閱庫，行程重啟後資料不保留。
type Store struct {
	mu     sync.RWMutex
	byKey  map[string]*subscription.Subscription // email|ticker -> record
	byID   map[string]*subscription.Subscription
	nowFn  func() time.Time
	nextID func() string
}

// NewStore 建立新的記憶體 Store 實例。
func NewStore() *Store {
	return &Store{
		byKey:  make(map[string]*subscription.Subscription),
		byID:   make(map[string]*subscription.Subscription),
		nowFn:  time.Now,
		nextID: func() string { return uuid.NewString() },
	}
}

// Upsert 以 (email, ticker) 為鍵新增或更新訂閱。
func (s *Store) Upsert(ctx context.Context, email, ticker, strategy string) (subscription.Subscription, bool, error) {
	email, ticker = subscription.Normalize(email, ticker)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := subscription.Key(email, ticker)
	if existing, ok := s.byKey[key]; ok {
		existing.TradingStrategy = strategy
		return *existing, false, nil
	}

	sub := &subscription.Subscription{
		ID:              s.nextID(),
		Email:           email,
		Ticker:          ticker,
		TradingStrategy: strategy,
		CreatedAt:       s.nowFn(),
	}
	s.byKey[key] = sub
	s.byID[sub.ID] = sub
	return *sub, true, nil
}

// ListActive 回傳所有訂閱，依 (email, ticker) 排序以便測試有穩定順序。
func (s *Store) ListActive(ctx context.Context) ([]subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]subscription.Subscription, 0, len(s.byKey))
	for _, sub := range s.byKey {
		out = append(out, *sub)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Email != out[j].Email {
			return out[i].Email < out[j].Email
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out, nil
}

// RecordOutcome 更新單筆訂閱的最後訊號與最後執行時間。
func (s *Store) RecordOutcome(ctx context.Context, id string, bucket signal.Bucket, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.byID[id]
	if !ok {
		return &subscription.StoreError{Op: "record_outcome", Err: errNotFound(id)}
	}
	b := bucket
	t := at
	sub.LastNotifiedSignal = &b
	sub.LastRunAt = &t
	return nil
}

// Remove 刪除訂閱；鍵不存在視為成功。
func (s *Store) Remove(ctx context.Context, email, ticker string) error {
	email, ticker = subscription.Normalize(email, ticker)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := subscription.Key(email, ticker)
	if sub, ok := s.byKey[key]; ok {
		delete(s.byKey, key)
		delete(s.byID, sub.ID)
	}
	return nil
}

type errNotFound string

func (e errNotFound) Error() string {
	return "subscription not found: " + string(e)
}
