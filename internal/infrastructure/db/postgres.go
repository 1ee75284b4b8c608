package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ai-stock-advisor/internal/infrastructure/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// 未帶 deadline 的呼叫端以這個上限驗證連線，避免啟動時無限等待。
const defaultPingTimeout = 5 * time.Second

// Connect 建立 PostgreSQL 連線池並以 ping 驗證。
// DSN 為空代表記憶體模式，回傳 (nil, nil) 讓呼叫端改掛 memory store。
func Connect(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, nil
	}

	pool, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxIdleTime(cfg.MaxIdleTime)

	pingCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()
	}
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
