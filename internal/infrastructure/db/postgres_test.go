package db

import (
	"context"
	"testing"

	"ai-stock-advisor/internal/infrastructure/config"
)

func TestConnect_NoDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
	}{
		{"empty", ""},
		{"whitespace_only", "   \t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := Connect(context.Background(), config.DBConfig{DSN: tt.dsn})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if pool != nil {
				t.Error("expected nil pool for blank DSN (memory mode)")
			}
		})
	}
}
