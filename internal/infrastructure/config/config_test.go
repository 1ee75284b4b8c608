package config

import (
	"os"
	"testing"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg = applyDefaults(cfg)

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.HTTP.Addr)
	}
	if cfg.Scheduler.DailyAt != "05:00" {
		t.Errorf("expected 05:00, got %s", cfg.Scheduler.DailyAt)
	}
	if cfg.Scheduler.MaxConcurrency != 4 {
		t.Errorf("expected 4, got %d", cfg.Scheduler.MaxConcurrency)
	}
	if cfg.MarketData.Timeout.Seconds() != 10 {
		t.Errorf("expected 10s, got %v", cfg.MarketData.Timeout)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("SCHEDULER_DAILY_AT", "06:30")
	os.Setenv("USE_SYNTHETIC", "true")
	defer func() {
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("SCHEDULER_DAILY_AT")
		os.Unsetenv("USE_SYNTHETIC")
	}()

	cfg := Config{}
	cfg = applyEnv(cfg)

	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.HTTP.Addr)
	}
	if cfg.Scheduler.DailyAt != "06:30" {
		t.Errorf("expected 06:30, got %s", cfg.Scheduler.DailyAt)
	}
	if !cfg.MarketData.UseSynthetic {
		t.Error("expected UseSynthetic true")
	}
}

func TestSchedulerConfig_Location(t *testing.T) {
	loc, err := SchedulerConfig{Timezone: "Local"}.Location()
	if err != nil || loc == nil {
		t.Fatalf("Location() = %v, %v", loc, err)
	}

	if _, err := (SchedulerConfig{Timezone: "Not/AZone"}).Location(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
