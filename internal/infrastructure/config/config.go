package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 儲存 HTTP API、排程與外部相依的執行設定。
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	DB         DBConfig         `yaml:"db"`
	Log        LogConfig        `yaml:"log"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Mailer     MailerConfig     `yaml:"mailer"`
	MarketData MarketDataConfig `yaml:"market_data"`
	SignalAI   SignalAIConfig   `yaml:"signal_ai"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

type SchedulerConfig struct {
	Enabled        bool          `yaml:"enabled"`
	DailyAt        string        `yaml:"daily_at"` // "15:04" wall-clock time
	Timezone       string        `yaml:"timezone"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	UnitTimeout    time.Duration `yaml:"unit_timeout"`
}

type MailerConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	From          string `yaml:"from"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type MarketDataConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	UseSynthetic bool          `yaml:"use_synthetic"`
}

type SignalAIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	UseRuleBased bool          `yaml:"use_rule_based"`
}

// LoadFromFile 從 YAML 組態檔載入設定。
func LoadFromFile(path string) (Config, error) {
	// 嘗試載入 .env 檔案（如果存在）
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	return cfg, nil
}

func applyDefaults(cfg Config) Config {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Scheduler.DailyAt == "" {
		cfg.Scheduler.DailyAt = "05:00"
	}
	if cfg.Scheduler.Timezone == "" {
		cfg.Scheduler.Timezone = "Local"
	}
	if cfg.Scheduler.MaxConcurrency == 0 {
		cfg.Scheduler.MaxConcurrency = 4
	}
	if cfg.Scheduler.UnitTimeout == 0 {
		cfg.Scheduler.UnitTimeout = 30 * time.Second
	}
	if cfg.Mailer.From == "" {
		cfg.Mailer.From = "signals@ai-stock-advisor.local"
	}
	if cfg.MarketData.Timeout == 0 {
		cfg.MarketData.Timeout = 10 * time.Second
	}
	if cfg.SignalAI.Timeout == 0 {
		cfg.SignalAI.Timeout = 20 * time.Second
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		cfg.Log.Format = val
	}
	if val := os.Getenv("SCHEDULER_ENABLED"); val != "" {
		cfg.Scheduler.Enabled = (val == "true")
	}
	if val := os.Getenv("SCHEDULER_DAILY_AT"); val != "" {
		cfg.Scheduler.DailyAt = val
	}
	if val := os.Getenv("SCHEDULER_TIMEZONE"); val != "" {
		cfg.Scheduler.Timezone = val
	}
	if val := os.Getenv("SCHEDULER_MAX_CONCURRENCY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			cfg.Scheduler.MaxConcurrency = n
		}
	}
	if val := os.Getenv("MAILER_BASE_URL"); val != "" {
		cfg.Mailer.BaseURL = val
	}
	if val := os.Getenv("MAILER_API_KEY"); val != "" {
		cfg.Mailer.APIKey = val
	}
	if val := os.Getenv("MAILER_FROM"); val != "" {
		cfg.Mailer.From = val
	}
	if val := os.Getenv("MARKET_DATA_BASE_URL"); val != "" {
		cfg.MarketData.BaseURL = val
	}
	if val := os.Getenv("MARKET_DATA_API_KEY"); val != "" {
		cfg.MarketData.APIKey = val
	}
	if val := os.Getenv("USE_SYNTHETIC"); val != "" {
		cfg.MarketData.UseSynthetic = (val == "true")
	}
	if val := os.Getenv("SIGNAL_AI_BASE_URL"); val != "" {
		cfg.SignalAI.BaseURL = val
	}
	if val := os.Getenv("SIGNAL_AI_API_KEY"); val != "" {
		cfg.SignalAI.APIKey = val
	}
	if val := os.Getenv("SIGNAL_AI_USE_RULE_BASED"); val != "" {
		cfg.SignalAI.UseRuleBased = (val == "true")
	}
	return cfg
}

// Location 解析排程時區；"Local" 或空字串回傳系統時區。
func (c SchedulerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
