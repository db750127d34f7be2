package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// Push platforms
const (
	PlatformDingTalk = "dingtalk"
	PlatformTelegram = "telegram"
	PlatformWebhook  = "webhook"
	PlatformLog      = "log"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	Env string `validate:"oneof=development staging production"`

	// Logging
	LogLevel  string
	LogFormat string `validate:"oneof=json console pretty"`

	Database DatabaseConfig
	Redis    RedisConfig
	Provider ProviderConfig
	Scan     ScanConfig
	Push     PushConfig
	API      APIConfig
	Metrics  MetricsConfig
}

// DatabaseConfig holds the result store connection settings
type DatabaseConfig struct {
	Driver string `validate:"oneof=postgres sqlite"`
	URL    string `validate:"required"`

	// Connection Pool
	MaxConns        int `validate:"gte=1"`
	MaxIdleConns    int `validate:"gte=0"`
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration (shared provider rate limit)
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ProviderConfig holds market data provider settings
type ProviderConfig struct {
	KlineURL string `validate:"required,url"`
	ListURL  string `validate:"required,url"`
	Adjust   string `validate:"oneof=none qfq hfq"`

	Timeout        time.Duration `validate:"gt=0"`
	MaxAttempts    int           `validate:"gte=1,lte=10"`
	InitialBackoff time.Duration `validate:"gte=0"`
	MaxBackoff     time.Duration `validate:"gte=0"`
	PacingDelay    time.Duration `validate:"gte=0"`
	Workers        int           `validate:"gte=1,lte=16"`
	BackfillDays   int           `validate:"gte=1"`
	RateLimit      int           `validate:"gte=1"` // requests per second through the shared limiter
}

// ScanConfig holds scan settings
type ScanConfig struct {
	EnabledStrategies       []string `validate:"min=1,dive,required"`
	StrategyConfig          string   // optional YAML file with strategy parameters
	HistoryDays             int      `validate:"gte=1"`
	Schedule                string   `validate:"required"`
	Workers                 int      `validate:"gte=1,lte=64"`
	IncludeDelisted         bool
	RegistryRefreshInterval time.Duration `validate:"gte=0"`
	Timezone                string        `validate:"required"`
	SessionClose            time.Duration `validate:"gte=0,lt=24h"` // bars before this time of day are not final
}

// PushConfig holds notifier settings
// Credentials live only in the environment and are never persisted.
type PushConfig struct {
	Enabled         bool
	Platform        string `validate:"oneof=dingtalk telegram webhook log"`
	TopN            int    `validate:"gte=1"`
	DingTalkWebhook string
	WebhookURL      string
	TelegramToken   string
	TelegramChatID  int64
}

// APIConfig holds query API settings
type APIConfig struct {
	Port string `validate:"required,numeric"`
}

// MetricsConfig holds prometheus settings
type MetricsConfig struct {
	Enabled        bool
	PushgatewayURL string `validate:"omitempty,url"`
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	env := &envReader{}

	cfg := &Config{
		Env: env.getString("ENV", "development"),

		LogLevel:  env.getString("LOG_LEVEL", "info"),
		LogFormat: env.getString("LOG_FORMAT", "json"),

		Database: DatabaseConfig{
			Driver:          env.getString("DB_DRIVER", DriverSQLite),
			URL:             env.getString("DATABASE_URL", "data/stock.db"),
			MaxConns:        env.getInt("DB_MAX_CONNS", 10),
			MaxIdleConns:    env.getInt("DB_MAX_IDLE_CONNS", 5),
			MaxConnLifetime: env.getDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: env.getDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     env.getString("REDIS_HOST", "localhost"),
			Port:     env.getString("REDIS_PORT", "6379"),
			Password: env.getString("REDIS_PASSWORD", ""),
			DB:       env.getInt("REDIS_DB", 0),
			Enabled:  env.getBool("REDIS_ENABLED", false),
		},

		Provider: ProviderConfig{
			KlineURL:       env.getString("PROVIDER_KLINE_URL", "https://push2his.eastmoney.com/api/qt/stock/kline/get"),
			ListURL:        env.getString("PROVIDER_LIST_URL", "https://push2.eastmoney.com/api/qt/clist/get"),
			Adjust:         env.getString("PROVIDER_ADJUST", "none"),
			Timeout:        env.getDuration("PROVIDER_TIMEOUT", "15s"),
			MaxAttempts:    env.getInt("PROVIDER_MAX_ATTEMPTS", 3),
			InitialBackoff: env.getDuration("PROVIDER_INITIAL_BACKOFF", "1s"),
			MaxBackoff:     env.getDuration("PROVIDER_MAX_BACKOFF", "10s"),
			PacingDelay:    env.getDuration("PROVIDER_PACING_DELAY", "200ms"),
			Workers:        env.getInt("PROVIDER_WORKERS", 1),
			BackfillDays:   env.getInt("SYNC_BACKFILL_DAYS", 120),
			RateLimit:      env.getInt("PROVIDER_RATE_LIMIT", 5),
		},

		Scan: ScanConfig{
			EnabledStrategies:       env.getList("ENABLED_STRATEGIES", "golden_cross,macd_cross"),
			StrategyConfig:          env.getString("STRATEGY_CONFIG", ""),
			HistoryDays:             env.getInt("HISTORY_DAYS", 60),
			Schedule:                env.getString("SCAN_SCHEDULE", "30 15 * * 1-5"),
			Workers:                 env.getInt("SCAN_WORKERS", 4),
			IncludeDelisted:         env.getBool("SCAN_INCLUDE_DELISTED", false),
			RegistryRefreshInterval: env.getDuration("REGISTRY_REFRESH_INTERVAL", "168h"),
			Timezone:                env.getString("MARKET_TIMEZONE", "Asia/Shanghai"),
			SessionClose:            env.getDuration("MARKET_SESSION_CLOSE", "15h30m"),
		},

		Push: PushConfig{
			Enabled:         env.getBool("PUSH_ENABLED", false),
			Platform:        strings.ToLower(env.getString("PUSH_PLATFORM", PlatformLog)),
			TopN:            env.getInt("PUSH_TOP_N", 20),
			DingTalkWebhook: env.getString("DINGTALK_WEBHOOK", ""),
			WebhookURL:      env.getString("PUSH_WEBHOOK_URL", ""),
			TelegramToken:   env.getString("TELEGRAM_BOT_TOKEN", ""),
			TelegramChatID:  env.getInt64("TELEGRAM_CHAT_ID", 0),
		},

		API: APIConfig{
			Port: env.getString("API_PORT", "8089"),
		},

		Metrics: MetricsConfig{
			Enabled:        env.getBool("METRICS_ENABLED", true),
			PushgatewayURL: env.getString("METRICS_PUSHGATEWAY_URL", ""),
		},
	}

	if len(env.errs) > 0 {
		return nil, env.errs[0]
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location returns the market calendar timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scan.Timezone)
	if err != nil {
		return contracts.MarketLocation
	}
	return loc
}

var structValidator = validator.New()

// validate checks struct tags first, then cross-field rules
func (c *Config) validate() error {
	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &contracts.ConfigurationError{
				Field:  fe.Namespace(),
				Reason: fmt.Sprintf("failed %q check (value %v)", fe.Tag(), fe.Value()),
			}
		}
		return &contracts.ConfigurationError{Field: "config", Reason: err.Error()}
	}

	if _, err := cron.ParseStandard(c.Scan.Schedule); err != nil {
		return &contracts.ConfigurationError{Field: "SCAN_SCHEDULE", Reason: err.Error()}
	}

	if _, err := time.LoadLocation(c.Scan.Timezone); err != nil {
		return &contracts.ConfigurationError{Field: "MARKET_TIMEZONE", Reason: err.Error()}
	}

	if c.Provider.MaxBackoff < c.Provider.InitialBackoff {
		return &contracts.ConfigurationError{Field: "PROVIDER_MAX_BACKOFF", Reason: "must not be smaller than PROVIDER_INITIAL_BACKOFF"}
	}

	seen := make(map[string]bool, len(c.Scan.EnabledStrategies))
	for _, name := range c.Scan.EnabledStrategies {
		if seen[name] {
			return &contracts.ConfigurationError{Field: "ENABLED_STRATEGIES", Reason: fmt.Sprintf("duplicate strategy %q", name)}
		}
		seen[name] = true
	}

	if c.Push.Enabled {
		switch c.Push.Platform {
		case PlatformDingTalk:
			if c.Push.DingTalkWebhook == "" {
				return &contracts.ConfigurationError{Field: "DINGTALK_WEBHOOK", Reason: "required when PUSH_PLATFORM=dingtalk"}
			}
		case PlatformWebhook:
			if c.Push.WebhookURL == "" {
				return &contracts.ConfigurationError{Field: "PUSH_WEBHOOK_URL", Reason: "required when PUSH_PLATFORM=webhook"}
			}
		case PlatformTelegram:
			if c.Push.TelegramToken == "" || c.Push.TelegramChatID == 0 {
				return &contracts.ConfigurationError{Field: "TELEGRAM_BOT_TOKEN", Reason: "token and TELEGRAM_CHAT_ID required when PUSH_PLATFORM=telegram"}
			}
		}
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// envReader reads typed variables and remembers the first malformed one
type envReader struct {
	errs []error
}

func (r *envReader) fail(key, value, kind string) {
	r.errs = append(r.errs, &contracts.ConfigurationError{
		Field:  key,
		Reason: fmt.Sprintf("%q is not a valid %s", value, kind),
	})
}

func (r *envReader) getString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func (r *envReader) getList(key, defaultValue string) []string {
	raw := r.getString(key, defaultValue)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *envReader) getInt(key string, defaultValue int) int {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		r.fail(key, valueStr, "integer")
		return defaultValue
	}

	return value
}

func (r *envReader) getInt64(key string, defaultValue int64) int64 {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		r.fail(key, valueStr, "integer")
		return defaultValue
	}

	return value
}

func (r *envReader) getBool(key string, defaultValue bool) bool {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		r.fail(key, valueStr, "boolean")
		return defaultValue
	}

	return value
}

func (r *envReader) getDuration(key string, defaultValue string) time.Duration {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		r.fail(key, valueStr, "duration")
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
