package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Routing      RoutingConfig
	DevOps       DevOpsConfig
	Marketplace  MarketplaceConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// RoutingConfig locates the support routing table.
type RoutingConfig struct {
	FilePath string
}

// DevOpsConfig holds Azure DevOps connection values. The PAT is read from
// a mounted secret file; an empty value is tolerated at startup and only
// fails when a work item creation is attempted.
type DevOpsConfig struct {
	OrgURL      string
	PATFile     string
	PAT         string
	TimeoutSecs int
}

// MarketplaceConfig holds the APIM-fronted marketplace and communications
// API settings shared by the licensing and notification clients.
type MarketplaceConfig struct {
	BaseURL         string
	SubscriptionKey string
	TimeoutSecs     int
}

// NotificationConfig controls confirmation emails.
type NotificationConfig struct {
	Enabled     bool
	FromEmail   string
	TimeoutSecs int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-intake"),
			Env:                   getEnv("APP_ENV", "dev"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "1.0.0"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Routing: RoutingConfig{
			FilePath: getEnv("ROUTING_CONFIG_PATH", "config/support-routing.yaml"),
		},
		DevOps: DevOpsConfig{
			OrgURL:      getEnv("DEVOPS_ORG_URL", "https://dev.azure.com/acidni"),
			PATFile:     getEnv("DEVOPS_PAT_FILE", ""),
			PAT:         os.Getenv("DEVOPS_PAT"),
			TimeoutSecs: getEnvAsInt("DEVOPS_TIMEOUT_SECONDS", 30),
		},
		Marketplace: MarketplaceConfig{
			BaseURL:         getEnv("APIM_BASE_URL", "https://apim-terprint-dev.azure-api.net"),
			SubscriptionKey: os.Getenv("APIM_SUBSCRIPTION_KEY"),
			TimeoutSecs:     getEnvAsInt("MARKETPLACE_TIMEOUT_SECONDS", 10),
		},
		Notification: NotificationConfig{
			Enabled:     getEnvAsBool("NOTIFICATIONS_ENABLED", true),
			FromEmail:   getEnv("NOTIFY_EMAIL_FROM", "support@acidni.net"),
			TimeoutSecs: getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 15),
		},
	}

	return cfg, nil
}

// LoadPAT resolves the DevOps personal access token, preferring the secret
// file over the environment variable. A missing secret file is surfaced to
// the caller, which logs it and continues; submissions needing the token
// fail at call time instead.
func (d *DevOpsConfig) LoadPAT() (string, error) {
	if d.PATFile != "" {
		content, err := os.ReadFile(d.PATFile)
		if err != nil {
			return d.PAT, err
		}
		d.PAT = strings.TrimSpace(string(content))
	}
	return d.PAT, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the DevOps API call timeout.
func (d DevOpsConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSecs) * time.Second
}

// Timeout returns the marketplace API call timeout.
func (m MarketplaceConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSecs) * time.Second
}

// Timeout returns the email send timeout.
func (n NotificationConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSecs) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
