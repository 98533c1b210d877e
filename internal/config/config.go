// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment constants
const (
	EnvProduction = "production"
)

// Config holds all application configuration.
type Config struct {
	App          AppConfig
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Log          LogConfig
	Scan         ScanConfig
	Shannon      ShannonConfig
	AI           AIConfig
	Radar        RadarConfig
	Worker       WorkerConfig
	Notification NotificationConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name  string
	Env   string
	Debug bool
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64
}

// Addr returns the host:port address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns the host:port address.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// ScanConfig holds scan pipeline configuration: queue bounds, fusion
// constants and score thresholds. The numeric defaults are the reference
// heuristics, pinned by golden tests.
type ScanConfig struct {
	MaxConcurrent         int
	MaxParallelScans      int
	ValidationConcurrency int

	FusionBoost           float64
	AIOnlyMultiplier      float64
	ShannonOnlyMultiplier float64

	CriticalBlockCount   int
	MinSecureCodingScore float64
}

// ShannonConfig holds exploit-validator adapter configuration.
type ShannonConfig struct {
	Enabled       bool
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
	RateBurst     int
}

// AIConfig holds AI validator configuration.
type AIConfig struct {
	Enabled         bool
	Provider        string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	Model           string
	TimeoutSeconds  int
	MaxRetries      int
	MaxTokens       int
}

// RadarConfig holds radar aggregation configuration.
type RadarConfig struct {
	DecayAfterDays     int
	DecayFactor        float64
	DecaySchedule      string
	HistoryDefaultDays int
}

// WorkerConfig holds background worker configuration.
type WorkerConfig struct {
	Concurrency int
}

// NotificationConfig holds owner-alert delivery configuration. An empty
// webhook URL disables owner notifications.
type NotificationConfig struct {
	OwnerWebhookURL string
	Timeout         time.Duration
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:  getEnv("APP_NAME", "codegate-api"),
			Env:   getEnv("APP_ENV", "development"),
			Debug: getEnvBool("APP_DEBUG", false),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			RequestTimeout:  getEnvDuration("SERVER_REQUEST_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			MaxBodySize:     getEnvInt64("SERVER_MAX_BODY_SIZE", 10<<20),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "codegate"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "codegate"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Scan: ScanConfig{
			MaxConcurrent:         getEnvInt("SCAN_MAX_CONCURRENT", 5),
			MaxParallelScans:      getEnvInt("SCAN_MAX_PARALLEL_PER_REPO", 5),
			ValidationConcurrency: getEnvInt("SCAN_VALIDATION_CONCURRENCY", 4),
			FusionBoost:           getEnvFloat("SCAN_FUSION_BOOST", 0.15),
			AIOnlyMultiplier:      getEnvFloat("SCAN_FUSION_AI_MULTIPLIER", 0.80),
			ShannonOnlyMultiplier: getEnvFloat("SCAN_FUSION_SHANNON_MULTIPLIER", 0.70),
			CriticalBlockCount:    getEnvInt("SCAN_CRITICAL_BLOCK_COUNT", 1),
			MinSecureCodingScore:  getEnvFloat("SCAN_MIN_SECURE_CODING_SCORE", 70),
		},
		Shannon: ShannonConfig{
			Enabled:       getEnvBool("SHANNON_ENABLED", false),
			BaseURL:       getEnv("SHANNON_BASE_URL", "http://localhost:9090"),
			APIKey:        getEnv("SHANNON_API_KEY", ""),
			Timeout:       getEnvDuration("SHANNON_TIMEOUT", 30*time.Second),
			RatePerSecond: getEnvFloat("SHANNON_RATE_PER_SECOND", 2),
			RateBurst:     getEnvInt("SHANNON_RATE_BURST", 4),
		},
		AI: AIConfig{
			Enabled:         getEnvBool("AI_ENABLED", true),
			Provider:        getEnv("AI_PROVIDER", "claude"),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			Model:           getEnv("AI_MODEL", ""),
			TimeoutSeconds:  getEnvInt("AI_TIMEOUT_SECONDS", 30),
			MaxRetries:      getEnvInt("AI_MAX_RETRIES", 3),
			MaxTokens:       getEnvInt("AI_MAX_TOKENS", 2000),
		},
		Radar: RadarConfig{
			DecayAfterDays:     getEnvInt("RADAR_DECAY_AFTER_DAYS", 30),
			DecayFactor:        getEnvFloat("RADAR_DECAY_FACTOR", 0.98),
			DecaySchedule:      getEnv("RADAR_DECAY_SCHEDULE", "0 3 * * *"),
			HistoryDefaultDays: getEnvInt("RADAR_HISTORY_DEFAULT_DAYS", 30),
		},
		Worker: WorkerConfig{
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 10),
		},
		Notification: NotificationConfig{
			OwnerWebhookURL: getEnv("NOTIFY_OWNER_WEBHOOK_URL", ""),
			Timeout:         getEnvDuration("NOTIFY_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Scan.MaxConcurrent < 1 {
		return fmt.Errorf("SCAN_MAX_CONCURRENT must be at least 1, got %d", c.Scan.MaxConcurrent)
	}
	if c.Scan.MaxParallelScans < 1 {
		return fmt.Errorf("SCAN_MAX_PARALLEL_PER_REPO must be at least 1, got %d", c.Scan.MaxParallelScans)
	}
	if c.Scan.FusionBoost < 0 || c.Scan.FusionBoost > 1 {
		return fmt.Errorf("SCAN_FUSION_BOOST must be in [0,1], got %f", c.Scan.FusionBoost)
	}
	if c.Radar.DecayFactor <= 0 || c.Radar.DecayFactor > 1 {
		return fmt.Errorf("RADAR_DECAY_FACTOR must be in (0,1], got %f", c.Radar.DecayFactor)
	}
	if err := c.validateLog(); err != nil {
		return err
	}
	if c.App.Env == EnvProduction && c.Shannon.Enabled && c.Shannon.APIKey == "" {
		return fmt.Errorf("SHANNON_API_KEY is required in production when the validator is enabled")
	}
	return nil
}

func (c *Config) validateLog() error {
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be debug, info, warn, or error)", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %s (must be json or text)", c.Log.Format)
	}
	return nil
}

// IsProduction returns true if the application is in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
