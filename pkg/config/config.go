package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Backend   BackendConfig
	Call      CallConfig
	Directory DirectoryConfig
	Firebase  FirebaseConfig
	Logging   LoggingConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustedProxies lists CIDRs or IPs whose X-Forwarded-For is believed
	TrustedProxies []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// BackendConfig holds the conversational backend client configuration
type BackendConfig struct {
	BaseURL          string
	Timeout          time.Duration
	RateLimitRPS     float64
	RateLimitBurst   int
	BreakerFailures  uint32
	BreakerOpenFor   time.Duration
	BreakerHalfOpenN uint32
}

// CallConfig holds video consultation settings
type CallConfig struct {
	// AnswerDelay stands in for the peer negotiation round trip.
	AnswerDelay time.Duration
	// DenyMedia makes the loopback media devices refuse capture.
	DenyMedia bool
}

// DirectoryConfig selects the provider directory source
type DirectoryConfig struct {
	Source   string
	CacheTTL time.Duration
}

// FirebaseConfig holds identity provider configuration
type FirebaseConfig struct {
	Enabled         bool
	ProjectID       string
	CredentialsFile string
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables, falling back to an
// optional config.yaml in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
			RateLimitRPS:   v.GetFloat64("SERVER_RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("SERVER_RATE_LIMIT_BURST"),
			TrustedProxies: splitList(v.GetString("SERVER_TRUSTED_PROXIES")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),

			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Backend: BackendConfig{
			BaseURL:          strings.TrimRight(v.GetString("BACKEND_BASE_URL"), "/"),
			Timeout:          v.GetDuration("BACKEND_TIMEOUT"),
			RateLimitRPS:     v.GetFloat64("BACKEND_RATE_LIMIT_RPS"),
			RateLimitBurst:   v.GetInt("BACKEND_RATE_LIMIT_BURST"),
			BreakerFailures:  v.GetUint32("BACKEND_BREAKER_FAILURES"),
			BreakerOpenFor:   v.GetDuration("BACKEND_BREAKER_OPEN_FOR"),
			BreakerHalfOpenN: v.GetUint32("BACKEND_BREAKER_HALF_OPEN_REQUESTS"),
		},
		Call: CallConfig{
			AnswerDelay: v.GetDuration("CALL_ANSWER_DELAY"),
			DenyMedia:   v.GetBool("CALL_DENY_MEDIA"),
		},
		Directory: DirectoryConfig{
			Source:   strings.ToLower(v.GetString("DIRECTORY_SOURCE")),
			CacheTTL: v.GetDuration("DIRECTORY_CACHE_TTL"),
		},
		Firebase: FirebaseConfig{
			Enabled:         v.GetBool("FIREBASE_ENABLED"),
			ProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
			CredentialsFile: v.GetString("FIREBASE_CREDENTIALS_FILE"),
		},
		Logging: LoggingConfig{
			Level:      v.GetString("LOG_LEVEL"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_FILE_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_FILE_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_FILE_MAX_AGE_DAYS"),
		},
		OTEL: OTELConfig{
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:       v.GetString("OTEL_ENDPOINT"),
			Enabled:        v.GetBool("OTEL_ENABLED"),
		},
	}

	switch cfg.Directory.Source {
	case "static", "postgres":
	default:
		return nil, fmt.Errorf("unknown DIRECTORY_SOURCE %q", cfg.Directory.Source)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("SERVER_RATE_LIMIT_RPS", 20)
	v.SetDefault("SERVER_RATE_LIMIT_BURST", 40)
	v.SetDefault("SERVER_TRUSTED_PROXIES", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "healia")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("BACKEND_BASE_URL", "http://127.0.0.1:5000")
	v.SetDefault("BACKEND_TIMEOUT", 20*time.Second)
	v.SetDefault("BACKEND_RATE_LIMIT_RPS", 5)
	v.SetDefault("BACKEND_RATE_LIMIT_BURST", 10)
	v.SetDefault("BACKEND_BREAKER_FAILURES", 5)
	v.SetDefault("BACKEND_BREAKER_OPEN_FOR", 30*time.Second)
	v.SetDefault("BACKEND_BREAKER_HALF_OPEN_REQUESTS", 1)

	v.SetDefault("CALL_ANSWER_DELAY", 2*time.Second)
	v.SetDefault("CALL_DENY_MEDIA", false)

	v.SetDefault("DIRECTORY_SOURCE", "static")
	v.SetDefault("DIRECTORY_CACHE_TTL", time.Minute)

	v.SetDefault("FIREBASE_ENABLED", false)
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_FILE_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_FILE_MAX_BACKUPS", 5)
	v.SetDefault("LOG_FILE_MAX_AGE_DAYS", 14)

	v.SetDefault("OTEL_SERVICE_NAME", "healia-consult")
	v.SetDefault("OTEL_SERVICE_VERSION", "1.0.0")
	v.SetDefault("OTEL_ENDPOINT", "")
	v.SetDefault("OTEL_ENABLED", false)
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
