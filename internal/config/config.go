// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Email    EmailConfig
	Feed     FeedConfig
	Log      LogConfig
}

type ServerConfig struct {
	GRPCPort         string
	HTTPPort         string
	Environment      string
	EnableReflection bool
	AutoMigrate      bool
	CORSOrigins      []string
	AdminEmails      []string
	CleanupInterval  time.Duration
}

type DatabaseConfig struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type JWTConfig struct {
	AccessSecret         string
	RefreshSecret        string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

type EmailConfig struct {
	SMTPHost    string
	SMTPPort    int
	Username    string
	Password    string
	FromEmail   string
	FromName    string
	BaseURL     string
	TestingMode bool
}

type FeedConfig struct {
	ResultLimit        int
	PageSize           int
	MessagePageSize    int
	MyTasksPageSize    int
	DefaultRadiusMiles float64
}

type LogConfig struct {
	File  string
	Level string
}

const (
	defaultAccessSecret  = "dev-access-secret-change-in-production"
	defaultRefreshSecret = "dev-refresh-secret-change-in-production"
)

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			GRPCPort:         getEnv("GRPC_PORT", "50051"),
			HTTPPort:         getEnv("HTTP_PORT", "8080"),
			Environment:      getEnv("ENVIRONMENT", "development"),
			EnableReflection: getEnvAsBool("ENABLE_REFLECTION", true),
			AutoMigrate:      getEnvAsBool("AUTO_MIGRATE", true),
			CORSOrigins:      getEnvAsList("CORS_ORIGINS", []string{"*"}),
			AdminEmails:      getEnvAsList("ADMIN_EMAILS", nil),
			CleanupInterval:  getEnvAsDuration("CLEANUP_INTERVAL", time.Hour),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			DSN:      getEnv("DATABASE_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "neighborhelp"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("NICKNAME_CACHE_TTL", 10*time.Minute),
		},
		JWT: JWTConfig{
			AccessSecret:         getEnv("JWT_ACCESS_SECRET", getEnv("JWT_SECRET", defaultAccessSecret)),
			RefreshSecret:        getEnv("JWT_REFRESH_SECRET", getEnv("JWT_SECRET", defaultRefreshSecret)),
			AccessTokenDuration:  getEnvAsDuration("JWT_ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("JWT_REFRESH_TOKEN_DURATION", 7*24*time.Hour),
		},
		Email: EmailConfig{
			SMTPHost:    getEnv("SMTP_HOST", "localhost"),
			SMTPPort:    getEnvAsInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			FromEmail:   getEnv("FROM_EMAIL", "noreply@neighborhelp.local"),
			FromName:    getEnv("FROM_NAME", "NeighborHelp"),
			BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
			TestingMode: getEnvAsBool("EMAIL_TESTING_MODE", true),
		},
		Feed: FeedConfig{
			ResultLimit:        getEnvAsInt("FEED_RESULT_LIMIT", 100),
			PageSize:           getEnvAsInt("FEED_PAGE_SIZE", 10),
			MessagePageSize:    getEnvAsInt("MESSAGE_PAGE_SIZE", 10),
			MyTasksPageSize:    getEnvAsInt("MYTASKS_PAGE_SIZE", 5),
			DefaultRadiusMiles: getEnvAsFloat("DEFAULT_RADIUS_MILES", 5),
		},
		Log: LogConfig{
			File:  getEnv("LOG_FILE", ""),
			Level: getEnv("LOG_LEVEL", ""),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Feed.PageSize <= 0 || c.Feed.MessagePageSize <= 0 || c.Feed.MyTasksPageSize <= 0 {
		errs = append(errs, errors.New("page sizes must be positive"))
	}
	if c.Feed.ResultLimit < c.Feed.PageSize {
		errs = append(errs, fmt.Errorf("FEED_RESULT_LIMIT %d is below FEED_PAGE_SIZE %d", c.Feed.ResultLimit, c.Feed.PageSize))
	}
	if c.Feed.DefaultRadiusMiles <= 0 {
		errs = append(errs, errors.New("DEFAULT_RADIUS_MILES must be positive"))
	}
	if c.IsProduction() {
		if c.JWT.AccessSecret == defaultAccessSecret || c.JWT.RefreshSecret == defaultRefreshSecret {
			errs = append(errs, errors.New("default JWT secrets must not be used in production"))
		}
		if c.Email.TestingMode {
			errs = append(errs, errors.New("EMAIL_TESTING_MODE must be false in production"))
		}
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	// "15m", "24h"
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}

	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
