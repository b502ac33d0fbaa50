// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultRedactionText replaces the body of a redacted comment.
const DefaultRedactionText = "[This comment has been removed by moderators]"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	Env            string `mapstructure:"APP_ENV"`
	AdminUserIDs   string `mapstructure:"ADMIN_USER_IDS"`
	SentryDSN      string `mapstructure:"SENTRY_DSN"`

	TracingEnabled  bool   `mapstructure:"TRACING_ENABLED"`
	TracingExporter string `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Content limits
	CommentsPerPage       int    `mapstructure:"COMMENTS_PER_PAGE"`
	ReplyPreviewLimit     int    `mapstructure:"REPLY_PREVIEW_LIMIT"`
	SubReplyPreviewLimit  int    `mapstructure:"SUB_REPLY_PREVIEW_LIMIT"`
	ReportThreshold       int64  `mapstructure:"REPORT_THRESHOLD"`
	RedactionText         string `mapstructure:"REDACTION_TEXT"`
	MaxCommentLength      int    `mapstructure:"MAX_COMMENT_LENGTH"`
	MaxConfessionLength   int    `mapstructure:"MAX_CONFESSION_LENGTH"`
	MaxCommentsPerHour    int    `mapstructure:"MAX_COMMENTS_PER_HOUR"`
	MaxConfessionsPerHour int    `mapstructure:"MAX_CONFESSIONS_PER_HOUR"`
	CommentPageCacheTTL   int    `mapstructure:"COMMENT_PAGE_CACHE_TTL_SECONDS"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A local .env only fills variables that are not already set.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	SetDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SetDefaults registers development defaults with viper.
func SetDefaults() {
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "confessional")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("ADMIN_USER_IDS", "")
	viper.SetDefault("SENTRY_DSN", "")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	viper.SetDefault("COMMENTS_PER_PAGE", 5)
	viper.SetDefault("REPLY_PREVIEW_LIMIT", 3)
	viper.SetDefault("SUB_REPLY_PREVIEW_LIMIT", 2)
	viper.SetDefault("REPORT_THRESHOLD", 5)
	viper.SetDefault("REDACTION_TEXT", DefaultRedactionText)
	viper.SetDefault("MAX_COMMENT_LENGTH", 500)
	viper.SetDefault("MAX_CONFESSION_LENGTH", 4000)
	viper.SetDefault("MAX_COMMENTS_PER_HOUR", 20)
	viper.SetDefault("MAX_CONFESSIONS_PER_HOUR", 5)
	viper.SetDefault("COMMENT_PAGE_CACHE_TTL_SECONDS", 300)
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.CommentsPerPage < 1 {
		return errors.New("COMMENTS_PER_PAGE must be at least 1")
	}
	if c.ReplyPreviewLimit < 0 || c.SubReplyPreviewLimit < 0 {
		return errors.New("reply preview limits must not be negative")
	}
	if c.ReportThreshold < 1 {
		return errors.New("REPORT_THRESHOLD must be at least 1")
	}
	if c.MaxCommentLength < 1 || c.MaxConfessionLength < 1 {
		return errors.New("content length limits must be positive")
	}
	if _, err := c.ParseAdminIDs(); err != nil {
		return err
	}

	if c.IsProduction() {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.AdminUserIDs == "" {
			log.Println("WARNING: ADMIN_USER_IDS is empty in production. No one can moderate content.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

// IsProduction reports whether the app runs with a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// ParseAdminIDs parses the comma separated ADMIN_USER_IDS list.
func (c *Config) ParseAdminIDs() ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(c.AdminUserIDs, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_USER_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IsAdmin reports whether userID is listed in ADMIN_USER_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	ids, err := c.ParseAdminIDs()
	if err != nil {
		return false
	}
	for _, id := range ids {
		if id == userID {
			return true
		}
	}
	return false
}
