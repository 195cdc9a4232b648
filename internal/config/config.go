package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string // Used to build shareable approval links

	// Database
	DatabaseURL string

	// Redis (optional): rate limiter storage and event pub/sub
	RedisURL           string
	RedisEventsChannel string

	// OIDC (dashboard users)
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
	OIDCTenantClaim  string // Claim carrying the tenant slug, e.g. "org"

	// Session
	SessionSecret string // Used for signing cookies (min 32 chars)

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Approval links
	ApprovalLinkTTL  time.Duration // env: APPROVAL_LINK_TTL, default: 720h (30 days)
	TokenMaxAttempts int           // env: TOKEN_MAX_ATTEMPTS, default: 5

	// Notifications
	NotifyQueueSize int
	NotifyWorkers   int
	WebhookSecret   string
	WebhookTimeout  time.Duration

	// Email (SMTP)
	SMTPEnabled  bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // "none", "tls", "starttls"

	// Jobs
	PublishInterval time.Duration

	// Rate limiting for the public approval endpoints, requests per minute per IP
	PublicRateLimit int

	// Site Branding
	SiteTitle string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present; real
// environment variables take precedence over it.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		Env:                getEnv("ENV", "development"),
		ServerAddr:         getEnv("SERVER_ADDR", ":3000"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:3000"),
		DatabaseURL:        getEnv("DATABASE_URL", "postgres://localhost:5432/contentflow?sslmode=disable"),
		RedisURL:           getEnv("REDIS_URL", ""),
		RedisEventsChannel: getEnv("REDIS_EVENTS_CHANNEL", "contentflow.approvals"),
		OIDCIssuer:         getEnv("OIDC_ISSUER", ""),
		OIDCClientID:       getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:   getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:    getEnv("OIDC_REDIRECT_URL", "http://localhost:3000/auth/callback"),
		OIDCTenantClaim:    getEnv("OIDC_TENANT_CLAIM", ""),
		SessionSecret:      getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		CORSOrigins:        getEnv("CORS_ORIGINS", ""),

		ApprovalLinkTTL:  getEnvDuration("APPROVAL_LINK_TTL", 30*24*time.Hour),
		TokenMaxAttempts: getEnvInt("TOKEN_MAX_ATTEMPTS", 5),

		NotifyQueueSize: getEnvInt("NOTIFY_QUEUE_SIZE", 256),
		NotifyWorkers:   getEnvInt("NOTIFY_WORKERS", 2),
		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
		WebhookTimeout:  getEnvDuration("WEBHOOK_TIMEOUT", 5*time.Second),

		SMTPEnabled:  getEnv("SMTP_ENABLED", "") != "",
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Contentflow"),
		SMTPTLS:      getEnv("SMTP_TLS", "starttls"),

		PublishInterval: getEnvDuration("PUBLISH_INTERVAL", time.Minute),
		PublicRateLimit: getEnvInt("RATE_LIMIT_PUBLIC", 30),

		SiteTitle: getEnv("SITE_TITLE", "Contentflow"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		slog.Warn("ignoring invalid integer setting", "key", key, "value", value)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("ignoring invalid duration setting", "key", key, "value", value)
		return fallback
	}
	return d
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsEmailEnabled returns true if SMTP is switched on and minimally configured.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPEnabled && c.SMTPHost != "" && c.SMTPFrom != ""
}

// IsRedisEnabled returns true if a Redis URL is configured.
func (c *Config) IsRedisEnabled() bool {
	return c.RedisURL != ""
}
