package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string

	// Retrieval processing service (text extraction + embeddings)
	ProcessingURL     string
	ProcessingTimeout time.Duration

	// Chat proxy upstream (Flowise-compatible prediction endpoint)
	ChatUpstreamURL  string
	ChatCacheTTL     time.Duration
	ChatCacheSize    int
	ChatProxyTimeout time.Duration

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region            string
	S3Bucket            string
	S3AccessKey         string
	S3SecretKey         string
	S3Endpoint          string        // Optional: for S3-compatible services
	S3DownloadURLExpiry time.Duration // Expiry for presigned download URLs

	// Upload limits
	MaxUploadSize int64
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Parchly"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/parchly.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),

		// Retrieval processing
		ProcessingURL:     envRequired("PROCESSING_URL"), // Required: base URL of the retrieval service
		ProcessingTimeout: envDuration("PROCESSING_TIMEOUT", 2*time.Minute),

		// Chat proxy
		ChatUpstreamURL:  envString("CHAT_UPSTREAM_URL", ""),
		ChatCacheTTL:     envDuration("CHAT_CACHE_TTL", 10*time.Minute),
		ChatCacheSize:    envInt("CHAT_CACHE_SIZE", 512),
		ChatProxyTimeout: envDuration("CHAT_PROXY_TIMEOUT", 90*time.Second),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage (S3-compatible - required for document uploads)
		S3Region:            envRequired("S3_REGION"),
		S3Bucket:            envRequired("S3_BUCKET"),
		S3AccessKey:         envRequired("S3_ACCESS_KEY"),
		S3SecretKey:         envRequired("S3_SECRET_KEY"),
		S3Endpoint:          envString("S3_ENDPOINT", ""), // Optional: for non-AWS providers
		S3DownloadURLExpiry: envDuration("S3_DOWNLOAD_URL_EXPIRY", 1*time.Hour),

		// Uploads
		MaxUploadSize: envInt64("MAX_UPLOAD_SIZE", 25<<20), // 25MB
	}

	return cfg
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

// Sanitized returns the config as log attributes with secrets masked.
func (c *Config) Sanitized() []any {
	return []any{
		"app_name", c.AppName,
		"app_env", c.AppEnv,
		"port", c.Port,
		"db_driver", c.DBDriver,
		"processing_url", c.ProcessingURL,
		"chat_upstream_url", c.ChatUpstreamURL,
		"s3_bucket", c.S3Bucket,
		"s3_region", c.S3Region,
		"s3_endpoint", c.S3Endpoint,
		"sentry_enabled", c.SentryDSN != "",
		"max_upload_size", c.MaxUploadSize,
	}
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
