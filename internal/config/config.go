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
	AppURL  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Google sign-in and the Sheets grant share one OAuth client
	GoogleClientID     string
	GoogleClientSecret string

	// Word suggestions
	AnthropicAPIKey string
	AnthropicModel  string

	// Sync
	SheetsTitle       string
	SheetsAuthTimeout time.Duration
	SyncTimeout       time.Duration
	AutoPull          bool // Pull from the spreadsheet right after sign-in

	// Observability (optional)
	SentryDSN string
	LogFile   string

	// Export archives (optional, S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for non-AWS providers
	S3PresignExpiry time.Duration // How long archive download links stay valid
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "3 Word Journal"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:  envRequired("APP_URL"), // Required: base URL for OAuth redirects
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/journal.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// OAuth
		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),

		// Word suggestions (endpoint answers 500 without a key)
		AnthropicAPIKey: envString("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envString("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),

		// Sync
		SheetsTitle:       envString("SHEETS_TITLE", "3 Word Journal"),
		SheetsAuthTimeout: envDuration("SHEETS_AUTH_TIMEOUT", 60*time.Second),
		SyncTimeout:       envDuration("SYNC_TIMEOUT", 2*time.Minute),
		AutoPull:          envBool("SYNC_AUTO_PULL", true),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
		LogFile:   envString("LOG_FILE", ""),

		// Storage
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction stops a production start without sign-in configured.
// Development runs without Google credentials for API-only testing.
func validateProduction(cfg *Config) {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		slog.Error("production deployment requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
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

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ArchiveEnabled reports whether export archives can be written.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName: c.AppName,
		AppEnv:  c.AppEnv,
		AppURL:  c.AppURL,
		Port:    c.Port,

		GoogleClientID: c.GoogleClientID,
		AnthropicModel: c.AnthropicModel,
		SheetsTitle:    c.SheetsTitle,

		S3Endpoint: c.S3Endpoint,
		S3Bucket:   c.S3Bucket,
	}
}
