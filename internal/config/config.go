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
	AppName  string
	AppEnv   string
	AppURL   string
	Port     string
	Timezone string // IANA name; the calendar "today" is computed in this zone

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Browser profiles
	ProfileSecret      string
	ProfileTokenExpiry time.Duration
	CookieSecure       bool

	// Mock identity provider
	AuthSignInDelay  time.Duration
	AuthSignOutDelay time.Duration

	// Assistant (Gemini through its OpenAI-compatible endpoint)
	GeminiBaseURL string
	GeminiModel   string
	GeminiAPIKey  string // Optional: fallback when a profile has not stored its own key

	// Rate limiting for sign-in
	SignInRateLimit  int
	SignInRateWindow time.Duration

	// Observability (optional)
	SentryDSN string

	// Export archive (optional, S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:  envString("APP_NAME", "Task Tracker"),
		AppEnv:   envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:   envString("APP_URL", "http://localhost:8090"),
		Port:     envString("PORT", "8090"),
		Timezone: envString("TIMEZONE", "Local"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/tasktracker.db"),

		// Browser profiles
		ProfileSecret:      envRequired("PROFILE_SECRET"),
		ProfileTokenExpiry: envDuration("PROFILE_TOKEN_EXPIRY", 365*24*time.Hour), // 1 year
		CookieSecure:       envBool("COOKIE_SECURE", envString("APP_ENV", "development") == "production"),

		// Mock identity provider
		AuthSignInDelay:  envDuration("AUTH_SIGNIN_DELAY", time.Second),
		AuthSignOutDelay: envDuration("AUTH_SIGNOUT_DELAY", 500*time.Millisecond),

		// Assistant
		GeminiBaseURL: envString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		GeminiModel:   envString("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiAPIKey:  envString("GEMINI_API_KEY", ""),

		SignInRateLimit:  envInt("SIGNIN_RATE_LIMIT", 10),
		SignInRateWindow: envDuration("SIGNIN_RATE_WINDOW", time.Minute),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Export archive (disabled when S3_BUCKET is empty)
		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction refuses to start a production deployment with a weak profile secret.
func validateProduction(cfg *Config) {
	if len(cfg.ProfileSecret) < 32 {
		slog.Error("production deployment requires PROFILE_SECRET of at least 32 characters")
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

// ArchiveEnabled reports whether exports are also copied to S3.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}

// Location resolves Timezone, falling back to the server's local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("config invalid timezone, using local", "timezone", c.Timezone, "error", err)
		return time.Local
	}
	return loc
}

// Sanitized returns a copy of the config with only public/safe fields.
// Secrets and API keys are excluded. Safe to expose in ctx and templates.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:      c.AppName,
		AppEnv:       c.AppEnv,
		AppURL:       c.AppURL,
		Port:         c.Port,
		Timezone:     c.Timezone,
		CookieSecure: c.CookieSecure,
		GeminiModel:  c.GeminiModel,
	}
}
