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
	AppName          string
	AppEnv           string
	AppURL           string
	Port             string
	AuthRedirectPath string
	TrustProxy       bool // Honor X-Forwarded-For / X-Real-IP for client IPs

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	// Video metadata
	YouTubeAPIKey    string
	YouTubeEndpoint  string // Optional: override for the Data API base URL
	MetadataTimeout  time.Duration
	MetadataCacheTTL time.Duration

	// Redis (optional: metadata cache and shared rate limits)
	RedisURL string

	// Rate limits
	VoteRateLimit    int
	VoteRateWindow   time.Duration
	SubmitRateLimit  int
	SubmitRateWindow time.Duration

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:          envString("APP_NAME", "Muzer"),
		AppEnv:           envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:           envRequired("APP_URL"), // Required: base URL for OAuth redirects
		Port:             envString("PORT", "8090"),
		AuthRedirectPath: envString("AUTH_REDIRECT_PATH", "/dashboard"),
		TrustProxy:       envBool("TRUST_PROXY", false),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/muzer.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// OAuth
		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),
		GitHubClientID:     envString("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: envString("GITHUB_CLIENT_SECRET", ""),

		// Video metadata (YOUTUBE_API_KEY optional in development, required in production)
		YouTubeAPIKey:    envString("YOUTUBE_API_KEY", ""),
		YouTubeEndpoint:  envString("YOUTUBE_ENDPOINT", ""),
		MetadataTimeout:  envDuration("METADATA_TIMEOUT", 5*time.Second),
		MetadataCacheTTL: envDuration("METADATA_CACHE_TTL", 24*time.Hour),

		// Redis
		RedisURL: envString("REDIS_URL", ""),

		// Rate limits
		VoteRateLimit:    envInt("VOTE_RATE_LIMIT", 30),
		VoteRateWindow:   envDuration("VOTE_RATE_WINDOW", time.Minute),
		SubmitRateLimit:  envInt("SUBMIT_RATE_LIMIT", 10),
		SubmitRateWindow: envDuration("SUBMIT_RATE_WINDOW", time.Minute),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows submissions to fail with a configuration error instead.
func validateProduction(cfg *Config) {
	if cfg.YouTubeAPIKey == "" {
		slog.Error("production deployment requires YOUTUBE_API_KEY",
			"hint", "set APP_ENV=development to run without video metadata")
		os.Exit(1)
	}
	if cfg.GoogleClientID == "" {
		slog.Error("production deployment requires GOOGLE_CLIENT_ID",
			"hint", "sign-in is only available through the identity provider")
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
	if err != nil || n < 0 {
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

// RedisEnabled reports whether a shared Redis instance is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
// Safe to expose in ctx and client-facing contexts.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:          c.AppName,
		AppEnv:           c.AppEnv,
		AppURL:           c.AppURL,
		Port:             c.Port,
		AuthRedirectPath: c.AuthRedirectPath,
		TrustProxy:       c.TrustProxy,

		GoogleClientID: c.GoogleClientID,
		GitHubClientID: c.GitHubClientID,
	}
}
