package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string

	MongoURI string
	RedisURL string // empty means "run without Redis" (in-memory fallback mode)

	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	AllowedOrigins string

	// AI completion provider
	AIEndpoint      string
	AIAPIKey        string
	AIRestTimeout   time.Duration // budget for the REST chat path
	AISocketTimeout time.Duration // tighter budget for the WebSocket path

	// Contact form notifications (SendGrid)
	SendGridAPIKey string
	ContactFrom    string
	ContactTo      string

	// Chat session retention
	SessionMaxTurns  int
	SessionRetention time.Duration

	// Article read cache
	ArticleCacheTTL time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Environment: getEnv("ENVIRONMENT", "development"),

		MongoURI: getEnv("MONGODB_URI", "mongodb://localhost:27017/folio"),
		RedisURL: getEnv("REDIS_URL", ""),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		AccessTokenExpiry:  getDurationEnv("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
		RefreshTokenExpiry: getDurationEnv("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),

		AIEndpoint:      getEnv("AI_ENDPOINT", ""),
		AIAPIKey:        getEnv("AI_API_KEY", ""),
		AIRestTimeout:   getDurationEnv("AI_REST_TIMEOUT", 10*time.Second),
		AISocketTimeout: getDurationEnv("AI_SOCKET_TIMEOUT", 5*time.Second),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		ContactFrom:    getEnv("CONTACT_FROM", "noreply@localhost"),
		ContactTo:      getEnv("CONTACT_TO", ""),

		SessionMaxTurns:  getIntEnv("SESSION_MAX_TURNS", 200),
		SessionRetention: getDurationEnv("SESSION_RETENTION", 30*24*time.Hour),

		ArticleCacheTTL: getDurationEnv("ARTICLE_CACHE_TTL", 5*time.Minute),
	}
}

// IsProduction reports whether the server runs in production mode.
// Error responses hide internal details outside development.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
