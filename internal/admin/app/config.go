package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer         string // Required: expected iss claim on session tokens
	SessionKey     string // Required: HS256 key shared with the identity issuer
	HookSecret     string // Required: shared secret authenticating issuer hook calls
	IdentityURL    string // Required: base URL of the issuer's internal API
	IdentityAPIKey string // Required: service-to-service key for the issuer API

	// BootstrapSecretHash is the argon2id hash of the one-time bootstrap
	// secret. Leave empty once the first superadmin exists.
	BootstrapSecretHash string

	PortalBaseURL string // Optional: portal URL prefix for invite claim links

	DatabaseFile        string        // Optional: path to SQLite database file (default: ./adminauth.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	SweepInterval       time.Duration // Expiry sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:         getEnvOrDefault("ADMINAUTH_ISSUER", "memberhub-id"),
		SessionKey:     os.Getenv("ADMINAUTH_SESSION_KEY"),
		HookSecret:     os.Getenv("ADMINAUTH_HOOK_SECRET"),
		IdentityURL:    os.Getenv("ADMINAUTH_IDENTITY_URL"),
		IdentityAPIKey: os.Getenv("ADMINAUTH_IDENTITY_API_KEY"),

		BootstrapSecretHash: os.Getenv("ADMINAUTH_BOOTSTRAP_SECRET_HASH"),

		PortalBaseURL: getEnvOrDefault("ADMINAUTH_PORTAL_BASE_URL", "http://localhost:3000/admin/invites"),

		DatabaseFile:        getEnvOrDefault("ADMINAUTH_DATABASE_FILE", "adminauth.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		SweepInterval:       getEnvDurationOrDefault("SWEEP_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
