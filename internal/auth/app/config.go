package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/verticelabs/authcore/internal/auth/email"
)

type Config struct {
	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	HTTPAddr  string // HTTP listen address (default: :8080)

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // SQLite database file (default: ./auth.db)
	DatabaseURL    string // PostgreSQL connection URL, required for postgres

	Pepper         string // Optional: pepper value, wins over PepperFile
	PepperFile     string // Pepper file, created on first start (default: ./pepper)
	SigningKey     string // Optional: HS256 key, at least 32 bytes
	SigningKeyFile string // Optional: HS256 key file, created on first start
	MasterKeyFile  string // Optional: seals the signing key file at rest

	Issuer           string        // Issuer claim for tokens (default: authcore)
	AccessTokenTTL   time.Duration // default: 15m
	RefreshTokenTTL  time.Duration // default: 720h
	TwoFactorCodeTTL time.Duration // default: 5m
	ForceTwoFactor   bool          // Initial force-2FA value (default: false)
	BootstrapToken   string        // Optional: token required to perform bootstrap

	SMTP email.SMTPConfig // required outside dev and test

	RedisURL             string        // Optional: shares the force-2FA flag across replicas
	SettingsPollInterval time.Duration // default: 5s
	TenantCacheTTL       time.Duration // default: 30s

	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// LoadConfig reads the environment, after loading .env from the working
// directory when present. Values already in the environment win.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:  getEnvOrDefault("AUTH_HTTP_ADDR", ":8080"),

		DatabaseDriver: getEnvOrDefault("AUTH_DATABASE_DRIVER", "sqlite"),
		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		DatabaseURL:    os.Getenv("AUTH_DATABASE_URL"),

		Pepper:         os.Getenv("AUTH_PEPPER"),
		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		SigningKey:     os.Getenv("AUTH_SIGNING_KEY"),
		SigningKeyFile: os.Getenv("AUTH_SIGNING_KEY_FILE"),
		MasterKeyFile:  os.Getenv("AUTH_MASTER_KEY_FILE"),

		Issuer:           getEnvOrDefault("AUTH_ISSUER", "authcore"),
		AccessTokenTTL:   getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", 30*24*time.Hour),
		TwoFactorCodeTTL: getEnvDurationOrDefault("AUTH_2FA_CODE_TTL", 5*time.Minute),
		ForceTwoFactor:   getEnvBoolOrDefault("AUTH_FORCE_2FA", false),
		BootstrapToken:   os.Getenv("BOOTSTRAP_TOKEN"),

		SMTP: email.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvIntOrDefault("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnvOrDefault("SMTP_FROM", "no-reply@authcore.local"),
			SSL:      getEnvBoolOrDefault("SMTP_SSL", false),
		},

		RedisURL:             os.Getenv("REDIS_URL"),
		SettingsPollInterval: getEnvDurationOrDefault("AUTH_SETTINGS_POLL_INTERVAL", 5*time.Second),
		TenantCacheTTL:       getEnvDurationOrDefault("AUTH_TENANT_CACHE_TTL", 30*time.Second),

		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
