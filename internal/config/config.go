package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName           = "WalletPay"
	defaultAppEnv            = "development"
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultMigrationsPath    = "migrations"
	defaultShutdownDelay     = 10 * time.Second
	defaultAuthorizerTimeout = 5 * time.Second
	defaultNotifierTimeout   = 5 * time.Second
	defaultTransferRateLimit = 30
	shutdownSecondsEnvVar    = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar   = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName           string
	AppEnv            string
	Port              string
	LogLevel          string
	DatabaseURL       string
	RedisURL          string
	MigrationsPath    string
	AuthorizerURL     string
	AuthorizerTimeout time.Duration
	NotifierURL       string
	NotifierTimeout   time.Duration
	TransferRateLimit int // per payer per minute; 0 disables the limit
	ShutdownPeriod    time.Duration
}

// Load reads an optional .env file, then the environment, into a Config.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		MigrationsPath:    getEnv("MIGRATIONS_PATH", defaultMigrationsPath),
		AuthorizerURL:     os.Getenv("AUTHORIZER_URL"),
		NotifierURL:       os.Getenv("NOTIFIER_URL"),
		AuthorizerTimeout: defaultAuthorizerTimeout,
		NotifierTimeout:   defaultNotifierTimeout,
		TransferRateLimit: defaultTransferRateLimit,
		ShutdownPeriod:    defaultShutdownDelay,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	var err error
	if cfg.AuthorizerTimeout, err = getDuration("AUTHORIZER_TIMEOUT", cfg.AuthorizerTimeout); err != nil {
		return Config{}, err
	}
	if cfg.NotifierTimeout, err = getDuration("NOTIFIER_TIMEOUT", cfg.NotifierTimeout); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("TRANSFER_RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid TRANSFER_RATE_LIMIT_PER_MINUTE: %q", v)
		}
		cfg.TransferRateLimit = n
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
