package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Environment ("production" hides raw errors from clients)
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	// Database
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"account_db"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// JWT
	JWTSecret        string        `env:"JWT_SECRET"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"1h"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY" envDefault:"8760h"`

	// Social providers
	AppleClientID      string `env:"APPLE_CLIENT_ID"`
	AppleJWKSURL       string `env:"APPLE_JWKS_URL" envDefault:"https://appleid.apple.com/auth/keys"`
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	FacebookAppID      string `env:"FACEBOOK_APP_ID"`
	FacebookAppSecret  string `env:"FACEBOOK_APP_SECRET"`

	// Blob storage (S3 compatible)
	StorageEndpoint  string `env:"STORAGE_ENDPOINT"`
	StorageAccessKey string `env:"STORAGE_ACCESS_KEY"`
	StorageSecretKey string `env:"STORAGE_SECRET_KEY"`
	StorageBucket    string `env:"STORAGE_BUCKET" envDefault:"account-images"`
	StorageUseSSL    bool   `env:"STORAGE_USE_SSL" envDefault:"true"`

	// Observability
	SentryDSN             string        `env:"SENTRY_DSN"`
	LogRetention          time.Duration `env:"LOG_RETENTION" envDefault:"720h"`
	BackgroundConcurrency int64         `env:"BACKGROUND_CONCURRENCY" envDefault:"16"`

	// Server
	Port        string `env:"PORT" envDefault:"8080"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
	Version     string `env:"APP_VERSION" envDefault:"dev"`
	HomeURL     string `env:"HOME_URL"`
}

// Load reads an optional .env file and parses the environment into Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Validate reports the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}
	if c.DBPassword == "" {
		errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
	}
	if c.JWTAccessExpiry <= 0 || c.JWTRefreshExpiry <= 0 {
		errs = append(errs, errors.New("token expiries must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}
