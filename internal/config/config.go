package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

const devJWTSecret = "dev-secret-key"

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the service configuration.
// Environment variables are parsed with the FIRESAFE_ prefix,
// e.g. FIRESAFE_PORT, FIRESAFE_DATABASE_URL.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	Host        string      `envconfig:"HOST" default:"127.0.0.1"`
	Port        int         `envconfig:"PORT" default:"8080"`

	// sqlite file path / file: DSN, or postgres:// URL
	DatabaseURL string `envconfig:"DATABASE_URL" default:"file:firesafety.db"`

	JWTSecret     string        `envconfig:"JWT_SECRET" default:"dev-secret-key"`
	SessionWindow time.Duration `envconfig:"SESSION_WINDOW" default:"12h"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`

	LoginRateLimit int           `envconfig:"LOGIN_RATE_LIMIT" default:"5"`
	LoginRateEvery time.Duration `envconfig:"LOGIN_RATE_EVERY" default:"1m"`

	BackupTick time.Duration `envconfig:"BACKUP_TICK" default:"15m"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" default:""`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	GeminiURL    string `envconfig:"GEMINI_URL" default:"https://generativelanguage.googleapis.com"`

	FirebaseCredentialsFile   string `envconfig:"FIREBASE_CREDENTIALS_FILE" default:""`
	FirebaseCredentialsBase64 string `envconfig:"FIREBASE_CREDENTIALS_BASE64" default:""`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

// Load reads an optional .env file and then the FIRESAFE_ environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using system environment")
	}
	return New()
}

// New parses the environment without touching .env files.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("FIRESAFE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewForTesting returns a config suitable for package tests.
func NewForTesting() *Config {
	return &Config{
		Environment:    EnvTesting,
		Host:           "127.0.0.1",
		Port:           0,
		DatabaseURL:    "file::memory:",
		JWTSecret:      "test-secret",
		SessionWindow:  12 * time.Hour,
		LoginRateLimit: 100,
		LoginRateEvery: time.Second,
		BackupTick:     time.Minute,
		GeminiModel:    "gemini-1.5-flash",
		LogLevel:       "debug",
		LogFormat:      "console",
	}
}

func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == devJWTSecret) {
		return errors.New("FIRESAFE_JWT_SECRET must be set in production")
	}
	if c.SessionWindow <= 0 {
		return fmt.Errorf("session window must be positive, got %s", c.SessionWindow)
	}
	if c.DatabaseURL == "" {
		return errors.New("FIRESAFE_DATABASE_URL must not be empty")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
