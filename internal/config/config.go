package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the Receipto server.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Storage    StorageConfig
	AWS        AWSConfig
	LLM        LLMConfig
	Processing ProcessingConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type StorageConfig struct {
	Path string
}

// AWSConfig is the environment-level fallback for document-analysis
// credentials. Persisted settings take precedence per job.
type AWSConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// LLMConfig holds the env fallback for the Gemini credential and the
// provider/model pair used when no persisted setting exists.
type LLMConfig struct {
	GoogleAPIKey    string
	DefaultProvider string
	DefaultModel    string
}

// ProcessingConfig tunes the pipeline's retry policies and validation
// tolerance. OCR and extraction retries are independently configurable.
type ProcessingConfig struct {
	OCRMaxAttempts        int
	ExtractionMaxAttempts int
	RetryInitialBackoff   time.Duration
	RetryMaxBackoff       time.Duration
	ValidationTolerance   float64
	SettingsSecretKey     string
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("RECEIPTO_PORT", 8080),
			Env:  envString("RECEIPTO_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Storage: StorageConfig{
			Path: envString("STORAGE_PATH", "/app/storage/receipts"),
		},
		AWS: AWSConfig{
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Region:          envString("AWS_REGION", "us-west-2"),
		},
		LLM: LLMConfig{
			GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
			DefaultProvider: envString("LLM_DEFAULT_PROVIDER", "gemini"),
			DefaultModel:    envString("LLM_DEFAULT_MODEL", "gemini-2.0-flash"),
		},
		Processing: ProcessingConfig{
			OCRMaxAttempts:        envInt("TEXTRACT_MAX_RETRIES", 3),
			ExtractionMaxAttempts: envInt("GEMINI_MAX_RETRIES", 3),
			RetryInitialBackoff:   envDuration("RETRY_BACKOFF_MIN", 2*time.Second),
			RetryMaxBackoff:       envDuration("RETRY_BACKOFF_MAX", 10*time.Second),
			ValidationTolerance:   envFloat("VALIDATION_TOLERANCE", 0.02),
			SettingsSecretKey:     os.Getenv("SETTINGS_SECRET_KEY"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("STORAGE_PATH must not be empty")
	}

	if c.Processing.OCRMaxAttempts < 1 {
		return fmt.Errorf("TEXTRACT_MAX_RETRIES must be at least 1, got %d", c.Processing.OCRMaxAttempts)
	}
	if c.Processing.ExtractionMaxAttempts < 1 {
		return fmt.Errorf("GEMINI_MAX_RETRIES must be at least 1, got %d", c.Processing.ExtractionMaxAttempts)
	}

	if t := c.Processing.ValidationTolerance; t <= 0 || t >= 1 {
		return fmt.Errorf("VALIDATION_TOLERANCE must be between 0 and 1 exclusive, got %g", t)
	}

	if k := c.Processing.SettingsSecretKey; k != "" && len(k) != 64 {
		return fmt.Errorf("SETTINGS_SECRET_KEY must be 64 hex characters (32 bytes), got %d characters", len(k))
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
