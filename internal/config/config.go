package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-cli/internal/store"
)

type AppConfig struct {
	// ConfigPath overrides the config file location when set.
	ConfigPath string
	// ConfigName is the file base name inside the default config dir.
	ConfigName string `validate:"required,excludesall=/"`

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration `validate:"gt=0"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`

	// Server-only settings.
	Port           string `validate:"required,numeric"`
	MetricsEnabled bool
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.ConfigPath = os.Getenv("WEATHER_CONFIG_PATH")
	cfg.ConfigName = getenvDefault("WEATHER_CONFIG_NAME", store.DefaultConfigName)

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "warn")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "text")
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.MetricsEnabled = getenvBool("METRICS_ENABLED", true)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// StoragePath resolves where the provider config file lives.
func (c *AppConfig) StoragePath() (string, error) {
	if c.ConfigPath != "" {
		return c.ConfigPath, nil
	}
	return store.DefaultPath(c.ConfigName)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
