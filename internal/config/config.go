package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the pet assistant
type Config struct {
	Catalog CatalogConfig
	LLM     LLMConfig
	Server  ServerConfig
	Logging LoggingConfig
}

// CatalogConfig points at the service catalog. The extension picks the storage.
type CatalogConfig struct {
	Path string
}

type LLMConfig struct {
	Provider   string
	BaseURL    string
	Model      string
	APIKey     string
	MaxRetries int
	Timeout    time.Duration
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Addr string
}

type LoggingConfig struct {
	Level string
	JSON  bool
}

// Load reads .env when present, then loads configuration from environment
// variables with defaults
func Load() *Config {
	// A missing .env is fine; real environment variables always win.
	_ = godotenv.Load()

	return &Config{
		Catalog: CatalogConfig{
			Path: GetStringEnv("CATALOG_PATH", "services.json"),
		},
		LLM: LLMConfig{
			Provider:   GetStringEnv("LLM_PROVIDER", "gemini"),
			BaseURL:    GetStringEnv("LLM_BASE_URL", ""),
			Model:      GetStringEnv("LLM_MODEL", "gemini-1.5-flash"),
			APIKey:     GetStringEnv("LLM_API_KEY", GetStringEnv("GEMINI_API_KEY", "")),
			MaxRetries: GetIntEnv("LLM_MAX_RETRIES", 3),
			Timeout:    GetDurationEnv("LLM_TIMEOUT", 60*time.Second),
		},
		Server: ServerConfig{
			Addr: GetStringEnv("SERVER_ADDR", ":8080"),
		},
		Logging: LoggingConfig{
			Level: GetStringEnv("LOG_LEVEL", "info"),
			JSON:  GetBoolEnv("LOG_JSON", false),
		},
	}
}

// Validate rejects settings no component can run with
func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return errors.New("catalog path is required")
	}
	if c.LLM.MaxRetries < 0 {
		return errors.New("llm max retries must not be negative")
	}
	if c.LLM.Timeout < 0 {
		return errors.New("llm timeout must not be negative")
	}
	return nil
}

func GetStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
