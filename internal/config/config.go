package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppName  string
	LogLevel string

	// Exchange rate service
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Credential storage
	APIKeyEnv string
	ConfigDir string // empty means the platform default for AppName
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		AppName:  getEnv("APP_NAME", "CurrencyConverter"),
		LogLevel: getEnv("LOG_LEVEL", "warn"),

		APIBaseURL:  getEnv("EXCHANGE_RATE_API_BASE_URL", "https://v6.exchangerate-api.com/v6"),
		HTTPTimeout: time.Duration(mustAtoi(getEnv("HTTP_TIMEOUT_SECONDS", "10"), 10)) * time.Second,

		APIKeyEnv: getEnv("API_KEY_ENV", "API_KEY"),
		ConfigDir: getEnv("CURRENCY_CONVERTER_CONFIG_DIR", ""),
	}, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func mustAtoi(s string, fallback int) int {
	i, err := strconv.Atoi(s)
	if err != nil || i <= 0 {
		return fallback
	}
	return i
}
