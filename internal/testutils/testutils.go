package testutils

import (
	"sync"
	"time"

	"github.com/dalfonso89/currency-converter/internal/config"
	"github.com/dalfonso89/currency-converter/internal/logger"

	"github.com/sirupsen/logrus"
)

// MockLogger creates a mock logger for testing
func MockLogger() *logrus.Logger {
	return logger.New("debug")
}

// MockConfig creates a configuration pointing at baseURL
func MockConfig(baseURL string) *config.Config {
	return &config.Config{
		AppName:     "CurrencyConverterTest",
		LogLevel:    "debug",
		APIBaseURL:  baseURL,
		HTTPTimeout: 5 * time.Second,
		APIKeyEnv:   "CURRENCY_CONVERTER_TEST_KEY",
	}
}

// StaticCredentials is an in-memory credential source that counts loads
type StaticCredentials struct {
	mu    sync.Mutex
	key   string
	err   error
	loads int
}

// NewStaticCredentials returns credentials that always yield key
func NewStaticCredentials(key string) *StaticCredentials {
	return &StaticCredentials{key: key}
}

// Load returns the current key or the configured error
func (s *StaticCredentials) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return "", s.err
	}
	return s.key, nil
}

// SetKey replaces the key returned by later loads
func (s *StaticCredentials) SetKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
}

// SetError makes later loads fail with err
func (s *StaticCredentials) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Loads reports how many times Load was called
func (s *StaticCredentials) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}
