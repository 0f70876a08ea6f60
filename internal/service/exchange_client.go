package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalfonso89/currency-converter/internal/config"
	"github.com/dalfonso89/currency-converter/internal/models"

	"github.com/sirupsen/logrus"
)

// CredentialLoader supplies the API key for each request
type CredentialLoader interface {
	Load() (string, error)
}

// payload is a success body with a known set of required keys
type payload interface {
	RequiredFields() []string
	Succeeded() bool
}

// ExchangeRateClient talks to the exchangerate-api.com v6 endpoints.
// The API key is loaded before every request and never cached.
type ExchangeRateClient struct {
	baseURL     string
	credentials CredentialLoader
	logger      *logrus.Logger
	httpClient  *http.Client
}

// NewExchangeRateClient creates a new exchange rate client
func NewExchangeRateClient(configuration *config.Config, credentials CredentialLoader, logger *logrus.Logger) *ExchangeRateClient {
	return &ExchangeRateClient{
		baseURL:     strings.TrimRight(configuration.APIBaseURL, "/"),
		credentials: credentials,
		logger:      logger,
		httpClient: &http.Client{
			Timeout: configuration.HTTPTimeout,
		},
	}
}

// FetchAllRates returns every rate relative to baseCurrency
func (client *ExchangeRateClient) FetchAllRates(ctx context.Context, baseCurrency string) (models.RateSet, error) {
	var rateSet models.RateSet
	if err := client.get(ctx, &rateSet, "latest", baseCurrency); err != nil {
		return models.RateSet{}, err
	}
	return rateSet, nil
}

// FetchRate returns the rate from one currency to another
func (client *ExchangeRateClient) FetchRate(ctx context.Context, from, to string) (models.RatePair, error) {
	var ratePair models.RatePair
	if err := client.get(ctx, &ratePair, "pair", from, to); err != nil {
		return models.RatePair{}, err
	}
	return ratePair, nil
}

// Convert converts amount from one currency to another
func (client *ExchangeRateClient) Convert(ctx context.Context, from, to string, amount float64) (models.ConversionResult, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.ConversionResult{}, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	var conversion models.ConversionResult
	if err := client.get(ctx, &conversion, "pair", from, to, models.FormatAmount(amount)); err != nil {
		return models.ConversionResult{}, err
	}
	return conversion, nil
}

// get performs one request and decodes a success body into out.
// Non-success statuses are returned as *ServiceError. A success status whose
// body lacks a required key is ErrUnexpectedResponse.
func (client *ExchangeRateClient) get(ctx context.Context, out payload, segments ...string) error {
	apiKey, err := client.credentials.Load()
	if err != nil {
		return fmt.Errorf("failed to load API key: %w", err)
	}

	endpoint := client.buildPath(segments...)
	requestLogger := client.logger.WithField("endpoint", endpoint)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, client.baseURL+"/"+url.PathEscape(apiKey)+endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}

	requestLogger.Debug("Requesting exchange rate service")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer response.Body.Close()

	body, readErr := io.ReadAll(response.Body)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		serviceError := classifyResponse(response.StatusCode, body)
		requestLogger.WithFields(logrus.Fields{
			"status":     response.StatusCode,
			"error_type": serviceError.ErrorType,
		}).Warnf("Exchange rate service error: %v", serviceError)
		return serviceError
	}

	if readErr != nil {
		return fmt.Errorf("%w: failed to read response body: %w", ErrTransport, readErr)
	}

	if err := models.CheckFields(body, out.RequiredFields()); err != nil {
		requestLogger.WithField("status", response.StatusCode).Warnf("Malformed success body: %v", err)
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	if !out.Succeeded() {
		return fmt.Errorf("%w: result is not success", ErrUnexpectedResponse)
	}

	requestLogger.WithField("status", response.StatusCode).Debug("Exchange rate service responded")
	return nil
}

// buildPath joins escaped segments into the part of the URL after the API key.
// It is also what gets logged, so the key never appears in log output.
func (client *ExchangeRateClient) buildPath(segments ...string) string {
	var path strings.Builder
	for _, segment := range segments {
		path.WriteString("/")
		path.WriteString(url.PathEscape(segment))
	}
	return path.String()
}
