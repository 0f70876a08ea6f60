package testutils

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/dalfonso89/currency-converter/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	MockAPIKey = "test-api-key"

	MockLastUpdateUnix = int64(1585267200)
	MockLastUpdateUTC  = "Fri, 27 Mar 2020 00:00:00 +0000"
	MockNextUpdateUnix = int64(1585353700)
	MockNextUpdateUTC  = "Sat, 28 Mar 2020 00:00:00 +0000"
)

// MockRates are USD-relative rates served by the mock server
var MockRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.9013,
	"GBP": 0.7679,
	"JPY": 151.62,
	"CAD": 1.3628,
	"AUD": 1.5272,
}

type cannedResponse struct {
	status int
	body   string
}

// MockExchangeRateServer imitates the exchangerate-api.com v6 service
type MockExchangeRateServer struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []string
	canned   *cannedResponse
}

// NewMockExchangeRateServer creates a new mock exchange rate server
func NewMockExchangeRateServer() *MockExchangeRateServer {
	mock := &MockExchangeRateServer{}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mock.record)

	v6 := router.Group("/v6")
	{
		v6.GET("/:key/latest/:base", mock.latest)
		v6.GET("/:key/pair/:from/:to", mock.pair)
		v6.GET("/:key/pair/:from/:to/:amount", mock.pair)
	}
	router.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "malformed-request")
	})

	mock.server = httptest.NewServer(router)
	return mock
}

// URL returns the base URL the client should be configured with
func (m *MockExchangeRateServer) URL() string {
	return m.server.URL + "/v6"
}

// Close shuts the server down
func (m *MockExchangeRateServer) Close() {
	m.server.Close()
}

// Requests returns the paths received so far
func (m *MockExchangeRateServer) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

// RespondWith makes every following request return status and body verbatim
func (m *MockExchangeRateServer) RespondWith(status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canned = &cannedResponse{status: status, body: body}
}

// Reset restores normal behaviour and clears recorded requests
func (m *MockExchangeRateServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canned = nil
	m.requests = nil
}

func (m *MockExchangeRateServer) record(c *gin.Context) {
	m.mu.Lock()
	m.requests = append(m.requests, c.Request.URL.Path)
	canned := m.canned
	m.mu.Unlock()

	if canned != nil {
		c.Data(canned.status, "application/json", []byte(canned.body))
		c.Abort()
		return
	}

	if c.Param("key") != "" && c.Param("key") != MockAPIKey {
		writeError(c, http.StatusForbidden, "invalid-key")
		c.Abort()
		return
	}
	c.Next()
}

func (m *MockExchangeRateServer) latest(c *gin.Context) {
	base := c.Param("base")
	baseRate, ok := MockRates[base]
	if !ok {
		writeError(c, http.StatusNotFound, "unsupported-code")
		return
	}

	rates := make(map[string]float64, len(MockRates))
	for code, rate := range MockRates {
		rates[code] = rate / baseRate
	}

	c.JSON(http.StatusOK, models.RateSet{
		Envelope:        envelope(base),
		ConversionRates: rates,
	})
}

func (m *MockExchangeRateServer) pair(c *gin.Context) {
	from, to := c.Param("from"), c.Param("to")
	fromRate, fromOK := MockRates[from]
	toRate, toOK := MockRates[to]
	if !fromOK || !toOK {
		writeError(c, http.StatusNotFound, "unsupported-code")
		return
	}

	pair := models.RatePair{
		Envelope:       envelope(from),
		TargetCode:     to,
		ConversionRate: toRate / fromRate,
	}

	amountParam := c.Param("amount")
	if amountParam == "" {
		c.JSON(http.StatusOK, pair)
		return
	}

	amount, err := strconv.ParseFloat(amountParam, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "malformed-request")
		return
	}

	c.JSON(http.StatusOK, models.ConversionResult{
		RatePair:         pair,
		ConversionResult: amount * pair.ConversionRate,
	})
}

func envelope(base string) models.Envelope {
	return models.Envelope{
		Result:        "success",
		Documentation: "https://www.exchangerate-api.com/docs",
		TermsOfUse:    "https://www.exchangerate-api.com/terms",
		Freshness: models.Freshness{
			TimeLastUpdateUnix: MockLastUpdateUnix,
			TimeLastUpdateUTC:  MockLastUpdateUTC,
			TimeNextUpdateUnix: MockNextUpdateUnix,
			TimeNextUpdateUTC:  MockNextUpdateUTC,
		},
		BaseCode: base,
	}
}

func writeError(c *gin.Context, status int, errorType string) {
	c.JSON(status, models.ErrorResponse{Result: "error", ErrorType: errorType})
}
