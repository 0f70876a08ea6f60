package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dalfonso89/currency-converter/internal/credentials"
	"github.com/dalfonso89/currency-converter/internal/models"
	"github.com/dalfonso89/currency-converter/internal/service"
	"github.com/dalfonso89/currency-converter/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient records calls and returns canned results
type fakeClient struct {
	rateSet    models.RateSet
	ratePair   models.RatePair
	conversion models.ConversionResult
	err        error

	calls   []string
	amounts []float64
}

func (f *fakeClient) FetchAllRates(ctx context.Context, baseCurrency string) (models.RateSet, error) {
	f.calls = append(f.calls, "all:"+baseCurrency)
	return f.rateSet, f.err
}

func (f *fakeClient) FetchRate(ctx context.Context, from, to string) (models.RatePair, error) {
	f.calls = append(f.calls, "rate:"+from+":"+to)
	return f.ratePair, f.err
}

func (f *fakeClient) Convert(ctx context.Context, from, to string, amount float64) (models.ConversionResult, error) {
	f.calls = append(f.calls, "convert:"+from+":"+to)
	f.amounts = append(f.amounts, amount)
	return f.conversion, f.err
}

// fakeKeys is an in-memory KeyStore
type fakeKeys struct {
	key string
	err error
}

func (f *fakeKeys) Load() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.key == "" {
		return "", credentials.ErrNotFound
	}
	return f.key, nil
}

func (f *fakeKeys) Save(apiKey string) error {
	if f.err != nil {
		return f.err
	}
	f.key = apiKey
	return nil
}

func (f *fakeKeys) Remove() error {
	if f.key == "" {
		return credentials.ErrNotFound
	}
	f.key = ""
	return nil
}

func newTestDispatcher(client RatesClient, keys KeyStore) (*Dispatcher, *bytes.Buffer) {
	var out bytes.Buffer
	return NewDispatcher(client, keys, &out, testutils.MockLogger()), &out
}

func TestDispatcher_Help(t *testing.T) {
	dispatcher, out := newTestDispatcher(&fakeClient{}, &fakeKeys{})

	require.NoError(t, dispatcher.Execute(context.Background(), "help", nil))

	assert.True(t, strings.HasPrefix(out.String(), "==== Help ====\n"))
	assert.Contains(t, out.String(), "convert [CURRENCY_FROM] [CURRENCY_TO] [AMOUNT]")
	assert.Contains(t, out.String(), "exit - Exit the program\n")
}

func TestDispatcher_Unknown(t *testing.T) {
	client := &fakeClient{}
	dispatcher, out := newTestDispatcher(client, &fakeKeys{})

	require.NoError(t, dispatcher.Execute(context.Background(), "quit", []string{"now"}))

	assert.Equal(t, "Command not recognized. Type help for a list of commands.\n", out.String())
	assert.Empty(t, client.calls)
}

func TestDispatcher_Exit(t *testing.T) {
	dispatcher, _ := newTestDispatcher(&fakeClient{}, &fakeKeys{})

	assert.ErrorIs(t, dispatcher.Execute(context.Background(), "exit", nil), ErrExit)
}

func TestDispatcher_AllRates(t *testing.T) {
	client := &fakeClient{
		rateSet: models.RateSet{
			Envelope:        models.Envelope{BaseCode: "EUR"},
			ConversionRates: map[string]float64{"USD": 1.0954, "EUR": 1, "GBP": 0.85},
		},
	}
	dispatcher, out := newTestDispatcher(client, &fakeKeys{})

	for _, alias := range []string{"all", "rates", "list"} {
		out.Reset()
		require.NoError(t, dispatcher.Execute(context.Background(), alias, []string{"EUR"}))

		assert.Equal(t, "Getting all exchange rates for EUR...\n"+
			"Exchange rates for EUR:\n"+
			"EUR: 1\n"+
			"GBP: 0.85\n"+
			"USD: 1.0954\n", out.String())
	}
	assert.Equal(t, []string{"all:EUR", "all:EUR", "all:EUR"}, client.calls)
}

func TestDispatcher_AllRates_DefaultBase(t *testing.T) {
	client := &fakeClient{rateSet: models.RateSet{Envelope: models.Envelope{BaseCode: "USD"}}}
	dispatcher, out := newTestDispatcher(client, &fakeKeys{})

	require.NoError(t, dispatcher.Execute(context.Background(), "all", nil))

	assert.Contains(t, out.String(), "Base currency not provided. Using USD as the base currency.\n")
	assert.Equal(t, []string{"all:USD"}, client.calls)
}

func TestDispatcher_AllRates_Error(t *testing.T) {
	client := &fakeClient{err: service.ErrUnsupportedCurrency}
	dispatcher, out := newTestDispatcher(client, &fakeKeys{})

	require.NoError(t, dispatcher.Execute(context.Background(), "all", []string{"UST"}))

	assert.Contains(t, out.String(), "Error getting exchange rates: Unsupported currency.\n")
}

func TestDispatcher_Rate(t *testing.T) {
	client := &fakeClient{ratePair: models.RatePair{
		Envelope:       models.Envelope{BaseCode: "USD"},
		TargetCode:     "EUR",
		ConversionRate: 0.9013,
	}}
	dispatcher, out := newTestDispatcher(client, &fakeKeys{})

	require.NoError(t, dispatcher.Execute(context.Background(), "rate", []string{"USD", "EUR"}))

	assert.Equal(t, "Getting the exchange rate between USD and EUR...\n"+
		"Exchange rate from USD to EUR: 0.9013\n", out.String())
}

func TestDispatcher_Rate_WrongArity(t *testing.T) {
	for _, args := range [][]string{nil, {"USD"}, {"USD", "EUR", "GBP"}} {
		client := &fakeClient{}
		dispatcher, out := newTestDispatcher(client, &fakeKeys{})

		require.NoError(t, dispatcher.Execute(context.Background(), "rate", args))

		assert.Contains(t, out.String(), "[Example: rate USD EUR]")
		assert.Empty(t, client.calls)
	}
}

func TestDispatcher_Convert(t *testing.T) {
	client := &fakeClient{conversion: models.ConversionResult{
		RatePair: models.RatePair{
			Envelope:       models.Envelope{BaseCode: "USD"},
			TargetCode:     "EUR",
			ConversionRate: 0.9013,
		},
		ConversionResult: 90.13,
	}}
	dispatcher, out := newTestDispatcher(client, &fakeKeys{})

	require.NoError(t, dispatcher.Execute(context.Background(), "convert", []string{"USD", "EUR", "100"}))

	assert.Equal(t, "Converting 100 USD to EUR...\n"+
		"100 USD is equal to 90.13 EUR.\n"+
		"Exchange rate used: 0.9013\n", out.String())
	assert.Equal(t, []float64{100}, client.amounts)
}

func TestDispatcher_Convert_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"missing amount", []string{"USD", "EUR"}, "[Example: convert USD EUR 100]"},
		{"not a number", []string{"USD", "EUR", "ten"}, "Invalid amount provided. Please provide a valid number."},
		{"nan", []string{"USD", "EUR", "NaN"}, "Invalid amount provided. Please provide a valid number."},
		{"infinite", []string{"USD", "EUR", "Inf"}, "Invalid amount provided. Please provide a valid number."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			dispatcher, out := newTestDispatcher(client, &fakeKeys{})

			require.NoError(t, dispatcher.Execute(context.Background(), "convert", tt.args))

			assert.Contains(t, out.String(), tt.expected)
			assert.Empty(t, client.calls)
		})
	}
}

func TestDispatcher_Convert_Error(t *testing.T) {
	client := &fakeClient{err: service.ErrQuotaReached}
	dispatcher, out := newTestDispatcher(client, &fakeKeys{})

	require.NoError(t, dispatcher.Execute(context.Background(), "convert", []string{"USD", "EUR", "0.00025"}))

	assert.Equal(t, "Converting 0.00025 USD to EUR...\n"+
		"Error converting currency: Quota reached.\n", out.String())
}

func TestDispatcher_RequestErrorAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"all", []string{"EUR"}, "Getting all exchange rates for EUR...\n"},
		{"rate", []string{"USD", "EUR"}, "Getting the exchange rate between USD and EUR...\n"},
		{"convert", []string{"USD", "EUR", "2"}, "Converting 2 USD to EUR...\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{err: fmt.Errorf("%w: %w", service.ErrTransport, context.Canceled)}
			dispatcher, out := newTestDispatcher(client, &fakeKeys{})

			require.NoError(t, dispatcher.Execute(ctx, tt.name, tt.args))

			assert.Equal(t, tt.expected, out.String())
			assert.NotContains(t, out.String(), "Error")
			assert.Len(t, client.calls, 1)
		})
	}
}

func TestDispatcher_Key(t *testing.T) {
	keys := &fakeKeys{}
	dispatcher, out := newTestDispatcher(&fakeClient{}, keys)
	ctx := context.Background()

	steps := []struct {
		args     []string
		expected string
	}{
		{nil, "Please provide a command to view, set, or remove the API key.\n[Example: key view]\n"},
		{[]string{"view"}, "Error reading API key: no API key set\n"},
		{[]string{"set"}, "Please provide an API key to set.\n[Example: key set YOUR_API_KEY]\n"},
		{[]string{"set", "abc123"}, "API key set.\n"},
		{[]string{"view"}, "API key: abc123\n"},
		{[]string{"remove"}, "API key removed.\n"},
		{[]string{"remove"}, "Error removing API key: no API key set\n"},
		{[]string{"rotate"}, "Command not recognized. Please provide a command to view, set, or remove the API key.\n[Example: key view]\n"},
	}

	for _, step := range steps {
		out.Reset()
		require.NoError(t, dispatcher.Execute(ctx, "key", step.args))
		assert.Equal(t, step.expected, out.String(), "key %v", step.args)
	}
}

func TestDispatcher_Key_SaveError(t *testing.T) {
	keys := &fakeKeys{err: errors.New("disk full")}
	dispatcher, out := newTestDispatcher(&fakeClient{}, keys)

	require.NoError(t, dispatcher.Execute(context.Background(), "key", []string{"set", "abc"}))

	assert.Equal(t, "Error setting API key: disk full\n", out.String())
}

func TestDispatcher_WithMockServer(t *testing.T) {
	mockServer := testutils.NewMockExchangeRateServer()
	defer mockServer.Close()

	t.Setenv("CURRENCY_CONVERTER_TEST_KEY", "")
	cfg := testutils.MockConfig(mockServer.URL())
	store := credentials.NewStore(t.TempDir(), cfg.APIKeyEnv)
	client := service.NewExchangeRateClient(cfg, store, testutils.MockLogger())
	dispatcher, out := newTestDispatcher(client, store)
	ctx := context.Background()

	require.NoError(t, dispatcher.Execute(ctx, "rate", []string{"USD", "EUR"}))
	assert.Contains(t, out.String(), "Error getting exchange rate: failed to load API key: no API key set")
	assert.Empty(t, mockServer.Requests())

	out.Reset()
	require.NoError(t, dispatcher.Execute(ctx, "key", []string{"set", testutils.MockAPIKey}))
	require.NoError(t, dispatcher.Execute(ctx, "rate", []string{"USD", "EUR"}))
	assert.Contains(t, out.String(), "Exchange rate from USD to EUR: 0.9013\n")

	out.Reset()
	require.NoError(t, dispatcher.Execute(ctx, "convert", []string{"USD", "EUX", "100"}))
	assert.Contains(t, out.String(), "Error converting currency: Unsupported currency.\n")
}
