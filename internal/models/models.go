package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrMissingField is returned by CheckFields when a required key is absent or null
var ErrMissingField = errors.New("missing required field")

// envelopeFields are present in every successful response
var envelopeFields = []string{
	"result",
	"base_code",
	"time_last_update_unix",
	"time_last_update_utc",
	"time_next_update_unix",
	"time_next_update_utc",
}

// Freshness is the update window the service attaches to every successful response.
type Freshness struct {
	TimeLastUpdateUnix int64  `json:"time_last_update_unix"`
	TimeLastUpdateUTC  string `json:"time_last_update_utc"`
	TimeNextUpdateUnix int64  `json:"time_next_update_unix"`
	TimeNextUpdateUTC  string `json:"time_next_update_utc"`
}

// Envelope holds the fields shared by all successful responses
type Envelope struct {
	Result        string `json:"result"`
	Documentation string `json:"documentation"`
	TermsOfUse    string `json:"terms_of_use"`
	Freshness
	BaseCode string `json:"base_code"`
}

// Succeeded reports whether the service marked the response as a success
func (e Envelope) Succeeded() bool {
	return e.Result == "success"
}

// RateSet is the /latest response: every known rate relative to BaseCode.
type RateSet struct {
	Envelope
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// RequiredFields lists the keys a /latest body must carry
func (RateSet) RequiredFields() []string {
	return withEnvelope("conversion_rates")
}

// RatePair is the /pair response
type RatePair struct {
	Envelope
	TargetCode     string  `json:"target_code"`
	ConversionRate float64 `json:"conversion_rate"`
}

// RequiredFields lists the keys a /pair body must carry
func (RatePair) RequiredFields() []string {
	return withEnvelope("target_code", "conversion_rate")
}

// ConversionResult is the /pair response with an amount
type ConversionResult struct {
	RatePair
	ConversionResult float64 `json:"conversion_result"`
}

// RequiredFields lists the keys a /pair body with an amount must carry
func (ConversionResult) RequiredFields() []string {
	return withEnvelope("target_code", "conversion_rate", "conversion_result")
}

// ErrorResponse is the body returned with a non-success status
type ErrorResponse struct {
	Result    string `json:"result"`
	ErrorType string `json:"error-type"`
}

// RequiredFields lists the keys an error body must carry
func (ErrorResponse) RequiredFields() []string {
	return []string{"result", "error-type"}
}

func withEnvelope(fields ...string) []string {
	return append(append(make([]string, 0, len(envelopeFields)+len(fields)), envelopeFields...), fields...)
}

// CheckFields reports an error unless body is a JSON object holding every key
// in fields with a non-null value.
func CheckFields(body []byte, fields []string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return err
	}
	for _, field := range fields {
		value, ok := raw[field]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	return nil
}

// FormatAmount renders a float as the shortest decimal string that parses back
// to the same value, without exponent notation.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).String()
}
