package service

import (
	"encoding/json"
	"errors"

	"github.com/dalfonso89/currency-converter/internal/models"
)

// ErrorKind classifies a failed response from the exchange rate service
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindUnsupportedCurrency
	ErrorKindMalformedRequest
	ErrorKindInvalidAPIKey
	ErrorKindInactiveAccount
	ErrorKindQuotaReached
)

func (kind ErrorKind) String() string {
	switch kind {
	case ErrorKindUnsupportedCurrency:
		return "Unsupported currency."
	case ErrorKindMalformedRequest:
		return "Malformed request."
	case ErrorKindInvalidAPIKey:
		return "Invalid API key."
	case ErrorKindInactiveAccount:
		return "Inactive account."
	case ErrorKindQuotaReached:
		return "Quota reached."
	default:
		return "Unknown error."
	}
}

// errorTypes maps the service's "error-type" values to kinds.
// Anything missing from the table is ErrorKindUnknown.
var errorTypes = map[string]ErrorKind{
	"unsupported-code":  ErrorKindUnsupportedCurrency,
	"malformed-request": ErrorKindMalformedRequest,
	"invalid-key":       ErrorKindInvalidAPIKey,
	"inactive-account":  ErrorKindInactiveAccount,
	"quota-reached":     ErrorKindQuotaReached,
}

// ServiceError is returned when the service answers with a non-success status
type ServiceError struct {
	Kind       ErrorKind
	StatusCode int
	ErrorType  string // raw "error-type" value, empty if the body could not be decoded
}

func (e *ServiceError) Error() string {
	return e.Kind.String()
}

// Is reports whether target is a ServiceError of the same kind, so callers can
// write errors.Is(err, ErrUnsupportedCurrency).
func (e *ServiceError) Is(target error) bool {
	var other *ServiceError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

var (
	ErrUnsupportedCurrency = &ServiceError{Kind: ErrorKindUnsupportedCurrency}
	ErrMalformedRequest    = &ServiceError{Kind: ErrorKindMalformedRequest}
	ErrInvalidAPIKey       = &ServiceError{Kind: ErrorKindInvalidAPIKey}
	ErrInactiveAccount     = &ServiceError{Kind: ErrorKindInactiveAccount}
	ErrQuotaReached        = &ServiceError{Kind: ErrorKindQuotaReached}
	ErrUnknown             = &ServiceError{Kind: ErrorKindUnknown}
)

var (
	// ErrTransport wraps network failures and unreadable bodies
	ErrTransport = errors.New("request failed")
	// ErrUnexpectedResponse wraps a success status whose body does not match the expected shape
	ErrUnexpectedResponse = errors.New("unexpected response from exchange rate service")
	// ErrInvalidAmount is returned for NaN or infinite conversion amounts
	ErrInvalidAmount = errors.New("invalid amount")
)

// classifyErrorType maps an "error-type" string to its kind
func classifyErrorType(errorType string) ErrorKind {
	if kind, ok := errorTypes[errorType]; ok {
		return kind
	}
	return ErrorKindUnknown
}

// classifyResponse builds the ServiceError for a non-success response body.
// A body that is not a valid error envelope is ErrorKindUnknown.
func classifyResponse(statusCode int, body []byte) *ServiceError {
	serviceError := &ServiceError{Kind: ErrorKindUnknown, StatusCode: statusCode}

	var envelope models.ErrorResponse
	if err := models.CheckFields(body, envelope.RequiredFields()); err != nil {
		return serviceError
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return serviceError
	}

	serviceError.ErrorType = envelope.ErrorType
	serviceError.Kind = classifyErrorType(envelope.ErrorType)
	return serviceError
}
