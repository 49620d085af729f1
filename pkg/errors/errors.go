package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeTransport represents network and timeout failures
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeHTTPStatus represents a non-2xx response
	ErrorTypeHTTPStatus ErrorType = "http_status"
	// ErrorTypeMarkupParse represents a page that could not be parsed
	ErrorTypeMarkupParse ErrorType = "markup_parse"
	// ErrorTypeInvalidInput represents an unknown source, city or bad request value
	ErrorTypeInvalidInput ErrorType = "invalid_input"
	// ErrorTypeRateLimit represents a site that is currently blocked after a 429
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeStorage represents persistence errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlerError represents a crawler-specific error
type CrawlerError struct {
	Type       ErrorType
	Provider   string
	Message    string
	StatusCode int
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Provider, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the failure is transient in the general case.
// HTTP status errors are decided by the fetch retry policy, not here.
func (e *CrawlerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeTransport:
		return true
	default:
		return false
	}
}

// GetStatusCode returns the HTTP status carried by the error, or 0
func (e *CrawlerError) GetStatusCode() int {
	return e.StatusCode
}

// New creates a new CrawlerError
func New(errType ErrorType, provider, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:     errType,
		Provider: provider,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewTransport creates a new transport error
func NewTransport(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeTransport, provider, message, err)
}

// NewHTTPStatus creates an error for a non-2xx response
func NewHTTPStatus(provider, url string, status int) *CrawlerError {
	e := New(ErrorTypeHTTPStatus, provider, fmt.Sprintf("unexpected status code %d for %s", status, url), nil)
	e.StatusCode = status
	return e
}

// NewMarkupParse creates a new markup parse error
func NewMarkupParse(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeMarkupParse, provider, message, err)
}

// NewInvalidInput creates a new invalid input error
func NewInvalidInput(provider, message string) *CrawlerError {
	return New(ErrorTypeInvalidInput, provider, message, nil)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(provider string, duration time.Duration) *CrawlerError {
	message := fmt.Sprintf("rate limited for %v", duration)
	e := New(ErrorTypeRateLimit, provider, message, nil)
	e.StatusCode = 429
	return e
}

// NewCache creates a new cache error
func NewCache(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeCache, provider, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(message string, err error) *CrawlerError {
	return New(ErrorTypePublisher, "publisher", message, err)
}

// NewStorage creates a new storage error
func NewStorage(message string, err error) *CrawlerError {
	return New(ErrorTypeStorage, "storage", message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether any CrawlerError in err's chain has the given type
func IsType(err error, errType ErrorType) bool {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.Type == errType
	}
	return false
}

// StatusCode returns the HTTP status of the first CrawlerError in err's chain, or 0
func StatusCode(err error) int {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}
