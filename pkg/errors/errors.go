package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeInvalidURL represents a product link that is not an absolute URL
	ErrorTypeInvalidURL ErrorType = "invalid_url"
	// ErrorTypeUnsupportedPlatform represents a link on a host no platform rule matches
	ErrorTypeUnsupportedPlatform ErrorType = "unsupported_platform"
	// ErrorTypeFetch represents a per-platform price retrieval failure
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeNoDeal represents a selection over an empty quote list
	ErrorTypeNoDeal ErrorType = "no_deal"
	// ErrorTypeConfigLoad represents missing or invalid reference data
	ErrorTypeConfigLoad ErrorType = "config_load"
)

// DealError represents a deal pipeline error
type DealError struct {
	Type     ErrorType
	Platform string
	Message  string
	Err      error
	Time     time.Time
}

// Error implements the error interface
func (e *DealError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Type)
	if e.Platform != "" {
		prefix += " " + e.Platform + ":"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s - %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *DealError) Unwrap() error {
	return e.Err
}

// IsTerminal reports whether the error ends the query. Fetch errors for a
// single platform are collected and only surface as warnings; a fetch error
// without a platform means no platform produced a price.
func (e *DealError) IsTerminal() bool {
	switch e.Type {
	case ErrorTypeFetch:
		return e.Platform == ""
	default:
		return true
	}
}

// New creates a new DealError
func New(errType ErrorType, platform, message string, err error) *DealError {
	return &DealError{
		Type:     errType,
		Platform: platform,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewInvalidURL creates a new invalid URL error
func NewInvalidURL(rawURL string, err error) *DealError {
	return New(ErrorTypeInvalidURL, "", fmt.Sprintf("invalid product url %q", rawURL), err)
}

// NewUnsupportedPlatform creates an error naming the supported platforms
func NewUnsupportedPlatform(host string, supported []string) *DealError {
	message := fmt.Sprintf("unsupported platform %q, supported: %s", host, strings.Join(supported, ", "))
	return New(ErrorTypeUnsupportedPlatform, "", message, nil)
}

// NewFetch creates a new fetch error
func NewFetch(platform, message string, err error) *DealError {
	return New(ErrorTypeFetch, platform, message, err)
}

// NewNoDeal creates a new no deal error
func NewNoDeal() *DealError {
	return New(ErrorTypeNoDeal, "", "no price quotes to choose from", nil)
}

// NewConfigLoad creates a new reference data error
func NewConfigLoad(message string, err error) *DealError {
	return New(ErrorTypeConfigLoad, "", message, err)
}

// IsTerminal reports whether err wraps a DealError that ends the query
func IsTerminal(err error) bool {
	var de *DealError
	if stderrors.As(err, &de) {
		return de.IsTerminal()
	}
	return false
}

// IsType reports whether err wraps a DealError of the given type
func IsType(err error, errType ErrorType) bool {
	var de *DealError
	if stderrors.As(err, &de) {
		return de.Type == errType
	}
	return false
}
