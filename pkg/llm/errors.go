package llm

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrEmptyResponse = errors.New("empty response from model")
	ErrNotConfigured = errors.New("model API key is not configured")
)

// APIError is a non-200 reply from the model provider.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("model API error (status %d, %s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("model API error (status %d): %s", e.StatusCode, e.Message)
}

// ParseError means the model answered but not with the expected JSON.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse model reply: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrorKind is the user-facing category of an upstream failure.
type ErrorKind string

const (
	KindNotConfigured      ErrorKind = "not_configured"
	KindAuth               ErrorKind = "auth"
	KindRateLimit          ErrorKind = "rate_limit"
	KindQuota              ErrorKind = "quota"
	KindNetwork            ErrorKind = "network"
	KindUnreadableDocument ErrorKind = "unreadable_document"
	KindPayloadTooLarge    ErrorKind = "payload_too_large"
	KindUnknown            ErrorKind = "unknown"
)

// Classify maps an error from Model.Complete onto an ErrorKind. Typed
// errors are checked first; the substring table covers errors that
// arrive as plain text from proxies or wrapped transports.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotConfigured) {
		return KindNotConfigured
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if kind := classifyAPIError(apiErr); kind != KindUnknown {
			return kind
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindNetwork
	}

	return classifyText(err.Error())
}

func classifyAPIError(e *APIError) ErrorKind {
	msg := strings.ToLower(e.Message)
	switch {
	case e.StatusCode == 401 || e.StatusCode == 403:
		return KindAuth
	case e.StatusCode == 429:
		return KindRateLimit
	case e.StatusCode == 413:
		return KindPayloadTooLarge
	case strings.Contains(msg, "credit balance") || strings.Contains(msg, "insufficient"):
		return KindQuota
	}
	return classifyText(e.Message)
}

var substringKinds = []struct {
	needle string
	kind   ErrorKind
}{
	{"401", KindAuth},
	{"authentication", KindAuth},
	{"429", KindRateLimit},
	{"rate limit", KindRateLimit},
	{"insufficient", KindQuota},
	{"credit balance", KindQuota},
	{"enotfound", KindNetwork},
	{"network", KindNetwork},
	{"no such host", KindNetwork},
	{"connection refused", KindNetwork},
	{"could not process", KindUnreadableDocument},
	{"too large", KindPayloadTooLarge},
}

func classifyText(text string) ErrorKind {
	lower := strings.ToLower(text)
	for _, s := range substringKinds {
		if strings.Contains(lower, s.needle) {
			return s.kind
		}
	}
	return KindUnknown
}
