package ai

import (
	"errors"
	"strings"
)

var (
	// ErrCredentialMissing means no usable API key is configured
	ErrCredentialMissing = errors.New("ai: provider API key is not configured")
	// ErrCredentialInvalid means the provider rejected the API key
	ErrCredentialInvalid = errors.New("ai: provider rejected the API key")
)

// UpstreamError is any other provider failure. Message carries the
// provider's own description for the logs.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return "ai: upstream provider failure"
	}
	return "ai: upstream provider failure: " + e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

var placeholderKeys = map[string]bool{
	"sk-xxx":         true,
	"changeme":       true,
	"change-me":      true,
	"your-api-key":   true,
	"your_api_key":   true,
	"openai_api_key": true,
	"none":           true,
	"null":           true,
}

// IsPlaceholderKey reports whether key is empty or an obvious template value
func IsPlaceholderKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" || placeholderKeys[k] {
		return true
	}
	return strings.HasPrefix(k, "your") || strings.HasPrefix(k, "<") || strings.Contains(k, "xxxx")
}
