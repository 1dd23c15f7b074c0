package llm

import (
	"errors"
	"fmt"
)

var (
	ErrProviderUnavailable = errors.New("llm provider unavailable")
	ErrInvalidResponse     = errors.New("llm provider returned invalid response")
)

// ConfigError reports a misconfigured provider (unknown name or missing
// credential). It is not retryable; the configuration will not fix itself
// between attempts.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
