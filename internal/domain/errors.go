package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrRateLimited        = errors.New("daily message limit reached")
	ErrUpstream           = errors.New("upstream service failure")
)

// Error codes returned to clients alongside the HTTP status.
const (
	CodeAuthenticationRequired = "authentication_required"
	CodeValidationFailed       = "validation_failed"
	CodeNotFound               = "not_found"
	CodeInsufficientPoints     = "insufficient_points"
	CodeRateLimited            = "rate_limited"
	CodeUpstreamFailure        = "upstream_failure"
	CodeInternal               = "internal"
)

// LimitStatus is the outcome of a daily message quota check.
type LimitStatus struct {
	CanSend        bool   `json:"can_send"`
	RemainingCount int    `json:"remaining_count"`
	CurrentCount   int    `json:"current_count"`
	DailyLimit     int    `json:"daily_limit"`
	Message        string `json:"message,omitempty"`
}

// RateLimitError carries the quota state so clients can render a countdown.
type RateLimitError struct {
	Status LimitStatus
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (%d/%d)", ErrRateLimited.Error(), e.Status.CurrentCount, e.Status.DailyLimit)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// Validationf wraps ErrValidation with a client-facing reason.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
