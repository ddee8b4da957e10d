package entities

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by adapters, the router and the HTTP layer.
var (
	ErrValidation             = errors.New("validation error")
	ErrProviderRejected       = errors.New("provider rejected")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrProviderUnavailable    = errors.New("provider unavailable")
	ErrGatewayTimeout         = errors.New("gateway timeout")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidRefundAmount    = errors.New("invalid refund amount")
	ErrDuplicateEvent         = errors.New("duplicate event")
	ErrUnknownEventType       = errors.New("unknown event type")
	ErrUnknownProvider        = errors.New("unknown provider")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrOrderNotFound          = errors.New("order not found")
	ErrRefundNotFound         = errors.New("refund not found")
	ErrIdempotencyConflict    = errors.New("idempotency key reused with a different request")
	ErrVersionConflict        = errors.New("version conflict")
)

// ProviderError carries the failure kind of a provider call together with the
// provider's own error. Both satisfy errors.Is.
type ProviderError struct {
	Provider string
	Op       string
	Kind     error
	Err      error
}

func NewProviderError(provider, op string, kind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Kind: kind, Err: err}
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Provider, e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsRetryable reports whether err is a transient provider failure.
// Rejections (including insufficient funds) and validation failures are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrProviderRejected) || errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrValidation) {
		return false
	}
	return errors.Is(err, ErrProviderUnavailable)
}

// IsRejection reports whether the provider made a business decision against the request.
func IsRejection(err error) bool {
	return errors.Is(err, ErrProviderRejected) || errors.Is(err, ErrInsufficientFunds)
}
