package handlers

import (
	"context"
	"errors"
	"net/http"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/usecase"
	"payment_gateway/pkg"
)

var (
	errInvalidRequest        = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	errInvalidOrderPayload   = pkg.NewDomainErrorSimple("INVALID_ORDER_INPUT", "Invalid order payload", http.StatusBadRequest)
	errInvalidPaymentPayload = pkg.NewDomainErrorSimple("INVALID_PAYMENT_INPUT", "Invalid payment payload", http.StatusBadRequest)
	errInvalidRefundPayload  = pkg.NewDomainErrorSimple("INVALID_REFUND_INPUT", "Invalid refund payload", http.StatusBadRequest)
)

// mapGatewayError renders use case and provider errors. Order matters:
// a gateway timeout also wraps the last provider error.
func mapGatewayError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, entities.ErrGatewayTimeout), errors.Is(err, context.DeadlineExceeded):
		return pkg.NewDomainError("GATEWAY_TIMEOUT", "Payment provider did not answer in time; the payment will be reconciled", err, http.StatusGatewayTimeout)
	case errors.Is(err, entities.ErrInsufficientFunds):
		return pkg.NewDomainError("INSUFFICIENT_FUNDS", "Insufficient funds", err, http.StatusPaymentRequired)
	case errors.Is(err, entities.ErrProviderRejected):
		return pkg.NewDomainError("PAYMENT_REJECTED", "Payment provider rejected the request", err, http.StatusPaymentRequired)
	case errors.Is(err, entities.ErrProviderUnavailable):
		return pkg.NewDomainError("PAYMENT_PROVIDER_UNAVAILABLE", "Payment provider unavailable", err, http.StatusServiceUnavailable)
	case errors.Is(err, entities.ErrInvalidRefundAmount):
		return pkg.NewDomainError("INVALID_REFUND_AMOUNT", "Refund amount exceeds what is refundable", err, http.StatusUnprocessableEntity)
	case errors.Is(err, usecase.ErrPaymentInProgress):
		return pkg.NewDomainError("PAYMENT_IN_PROGRESS", "Order already has a payment in progress", err, http.StatusConflict)
	case errors.Is(err, entities.ErrInvalidStateTransition):
		return pkg.NewDomainError("INVALID_STATE_TRANSITION", "Operation not allowed in the current payment state", err, http.StatusConflict)
	case errors.Is(err, entities.ErrIdempotencyConflict):
		return pkg.NewDomainError("IDEMPOTENCY_CONFLICT", "Idempotency key already used for a different request", err, http.StatusConflict)
	case errors.Is(err, entities.ErrUnknownProvider):
		return pkg.NewDomainError("UNKNOWN_PROVIDER", "Unknown payment provider", err, http.StatusBadRequest)
	case errors.Is(err, entities.ErrPaymentNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_NOT_FOUND", "Payment not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrOrderNotFound):
		return pkg.NewDomainErrorSimple("ORDER_NOT_FOUND", "Order not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrRefundNotFound):
		return pkg.NewDomainErrorSimple("REFUND_NOT_FOUND", "Refund not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrOrderNotOpen):
		return pkg.NewDomainError("ORDER_NOT_OPEN", "Order is not open", err, http.StatusConflict)
	case errors.Is(err, entities.ErrValidation):
		return pkg.NewDomainError("INVALID_REQUEST", "Invalid request", err, http.StatusBadRequest)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
