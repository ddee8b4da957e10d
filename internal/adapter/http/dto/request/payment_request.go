package request

import (
	"encoding/json"
	"strings"
)

// IdempotencyKeyHeader lets clients retry a request without repeating its effect.
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentCreateRequest opens a payment for an order.
//
// `payment_data` is passed to the provider as-is (e.g. a Mercado Pago payment
// body, or {"token":"tok_approve"} for the sandbox).
type PaymentCreateRequest struct {
	OrderID        string          `json:"order_id" binding:"required,uuid"`
	IdempotencyKey string          `json:"idempotency_key"`
	PaymentData    json.RawMessage `json:"payment_data" swaggertype:"object"`
}

// ResolveIdempotencyKey prefers the header over the body field.
func (r PaymentCreateRequest) ResolveIdempotencyKey(header string) string {
	if v := strings.TrimSpace(header); v != "" {
		return v
	}
	return strings.TrimSpace(r.IdempotencyKey)
}

type PaymentProcessRequest struct {
	PaymentData json.RawMessage `json:"payment_data" swaggertype:"object"`
}

// RefundCreateRequest refunds Amount (minor units); an absent amount refunds
// everything still refundable.
type RefundCreateRequest struct {
	Amount         *int64 `json:"amount" binding:"omitempty,gt=0"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (r RefundCreateRequest) ResolveIdempotencyKey(header string) string {
	if v := strings.TrimSpace(header); v != "" {
		return v
	}
	return strings.TrimSpace(r.IdempotencyKey)
}
