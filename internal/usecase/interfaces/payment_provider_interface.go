package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"payment_gateway/internal/domain/entities"
)

// PaymentRequest is what an adapter needs to open a provider transaction.
//
// IdempotencyKey is stable across retries of the same client request so the
// provider can deduplicate on its side as well.
type PaymentRequest struct {
	PaymentID      string
	IdempotencyKey string
	Amount         entities.Money
	PaymentData    json.RawMessage
}

// ProviderPayment is the provider's view of a payment after a call.
type ProviderPayment struct {
	ProviderRef    string
	State          entities.PaymentState
	CapturedAmount int64
	Raw            json.RawMessage
}

type RefundRequest struct {
	RefundID       string
	IdempotencyKey string
	Amount         entities.Money
}

// ProviderRefund is the provider's answer to a refund. State is pending when the
// provider settles asynchronously (a refund webhook follows).
type ProviderRefund struct {
	ProviderRef string
	State       entities.RefundState
	Raw         json.RawMessage
}

// WebhookRequest is the transport-independent shape of an inbound notification.
type WebhookRequest struct {
	Headers http.Header
	Query   url.Values
	Body    []byte
}

// WebhookEventApplier applies a parsed provider event to the payment ledger.
// The webhook dispatcher implements it; adapters call it from HandleWebhook.
type WebhookEventApplier interface {
	ApplyWebhookEvent(ctx context.Context, event entities.WebhookEvent) error
}

// IPaymentProvider abstracts one external payment network (e.g. Mercado Pago).
//
// Failures are reported as *entities.ProviderError whose Kind is one of
// ErrProviderRejected, ErrInsufficientFunds or ErrProviderUnavailable.
type IPaymentProvider interface {
	Name() string
	CreatePayment(ctx context.Context, order entities.Order, req PaymentRequest) (ProviderPayment, error)
	ProcessPayment(ctx context.Context, payment entities.Payment, paymentData json.RawMessage) (ProviderPayment, error)
	RefundPayment(ctx context.Context, payment entities.Payment, req RefundRequest) (ProviderRefund, error)
	// ValidateWebhook never mutates state and returns false on any malformed input.
	ValidateWebhook(req WebhookRequest) bool
	// HandleWebhook is only called after ValidateWebhook succeeded.
	HandleWebhook(ctx context.Context, req WebhookRequest, applier WebhookEventApplier) (entities.WebhookEvent, error)
	RetrievePaymentStatus(ctx context.Context, payment entities.Payment) (ProviderPayment, error)
	CancelPayment(ctx context.Context, payment entities.Payment) (ProviderPayment, error)
}
