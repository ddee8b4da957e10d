package interfaces

import (
	"context"

	"payment_gateway/internal/domain/entities"
)

// IPaymentRepository abstracts persistence for Payment.
//
// Lookups return a zero Payment (empty ID) when nothing matches.
// Update is a compare-and-swap on Version: it stores p with Version+1 and fails
// with entities.ErrVersionConflict when the stored version differs from p.Version.
type IPaymentRepository interface {
	Create(ctx context.Context, p entities.Payment) (entities.Payment, error)
	GetByID(ctx context.Context, id string) (entities.Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (entities.Payment, error)
	GetByProviderRef(ctx context.Context, provider, ref string) (entities.Payment, error)
	ListByOrderID(ctx context.Context, orderID string) ([]entities.Payment, error)
	Update(ctx context.Context, p entities.Payment) (entities.Payment, error)
}

// IRefundRepository abstracts persistence for RefundRecord.
type IRefundRepository interface {
	Create(ctx context.Context, r entities.RefundRecord) (entities.RefundRecord, error)
	Update(ctx context.Context, r entities.RefundRecord) (entities.RefundRecord, error)
	GetByID(ctx context.Context, id string) (entities.RefundRecord, error)
	GetByIdempotencyKey(ctx context.Context, paymentID, key string) (entities.RefundRecord, error)
	GetByProviderRef(ctx context.Context, paymentID, ref string) (entities.RefundRecord, error)
	ListByPaymentID(ctx context.Context, paymentID string) ([]entities.RefundRecord, error)
}

// IWebhookEventRepository keeps the log of received webhook events.
type IWebhookEventRepository interface {
	Save(ctx context.Context, e entities.WebhookEvent) error
	Get(ctx context.Context, provider, id string) (entities.WebhookEvent, error)
}

// IReconciliationScheduler queues a status follow-up for a payment left in an
// ambiguous state (e.g. a provider call timed out after being sent).
type IReconciliationScheduler interface {
	Schedule(ctx context.Context, paymentID, reason string)
}
