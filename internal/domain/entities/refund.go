package entities

import "time"

type RefundState string

const (
	RefundStatePending RefundState = "pending"
	RefundStateSettled RefundState = "settled"
	RefundStateFailed  RefundState = "failed"
)

// RefundRecord is a refund issued against a payment.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI payment_id-index: payment_id
type RefundRecord struct {
	ID             string      `json:"id"`
	PaymentID      string      `json:"payment_id"`
	ProviderRef    string      `json:"provider_ref,omitempty"`
	IdempotencyKey string      `json:"idempotency_key,omitempty"`
	Amount         Money       `json:"amount"`
	State          RefundState `json:"state"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
