package entities

import (
	"encoding/json"
	"time"
)

// WebhookEventType is the provider-independent meaning of a notification.
type WebhookEventType string

const (
	WebhookEventPaymentAuthorized WebhookEventType = "payment.authorized"
	WebhookEventPaymentCaptured   WebhookEventType = "payment.captured"
	WebhookEventPaymentFailed     WebhookEventType = "payment.failed"
	WebhookEventPaymentCancelled  WebhookEventType = "payment.cancelled"
	WebhookEventRefundSettled     WebhookEventType = "refund.settled"
	WebhookEventRefundFailed      WebhookEventType = "refund.failed"
)

type WebhookOutcome string

const (
	WebhookOutcomeAccepted  WebhookOutcome = "accepted"
	WebhookOutcomeRejected  WebhookOutcome = "rejected"
	WebhookOutcomeDuplicate WebhookOutcome = "duplicate"
)

// WebhookEvent is an inbound provider notification and what became of it.
//
// Storage model (DynamoDB):
//   - PK: provider, SK: id (provider event id)
type WebhookEvent struct {
	ID         string           `json:"id"`
	Provider   string           `json:"provider"`
	Type       WebhookEventType `json:"type"`
	PaymentRef string           `json:"payment_ref,omitempty"`
	RefundRef  string           `json:"refund_ref,omitempty"`
	Amount     int64            `json:"amount,omitempty"`
	Payload    json.RawMessage  `json:"payload,omitempty"`
	Signature  string           `json:"signature,omitempty"`
	Outcome    WebhookOutcome   `json:"outcome"`
	Reason     string           `json:"reason,omitempty"`
	ReceivedAt time.Time        `json:"received_at"`
}

// TargetState is the payment state a payment-level event drives toward.
func (t WebhookEventType) TargetState() (PaymentState, bool) {
	switch t {
	case WebhookEventPaymentAuthorized:
		return PaymentStateAuthorized, true
	case WebhookEventPaymentCaptured:
		return PaymentStateCaptured, true
	case WebhookEventPaymentFailed:
		return PaymentStateFailed, true
	case WebhookEventPaymentCancelled:
		return PaymentStateCancelled, true
	}
	return "", false
}

func (t WebhookEventType) IsRefundEvent() bool {
	return t == WebhookEventRefundSettled || t == WebhookEventRefundFailed
}
