package response

import (
	"time"

	"payment_gateway/internal/domain/entities"
)

type TransitionResponse struct {
	From   string    `json:"from"`
	To     string    `json:"to"`
	Source string    `json:"source"`
	At     time.Time `json:"at"`
}

type PaymentResponse struct {
	PaymentID           string               `json:"payment_id"`
	ID                  string               `json:"id"`
	OrderID             string               `json:"order_id"`
	Provider            string               `json:"provider"`
	ProviderRef         string               `json:"provider_ref,omitempty"`
	State               string               `json:"state"`
	Amount              int64                `json:"amount"`
	Currency            string               `json:"currency"`
	CapturedAmount      int64                `json:"captured_amount"`
	RefundedAmount      int64                `json:"refunded_amount"`
	PendingRefundAmount int64                `json:"pending_refund_amount"`
	RefundableAmount    int64                `json:"refundable_amount"`
	Transitions         []TransitionResponse `json:"transitions"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

func FromPayment(p entities.Payment) PaymentResponse {
	transitions := make([]TransitionResponse, 0, len(p.Transitions))
	for _, tr := range p.Transitions {
		transitions = append(transitions, TransitionResponse{
			From:   string(tr.From),
			To:     string(tr.To),
			Source: tr.Source,
			At:     tr.At,
		})
	}
	return PaymentResponse{
		PaymentID:           p.ID,
		ID:                  p.ID,
		OrderID:             p.OrderID,
		Provider:            p.Provider,
		ProviderRef:         p.ProviderRef,
		State:               string(p.State),
		Amount:              p.Amount.Amount,
		Currency:            p.Amount.Currency,
		CapturedAmount:      p.CapturedAmount,
		RefundedAmount:      p.RefundedAmount,
		PendingRefundAmount: p.PendingRefundAmount,
		RefundableAmount:    p.RefundableAmount(),
		Transitions:         transitions,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func FromPayments(ps []entities.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, FromPayment(p))
	}
	return out
}

type RefundResponse struct {
	ID          string    `json:"id"`
	PaymentID   string    `json:"payment_id"`
	ProviderRef string    `json:"provider_ref,omitempty"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromRefund(r entities.RefundRecord) RefundResponse {
	return RefundResponse{
		ID:          r.ID,
		PaymentID:   r.PaymentID,
		ProviderRef: r.ProviderRef,
		Amount:      r.Amount.Amount,
		Currency:    r.Amount.Currency,
		State:       string(r.State),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func FromRefunds(rs []entities.RefundRecord) []RefundResponse {
	out := make([]RefundResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromRefund(r))
	}
	return out
}

// RefundResultResponse pairs a refund with the payment after it was applied.
type RefundResultResponse struct {
	Refund  RefundResponse  `json:"refund"`
	Payment PaymentResponse `json:"payment"`
}

type WebhookAckResponse struct {
	Received bool   `json:"received"`
	EventID  string `json:"event_id,omitempty"`
	Outcome  string `json:"outcome"`
}

func FromWebhookEvent(e entities.WebhookEvent) WebhookAckResponse {
	return WebhookAckResponse{
		Received: true,
		EventID:  e.ID,
		Outcome:  string(e.Outcome),
	}
}
