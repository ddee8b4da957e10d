package response

import (
	"testing"
	"time"

	"payment_gateway/internal/domain/entities"
)

func TestFromPayment(t *testing.T) {
	now := time.Now().UTC()
	p := entities.Payment{
		ID:             "pay-1",
		OrderID:        "ord-1",
		Provider:       "sandbox",
		ProviderRef:    "sbx_1",
		Amount:         entities.Money{Amount: 1000, Currency: "BRL"},
		CapturedAmount: 1000,
		RefundedAmount: 300,
		State:          entities.PaymentStatePartiallyRefunded,
		Transitions: []entities.StateTransition{
			{From: entities.PaymentStatePending, To: entities.PaymentStateCaptured, Source: "provider:process", At: now},
			{From: entities.PaymentStateCaptured, To: entities.PaymentStatePartiallyRefunded, Source: "provider:refund", At: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	res := FromPayment(p)
	if res.ID != "pay-1" || res.PaymentID != "pay-1" {
		t.Fatalf("unexpected ids: %+v", res)
	}
	if res.State != "partially_refunded" || res.Currency != "BRL" {
		t.Fatalf("unexpected fields: %+v", res)
	}
	if res.RefundableAmount != 700 {
		t.Fatalf("expected refundable 700, got %d", res.RefundableAmount)
	}
	if len(res.Transitions) != 2 || res.Transitions[1].To != "partially_refunded" {
		t.Fatalf("unexpected transitions: %+v", res.Transitions)
	}
}

func TestFromPayments_Empty(t *testing.T) {
	res := FromPayments(nil)
	if res == nil || len(res) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", res)
	}
}

func TestFromOrderAndRefund(t *testing.T) {
	o := FromOrder(entities.Order{ID: "ord-1", Total: entities.Money{Amount: 500, Currency: "USD"}, Status: entities.OrderStatusOpen, Provider: "sandbox"})
	if o.OrderID != "ord-1" || o.Amount != 500 || o.Status != "open" {
		t.Fatalf("unexpected order response: %+v", o)
	}

	r := FromRefund(entities.RefundRecord{ID: "rf-1", PaymentID: "pay-1", Amount: entities.Money{Amount: 200, Currency: "USD"}, State: entities.RefundStateSettled})
	if r.ID != "rf-1" || r.Amount != 200 || r.State != "settled" {
		t.Fatalf("unexpected refund response: %+v", r)
	}
}
