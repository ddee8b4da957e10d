package entities

import (
	"fmt"
	"time"
)

// StateTransition is one entry of a payment's lifecycle ledger.
type StateTransition struct {
	From   PaymentState `json:"from"`
	To     PaymentState `json:"to"`
	Source string       `json:"source"`
	At     time.Time    `json:"at"`
}

// Payment is the payment entity persisted by the gateway.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI order_id-index: order_id
//   - GSI idempotency_key-index: idempotency_key
//   - GSI provider_ref-index: provider_ref
//
// Amounts:
//   - CapturedAmount is what the provider collected.
//   - RefundedAmount counts settled refunds only.
//   - PendingRefundAmount is reserved by refunds the provider has not settled yet,
//     so concurrent refunds can never exceed the captured amount.
//
// Payments are mutated only through the state machine and never deleted.
type Payment struct {
	ID                  string            `json:"id"`
	OrderID             string            `json:"order_id"`
	Provider            string            `json:"provider"`
	ProviderRef         string            `json:"provider_ref,omitempty"`
	IdempotencyKey      string            `json:"idempotency_key,omitempty"`
	Amount              Money             `json:"amount"`
	CapturedAmount      int64             `json:"captured_amount"`
	RefundedAmount      int64             `json:"refunded_amount"`
	PendingRefundAmount int64             `json:"pending_refund_amount"`
	State               PaymentState      `json:"state"`
	Transitions         []StateTransition `json:"transitions"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
	Version             int64             `json:"version"`
}

// Clone returns a deep copy safe to mutate.
func (p Payment) Clone() Payment {
	out := p
	if p.Transitions != nil {
		out.Transitions = make([]StateTransition, len(p.Transitions))
		copy(out.Transitions, p.Transitions)
	}
	return out
}

// Transition moves the payment to target and records it in the ledger.
func (p *Payment) Transition(target PaymentState, source string, at time.Time) error {
	if !p.State.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, p.State, target)
	}
	if target == PaymentStateFailed && p.PendingRefundAmount > 0 {
		return fmt.Errorf("%w: %s -> %s with %d refund pending", ErrInvalidStateTransition, p.State, target, p.PendingRefundAmount)
	}
	p.Transitions = append(p.Transitions, StateTransition{
		From:   p.State,
		To:     target,
		Source: source,
		At:     at.UTC(),
	})
	p.State = target
	p.UpdatedAt = at.UTC()
	return nil
}

// Capture marks the funds as collected. A zero amount captures the full payment.
func (p *Payment) Capture(amount int64, source string, at time.Time) error {
	if amount <= 0 {
		amount = p.Amount.Amount
	}
	if amount > p.Amount.Amount {
		return fmt.Errorf("%w: capture %d exceeds payment amount %d", ErrValidation, amount, p.Amount.Amount)
	}
	if err := p.Transition(PaymentStateCaptured, source, at); err != nil {
		return err
	}
	p.CapturedAmount = amount
	return nil
}

// RefundableAmount is what can still be refunded, net of settled and reserved refunds.
func (p Payment) RefundableAmount() int64 {
	remaining := p.CapturedAmount - p.RefundedAmount - p.PendingRefundAmount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ReserveRefund holds amount against the captured funds until the provider settles it.
func (p *Payment) ReserveRefund(amount int64) error {
	if !p.State.IsRefundable() {
		return fmt.Errorf("%w: cannot refund payment in state %s", ErrInvalidStateTransition, p.State)
	}
	if amount <= 0 || amount > p.RefundableAmount() {
		return fmt.Errorf("%w: requested %d, refundable %d", ErrInvalidRefundAmount, amount, p.RefundableAmount())
	}
	p.PendingRefundAmount += amount
	return nil
}

// ReleaseRefund returns a reservation after the provider rejected or failed the refund.
func (p *Payment) ReleaseRefund(amount int64) {
	p.PendingRefundAmount -= amount
	if p.PendingRefundAmount < 0 {
		p.PendingRefundAmount = 0
	}
}

// SettleRefund converts a reservation into a settled refund and advances the state.
func (p *Payment) SettleRefund(amount int64, source string, at time.Time) error {
	if amount <= 0 || amount > p.PendingRefundAmount {
		return fmt.Errorf("%w: settle %d, reserved %d", ErrInvalidRefundAmount, amount, p.PendingRefundAmount)
	}
	target := PaymentStatePartiallyRefunded
	if p.RefundedAmount+amount == p.CapturedAmount {
		target = PaymentStateRefunded
	}
	if err := p.Transition(target, source, at); err != nil {
		return err
	}
	p.PendingRefundAmount -= amount
	p.RefundedAmount += amount
	return nil
}

// CheckInvariants validates the amount bookkeeping.
func (p Payment) CheckInvariants() error {
	if p.CapturedAmount > p.Amount.Amount {
		return fmt.Errorf("payment %s: captured %d exceeds amount %d", p.ID, p.CapturedAmount, p.Amount.Amount)
	}
	if p.RefundedAmount+p.PendingRefundAmount > p.CapturedAmount {
		return fmt.Errorf("payment %s: refunded %d + pending %d exceeds captured %d", p.ID, p.RefundedAmount, p.PendingRefundAmount, p.CapturedAmount)
	}
	if p.RefundedAmount < 0 || p.PendingRefundAmount < 0 {
		return fmt.Errorf("payment %s: negative refund bookkeeping", p.ID)
	}
	return nil
}
