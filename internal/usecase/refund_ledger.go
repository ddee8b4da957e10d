package usecase

import (
	"context"
	"time"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/usecase/interfaces"
)

// refundLedger resolves refund records together with the payment they belong
// to. Record and payment change under the same payment lock, so a refund
// settled by a webhook and by the synchronous response applies once.
type refundLedger struct {
	machine *PaymentStateMachine
	refunds interfaces.IRefundRepository
	now     func() time.Time
}

// resolve moves a pending refund to outcome. Records that already left
// pending are returned unchanged. A pending outcome only records providerRef.
func (l refundLedger) resolve(ctx context.Context, paymentID, refundID string, outcome entities.RefundState, providerRef, source string) (entities.RefundRecord, entities.Payment, error) {
	var record entities.RefundRecord
	payment, err := l.machine.ApplyThen(ctx, paymentID,
		func(p *entities.Payment) (bool, error) {
			current, err := l.refunds.GetByID(ctx, refundID)
			if err != nil {
				return false, err
			}
			if current.ID == "" || current.PaymentID != paymentID {
				return false, entities.ErrRefundNotFound
			}
			record = current
			if record.State != entities.RefundStatePending {
				return false, nil
			}
			switch outcome {
			case entities.RefundStateSettled:
				return true, p.SettleRefund(record.Amount.Amount, source, l.now())
			case entities.RefundStateFailed:
				p.ReleaseRefund(record.Amount.Amount)
				return true, nil
			}
			return false, nil
		},
		func(ctx context.Context, _ entities.Payment) error {
			if record.State != entities.RefundStatePending {
				return nil
			}
			changed := false
			if providerRef != "" && record.ProviderRef != providerRef {
				record.ProviderRef = providerRef
				changed = true
			}
			if outcome != entities.RefundStatePending {
				record.State = outcome
				changed = true
			}
			if !changed {
				return nil
			}
			record.UpdatedAt = l.now()
			updated, err := l.refunds.Update(ctx, record)
			if err != nil {
				return err
			}
			record = updated
			return nil
		},
	)
	return record, payment, err
}
