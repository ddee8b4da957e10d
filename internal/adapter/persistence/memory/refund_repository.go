package memory

import (
	"context"
	"sort"
	"sync"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/usecase/interfaces"
)

type RefundRepository struct {
	mu      sync.RWMutex
	refunds map[string]entities.RefundRecord
}

var _ interfaces.IRefundRepository = (*RefundRepository)(nil)

func NewRefundRepository() *RefundRepository {
	return &RefundRepository{refunds: make(map[string]entities.RefundRecord)}
}

func (r *RefundRepository) Create(_ context.Context, rec entities.RefundRecord) (entities.RefundRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.refunds[rec.ID]; exists {
		return entities.RefundRecord{}, ErrAlreadyExists
	}
	if rec.IdempotencyKey != "" {
		for _, other := range r.refunds {
			if other.PaymentID == rec.PaymentID && other.IdempotencyKey == rec.IdempotencyKey {
				return entities.RefundRecord{}, ErrAlreadyExists
			}
		}
	}
	r.refunds[rec.ID] = rec
	return rec, nil
}

func (r *RefundRepository) Update(_ context.Context, rec entities.RefundRecord) (entities.RefundRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.refunds[rec.ID]; !exists {
		return entities.RefundRecord{}, entities.ErrRefundNotFound
	}
	r.refunds[rec.ID] = rec
	return rec, nil
}

func (r *RefundRepository) GetByID(_ context.Context, id string) (entities.RefundRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refunds[id], nil
}

func (r *RefundRepository) GetByIdempotencyKey(_ context.Context, paymentID, key string) (entities.RefundRecord, error) {
	return r.find(func(rec entities.RefundRecord) bool {
		return rec.PaymentID == paymentID && key != "" && rec.IdempotencyKey == key
	}), nil
}

func (r *RefundRepository) GetByProviderRef(_ context.Context, paymentID, ref string) (entities.RefundRecord, error) {
	return r.find(func(rec entities.RefundRecord) bool {
		return rec.PaymentID == paymentID && ref != "" && rec.ProviderRef == ref
	}), nil
}

func (r *RefundRepository) ListByPaymentID(_ context.Context, paymentID string) ([]entities.RefundRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.RefundRecord, 0)
	for _, rec := range r.refunds {
		if rec.PaymentID == paymentID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *RefundRepository) find(match func(entities.RefundRecord) bool) entities.RefundRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.refunds {
		if match(rec) {
			return rec
		}
	}
	return entities.RefundRecord{}
}
