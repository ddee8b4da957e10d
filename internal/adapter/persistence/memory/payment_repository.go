package memory

import (
	"context"
	"sort"
	"sync"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/usecase/interfaces"
)

type PaymentRepository struct {
	mu              sync.RWMutex
	payments        map[string]entities.Payment
	idempotencyKeys map[string]string
	providerRefs    map[string]string
}

var _ interfaces.IPaymentRepository = (*PaymentRepository)(nil)

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments:        make(map[string]entities.Payment),
		idempotencyKeys: make(map[string]string),
		providerRefs:    make(map[string]string),
	}
}

func (r *PaymentRepository) Create(_ context.Context, p entities.Payment) (entities.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[p.ID]; exists {
		return entities.Payment{}, ErrAlreadyExists
	}
	if p.IdempotencyKey != "" {
		if _, exists := r.idempotencyKeys[p.IdempotencyKey]; exists {
			return entities.Payment{}, ErrAlreadyExists
		}
		r.idempotencyKeys[p.IdempotencyKey] = p.ID
	}
	r.index(p)
	r.payments[p.ID] = p.Clone()
	return p, nil
}

func (r *PaymentRepository) GetByID(_ context.Context, id string) (entities.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.payments[id].Clone(), nil
}

func (r *PaymentRepository) GetByIdempotencyKey(_ context.Context, key string) (entities.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idempotencyKeys[key]
	if !ok {
		return entities.Payment{}, nil
	}
	return r.payments[id].Clone(), nil
}

func (r *PaymentRepository) GetByProviderRef(_ context.Context, provider, ref string) (entities.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.providerRefs[providerRefKey(provider, ref)]
	if !ok {
		return entities.Payment{}, nil
	}
	return r.payments[id].Clone(), nil
}

func (r *PaymentRepository) ListByOrderID(_ context.Context, orderID string) ([]entities.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.Payment, 0)
	for _, p := range r.payments {
		if p.OrderID == orderID {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *PaymentRepository) Update(_ context.Context, p entities.Payment) (entities.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.payments[p.ID]
	if !ok {
		return entities.Payment{}, entities.ErrPaymentNotFound
	}
	if stored.Version != p.Version {
		return entities.Payment{}, entities.ErrVersionConflict
	}
	p.Version++
	r.index(p)
	r.payments[p.ID] = p.Clone()
	return p, nil
}

func (r *PaymentRepository) index(p entities.Payment) {
	if p.ProviderRef != "" {
		r.providerRefs[providerRefKey(p.Provider, p.ProviderRef)] = p.ID
	}
}

func providerRefKey(provider, ref string) string {
	return provider + "#" + ref
}
