package memory

import (
	"context"
	"sync"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/usecase/interfaces"
)

// WebhookEventRepository keeps the last record per (provider, event id). An
// accepted record is never replaced.
type WebhookEventRepository struct {
	mu     sync.RWMutex
	events map[string]entities.WebhookEvent
}

var _ interfaces.IWebhookEventRepository = (*WebhookEventRepository)(nil)

func NewWebhookEventRepository() *WebhookEventRepository {
	return &WebhookEventRepository{events: make(map[string]entities.WebhookEvent)}
}

func (r *WebhookEventRepository) Save(_ context.Context, e entities.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := e.Provider + "#" + e.ID
	if stored, ok := r.events[key]; ok && stored.Outcome == entities.WebhookOutcomeAccepted {
		return nil
	}
	r.events[key] = e
	return nil
}

func (r *WebhookEventRepository) Get(_ context.Context, provider, id string) (entities.WebhookEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.events[provider+"#"+id], nil
}

// Len is the number of stored events.
func (r *WebhookEventRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}
