package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/infrastructure/config"
	"payment_gateway/internal/infrastructure/logging"
	"payment_gateway/internal/infrastructure/metrics"
	"payment_gateway/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const maxReconcileDelay = 10 * time.Minute

// StatusRetriever is the part of the router the worker needs.
type StatusRetriever interface {
	RetrievePaymentStatus(ctx context.Context, paymentID string) (entities.Payment, error)
}

type ReconciliationWorkerParams struct {
	Config  config.ReconcileConfig
	Metrics *metrics.GatewayMetrics
	Log     *zap.Logger
	// Sweep runs once per poll, e.g. to purge expired dedup entries.
	Sweep func() int
}

type reconcileItem struct {
	paymentID string
	reason    string
	attempts  int
	dueAt     time.Time
}

// ReconciliationWorker polls the provider for payments whose outcome is
// unknown after a timed out call. Failed polls back off exponentially until
// MaxAttempts is reached.
type ReconciliationWorker struct {
	cfg     config.ReconcileConfig
	metrics *metrics.GatewayMetrics
	log     *zap.Logger
	sweep   func() int
	now     func() time.Time

	mu    sync.Mutex
	queue map[string]*reconcileItem
}

var _ interfaces.IReconciliationScheduler = (*ReconciliationWorker)(nil)

func NewReconciliationWorker(p ReconciliationWorkerParams) *ReconciliationWorker {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &ReconciliationWorker{
		cfg:     p.Config.WithDefaults(),
		metrics: p.Metrics,
		log:     log.Named("reconcile"),
		sweep:   p.Sweep,
		now:     func() time.Time { return time.Now().UTC() },
		queue:   make(map[string]*reconcileItem),
	}
}

// Schedule queues paymentID. Scheduling a payment already queued keeps its
// attempt count and only refreshes the reason.
func (w *ReconciliationWorker) Schedule(_ context.Context, paymentID, reason string) {
	if paymentID == "" {
		return
	}
	w.mu.Lock()
	item, ok := w.queue[paymentID]
	if ok {
		item.reason = reason
	} else {
		w.queue[paymentID] = &reconcileItem{
			paymentID: paymentID,
			reason:    reason,
			dueAt:     w.now().Add(w.cfg.BaseDelay),
		}
	}
	size := len(w.queue)
	w.mu.Unlock()

	w.metrics.ReconcileBacklog(size)
	w.log.Info("reconciliation scheduled", logging.PaymentID(paymentID), zap.String("reason", reason))
}

func (w *ReconciliationWorker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func (w *ReconciliationWorker) RunForever(ctx context.Context, retriever StatusRetriever) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if n := w.RunOnce(ctx, retriever); n > 0 {
			w.log.Debug("reconciliation pass", zap.Int("processed", n))
		}
		if w.sweep != nil {
			if purged := w.sweep(); purged > 0 {
				w.log.Debug("sweep removed expired entries", zap.Int("purged", purged))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce polls every due payment once and returns how many were polled.
func (w *ReconciliationWorker) RunOnce(ctx context.Context, retriever StatusRetriever) int {
	due := w.due()
	for _, item := range due {
		if ctx.Err() != nil {
			break
		}
		p, err := retriever.RetrievePaymentStatus(ctx, item.paymentID)
		w.finish(item, p, err)
	}
	w.metrics.ReconcileBacklog(w.Pending())
	return len(due)
}

func (w *ReconciliationWorker) due() []reconcileItem {
	now := w.now()
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]reconcileItem, 0, len(w.queue))
	for _, item := range w.queue {
		if !item.dueAt.After(now) {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].dueAt.Before(out[j].dueAt) })
	return out
}

func (w *ReconciliationWorker) finish(item reconcileItem, p entities.Payment, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	current, ok := w.queue[item.paymentID]
	if !ok {
		return
	}
	if err == nil || errors.Is(err, entities.ErrPaymentNotFound) || errors.Is(err, entities.ErrInvalidStateTransition) {
		delete(w.queue, item.paymentID)
		if err != nil {
			w.log.Warn("reconciliation dropped", logging.PaymentID(item.paymentID), zap.Error(err))
			return
		}
		w.log.Info("reconciliation resolved", logging.PaymentID(item.paymentID), zap.String("state", string(p.State)))
		return
	}

	current.attempts++
	if current.attempts >= w.cfg.MaxAttempts {
		delete(w.queue, item.paymentID)
		w.log.Error("reconciliation abandoned",
			logging.PaymentID(item.paymentID),
			zap.Int("attempts", current.attempts),
			zap.String("reason", current.reason),
			zap.Error(err))
		return
	}
	delay := w.cfg.BaseDelay << current.attempts
	if delay <= 0 || delay > maxReconcileDelay {
		delay = maxReconcileDelay
	}
	current.dueAt = w.now().Add(delay)
	w.log.Warn("reconciliation failed, will retry",
		logging.PaymentID(item.paymentID),
		zap.Int("attempts", current.attempts),
		zap.Duration("delay", delay),
		zap.Error(err))
}
