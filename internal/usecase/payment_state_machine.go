package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/infrastructure/logging"
	"payment_gateway/internal/infrastructure/metrics"
	"payment_gateway/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const maxVersionConflictRetries = 3

// Mutation edits a loaded payment. It reports whether anything changed; an
// unchanged payment is not written back.
type Mutation func(p *entities.Payment) (changed bool, err error)

// AfterSave runs while the payment lock is still held, after the payment has
// been stored (or left untouched because the mutation changed nothing).
type AfterSave func(ctx context.Context, saved entities.Payment) error

// TransitionHook observes every transition written to the ledger.
type TransitionHook func(ctx context.Context, p entities.Payment, tr entities.StateTransition)

// PaymentStateMachine is the single writer of payment state. Every change
// runs load -> mutate -> store under a per-payment lock; the lock never spans
// a provider call.
type PaymentStateMachine struct {
	repo    interfaces.IPaymentRepository
	locks   *keyedLocks
	hooks   []TransitionHook
	metrics *metrics.GatewayMetrics
	log     *zap.Logger
	now     func() time.Time
}

func NewPaymentStateMachine(repo interfaces.IPaymentRepository, m *metrics.GatewayMetrics, log *zap.Logger) *PaymentStateMachine {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentStateMachine{
		repo:    repo,
		locks:   newKeyedLocks(),
		metrics: m,
		log:     log.Named("payment.state"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// OnTransition registers a hook. Not safe to call once the machine is in use.
func (m *PaymentStateMachine) OnTransition(hook TransitionHook) {
	m.hooks = append(m.hooks, hook)
}

// Open stores a new payment in the pending state.
func (m *PaymentStateMachine) Open(ctx context.Context, p entities.Payment) (entities.Payment, error) {
	now := m.now()
	p.State = entities.PaymentStatePending
	p.Transitions = nil
	p.Version = 0
	p.CreatedAt = now
	p.UpdatedAt = now
	created, err := m.repo.Create(ctx, p)
	if err != nil {
		m.log.Error("payment create failed", logging.PaymentID(p.ID), logging.Provider(p.Provider), zap.Error(err))
		return entities.Payment{}, err
	}
	m.log.Info("payment opened", logging.PaymentID(created.ID), logging.OrderID(created.OrderID), logging.Provider(created.Provider))
	return created, nil
}

// Apply waits for the payment lock (bounded by ctx) and applies mutate.
func (m *PaymentStateMachine) Apply(ctx context.Context, paymentID string, mutate Mutation) (entities.Payment, error) {
	return m.ApplyThen(ctx, paymentID, mutate, nil)
}

// ApplyThen is Apply followed by then, both under the same lock.
func (m *PaymentStateMachine) ApplyThen(ctx context.Context, paymentID string, mutate Mutation, then AfterSave) (entities.Payment, error) {
	unlock, err := m.locks.Lock(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, err
	}
	defer unlock()
	return m.apply(ctx, paymentID, mutate, then)
}

// TryApply applies mutate only if the lock is free right now; otherwise it
// fails with ErrInvalidStateTransition instead of waiting.
func (m *PaymentStateMachine) TryApply(ctx context.Context, paymentID string, mutate Mutation) (entities.Payment, error) {
	unlock, ok := m.locks.TryLock(paymentID)
	if !ok {
		return entities.Payment{}, fmt.Errorf("%w: payment %s is being updated", entities.ErrInvalidStateTransition, paymentID)
	}
	defer unlock()
	return m.apply(ctx, paymentID, mutate, nil)
}

func (m *PaymentStateMachine) apply(ctx context.Context, paymentID string, mutate Mutation, then AfterSave) (entities.Payment, error) {
	for attempt := 1; ; attempt++ {
		saved, err := m.applyOnce(ctx, paymentID, mutate, then)
		if errors.Is(err, entities.ErrVersionConflict) && attempt < maxVersionConflictRetries {
			m.log.Warn("payment version conflict, reloading", logging.PaymentID(paymentID), zap.Int("attempt", attempt))
			continue
		}
		return saved, err
	}
}

func (m *PaymentStateMachine) applyOnce(ctx context.Context, paymentID string, mutate Mutation, then AfterSave) (entities.Payment, error) {
	current, err := m.repo.GetByID(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, err
	}
	if current.ID == "" {
		return entities.Payment{}, entities.ErrPaymentNotFound
	}

	next := current.Clone()
	before := len(next.Transitions)
	changed, err := mutate(&next)
	if err != nil {
		return current, err
	}

	saved := current
	if changed {
		if err := next.CheckInvariants(); err != nil {
			m.log.Error("payment invariant violated", logging.PaymentID(paymentID), zap.Error(err))
			return current, fmt.Errorf("%w: %v", entities.ErrInvalidStateTransition, err)
		}
		next.UpdatedAt = m.now()
		saved, err = m.repo.Update(ctx, next)
		if err != nil {
			return current, err
		}
		for _, tr := range saved.Transitions[before:] {
			m.metrics.Transition(string(tr.From), string(tr.To))
			m.log.Info("payment transition",
				logging.PaymentID(saved.ID),
				logging.Provider(saved.Provider),
				zap.String("from", string(tr.From)),
				zap.String("to", string(tr.To)),
				zap.String("source", tr.Source),
			)
			for _, hook := range m.hooks {
				hook(ctx, saved, tr)
			}
		}
	}

	if then != nil {
		if err := then(ctx, saved); err != nil {
			return saved, err
		}
	}
	return saved, nil
}

// advanceTo drives a payment toward a provider-reported state. Reaching a
// state the payment is already in is a no-op, so a webhook and a synchronous
// response reporting the same outcome apply once.
func advanceTo(target entities.PaymentState, capturedAmount int64, source string, now time.Time) Mutation {
	return func(p *entities.Payment) (bool, error) {
		if target == "" || p.State == target {
			return false, nil
		}
		if target == entities.PaymentStateCaptured {
			return true, p.Capture(capturedAmount, source, now)
		}
		return true, p.Transition(target, source, now)
	}
}

// syncToProvider is advanceTo for reconciliation: stale provider views and
// refund states (owned by refund records) are ignored instead of failing.
func syncToProvider(target entities.PaymentState, capturedAmount int64, source string, now time.Time) Mutation {
	forward := advanceTo(target, capturedAmount, source, now)
	return func(p *entities.Payment) (bool, error) {
		switch {
		case target == "" || p.State == target:
			return false, nil
		case target == entities.PaymentStatePartiallyRefunded || target == entities.PaymentStateRefunded:
			return false, nil
		case target.IsBehind(p.State):
			return false, nil
		}
		return forward(p)
	}
}

// withProviderRef records ref on payments submitted to the provider late.
func withProviderRef(ref string, next Mutation) Mutation {
	return func(p *entities.Payment) (bool, error) {
		changed := false
		if ref != "" && p.ProviderRef == "" {
			p.ProviderRef = ref
			changed = true
		}
		moved, err := next(p)
		return changed || moved, err
	}
}
