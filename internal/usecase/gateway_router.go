package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/infrastructure/config"
	"payment_gateway/internal/infrastructure/logging"
	"payment_gateway/internal/infrastructure/metrics"
	"payment_gateway/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IGatewayRouter is the payment API exposed to the HTTP layer.
type IGatewayRouter interface {
	CreatePayment(ctx context.Context, cmd CreatePaymentCommand) (entities.Payment, error)
	ProcessPayment(ctx context.Context, paymentID string, paymentData json.RawMessage) (entities.Payment, error)
	RefundPayment(ctx context.Context, cmd RefundCommand) (RefundResult, error)
	CancelPayment(ctx context.Context, paymentID string) (entities.Payment, error)
	RetrievePaymentStatus(ctx context.Context, paymentID string) (entities.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (entities.Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID string) ([]entities.Payment, error)
	ListRefunds(ctx context.Context, paymentID string) ([]entities.RefundRecord, error)
	Providers() []string
}

type CreatePaymentCommand struct {
	OrderID        string
	IdempotencyKey string
	PaymentData    json.RawMessage
}

// RefundCommand refunds Amount (minor units) or, when Amount is nil, whatever
// is still refundable.
type RefundCommand struct {
	PaymentID      string
	Amount         *int64
	IdempotencyKey string
}

type RefundResult struct {
	Refund  entities.RefundRecord
	Payment entities.Payment
}

type GatewayRouterParams struct {
	Providers  []interfaces.IPaymentProvider
	Orders     interfaces.IOrderRepository
	Payments   interfaces.IPaymentRepository
	Refunds    interfaces.IRefundRepository
	Machine    *PaymentStateMachine
	Reconciler interfaces.IReconciliationScheduler
	Retry      config.RetryConfig
	Metrics    *metrics.GatewayMetrics
	Log        *zap.Logger
}

// GatewayRouter resolves the adapter serving an order and drives provider
// calls. Retries and timeouts live here so adapters stay single-shot.
type GatewayRouter struct {
	providers   map[string]interfaces.IPaymentProvider
	orders      interfaces.IOrderRepository
	payments    interfaces.IPaymentRepository
	refunds     interfaces.IRefundRepository
	machine     *PaymentStateMachine
	ledger      refundLedger
	reconciler  interfaces.IReconciliationScheduler
	idempotency *keyedLocks
	orderLocks  *keyedLocks
	retry       config.RetryConfig
	metrics     *metrics.GatewayMetrics
	log         *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	newID func() string
}

var _ IGatewayRouter = (*GatewayRouter)(nil)

func NewGatewayRouter(p GatewayRouterParams) *GatewayRouter {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := &GatewayRouter{
		providers:   make(map[string]interfaces.IPaymentProvider, len(p.Providers)),
		orders:      p.Orders,
		payments:    p.Payments,
		refunds:     p.Refunds,
		machine:     p.Machine,
		reconciler:  p.Reconciler,
		idempotency: newKeyedLocks(),
		orderLocks:  newKeyedLocks(),
		retry:       p.Retry.WithDefaults(),
		metrics:     p.Metrics,
		log:         log.Named("gateway.router"),
		sleep:       sleepContext,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	for _, provider := range p.Providers {
		r.providers[normalizeProvider(provider.Name())] = provider
	}
	r.ledger = refundLedger{machine: p.Machine, refunds: p.Refunds, now: r.clock}
	return r
}

func normalizeProvider(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *GatewayRouter) clock() time.Time { return r.now() }

// Providers lists the registered adapter names in sorted order.
func (r *GatewayRouter) Providers() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *GatewayRouter) provider(name string) (interfaces.IPaymentProvider, error) {
	provider, ok := r.providers[normalizeProvider(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", entities.ErrUnknownProvider, name)
	}
	return provider, nil
}

// CreatePayment opens a provider transaction for an order. Requests carrying
// an idempotency key already seen return the stored payment without calling
// the provider again.
func (r *GatewayRouter) CreatePayment(ctx context.Context, cmd CreatePaymentCommand) (entities.Payment, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return entities.Payment{}, ErrInvalidOrderID
	}
	paymentData, err := normalizePaymentData(cmd.PaymentData)
	if err != nil {
		return entities.Payment{}, err
	}
	key := strings.TrimSpace(cmd.IdempotencyKey)
	if key == "" {
		key = r.newID()
	}

	unlock, err := r.idempotency.Lock(ctx, key)
	if err != nil {
		return entities.Payment{}, err
	}
	defer unlock()

	existing, err := r.payments.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return entities.Payment{}, err
	}
	if existing.ID != "" {
		if existing.OrderID != orderID {
			return entities.Payment{}, entities.ErrIdempotencyConflict
		}
		r.log.Info("create payment replayed", logging.PaymentID(existing.ID), zap.String("idempotency_key", key))
		return existing, nil
	}

	order, err := r.orders.GetByID(ctx, orderID)
	if err != nil {
		return entities.Payment{}, err
	}
	if order.ID == "" {
		return entities.Payment{}, entities.ErrOrderNotFound
	}
	if !order.IsOpen() {
		return entities.Payment{}, ErrOrderNotOpen
	}
	provider, err := r.provider(order.Provider)
	if err != nil {
		return entities.Payment{}, err
	}

	unlockOrder, err := r.orderLocks.Lock(ctx, order.ID)
	if err != nil {
		return entities.Payment{}, err
	}
	defer unlockOrder()
	siblings, err := r.payments.ListByOrderID(ctx, order.ID)
	if err != nil {
		return entities.Payment{}, err
	}
	for _, other := range siblings {
		if other.State.IsPreCapture() {
			return entities.Payment{}, fmt.Errorf("%w: payment %s is %s", ErrPaymentInProgress, other.ID, other.State)
		}
	}

	paymentID := r.newID()
	req := interfaces.PaymentRequest{
		PaymentID:      paymentID,
		IdempotencyKey: key,
		Amount:         order.Total,
		PaymentData:    paymentData,
	}

	r.log.Info("create payment",
		logging.OrderID(orderID), logging.PaymentID(paymentID), logging.Provider(provider.Name()),
		zap.Int64("amount", order.Total.Amount), zap.String("currency", order.Total.Currency))

	var result interfaces.ProviderPayment
	err = r.callProvider(ctx, provider.Name(), "create", paymentID, func(ctx context.Context) error {
		var callErr error
		result, callErr = provider.CreatePayment(ctx, order, req)
		return callErr
	})
	if err != nil {
		return entities.Payment{}, err
	}

	p, err := r.machine.Open(ctx, entities.Payment{
		ID:             paymentID,
		OrderID:        order.ID,
		Provider:       provider.Name(),
		ProviderRef:    result.ProviderRef,
		IdempotencyKey: key,
		Amount:         order.Total,
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if result.State != "" && result.State != entities.PaymentStatePending {
		return r.machine.Apply(ctx, p.ID, advanceTo(result.State, result.CapturedAmount, "provider:create", r.now()))
	}
	return p, nil
}

// ProcessPayment submits payment details and drives the payment toward
// captured. A provider rejection fails the payment; an exhausted retry budget
// leaves it untouched and schedules reconciliation.
func (r *GatewayRouter) ProcessPayment(ctx context.Context, paymentID string, paymentData json.RawMessage) (entities.Payment, error) {
	p, err := r.GetPayment(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, err
	}
	if !p.State.IsPreCapture() {
		return p, fmt.Errorf("%w: cannot process payment in state %s", entities.ErrInvalidStateTransition, p.State)
	}
	data, err := normalizePaymentData(paymentData)
	if err != nil {
		return entities.Payment{}, err
	}
	provider, err := r.provider(p.Provider)
	if err != nil {
		return entities.Payment{}, err
	}

	var result interfaces.ProviderPayment
	err = r.callProvider(ctx, provider.Name(), "process", p.ID, func(ctx context.Context) error {
		var callErr error
		result, callErr = provider.ProcessPayment(ctx, p, data)
		return callErr
	})
	if err != nil {
		if entities.IsRejection(err) {
			failed, failErr := r.machine.Apply(ctx, p.ID, func(p *entities.Payment) (bool, error) {
				if !p.State.IsPreCapture() {
					return false, nil
				}
				return true, p.Transition(entities.PaymentStateFailed, "provider:process", r.now())
			})
			if failErr != nil {
				r.log.Error("failed to record rejected payment", logging.PaymentID(p.ID), zap.Error(failErr))
				return p, err
			}
			return failed, err
		}
		r.scheduleReconcile(ctx, p.ID, "process: "+err.Error())
		return p, err
	}

	return r.machine.Apply(ctx, p.ID, withProviderRef(result.ProviderRef, advanceTo(result.State, result.CapturedAmount, "provider:process", r.now())))
}

// RefundPayment reserves the amount, asks the provider to refund it and
// settles or releases the reservation based on the answer. The payment state
// only moves when the refund settles. Requests sharing an idempotency key are
// serialized and answered with the first refund.
func (r *GatewayRouter) RefundPayment(ctx context.Context, cmd RefundCommand) (RefundResult, error) {
	paymentID := strings.TrimSpace(cmd.PaymentID)
	if paymentID == "" {
		return RefundResult{}, ErrInvalidPaymentID
	}
	key := strings.TrimSpace(cmd.IdempotencyKey)
	if key != "" {
		unlock, err := r.idempotency.Lock(ctx, paymentID+":"+key)
		if err != nil {
			return RefundResult{}, err
		}
		defer unlock()

		existing, err := r.refunds.GetByIdempotencyKey(ctx, paymentID, key)
		if err != nil {
			return RefundResult{}, err
		}
		if existing.ID != "" {
			return r.replayRefund(ctx, cmd, existing)
		}
	}

	p, err := r.GetPayment(ctx, paymentID)
	if err != nil {
		return RefundResult{}, err
	}
	provider, err := r.provider(p.Provider)
	if err != nil {
		return RefundResult{}, err
	}

	amount := p.RefundableAmount()
	if cmd.Amount != nil {
		amount = *cmd.Amount
	}
	if amount <= 0 && p.State.IsRefundable() {
		return RefundResult{Payment: p}, fmt.Errorf("%w: requested %d, refundable %d", entities.ErrInvalidRefundAmount, amount, p.RefundableAmount())
	}

	now := r.now()
	record := entities.RefundRecord{
		ID:             r.newID(),
		PaymentID:      p.ID,
		IdempotencyKey: key,
		Amount:         p.Amount.WithAmount(amount),
		State:          entities.RefundStatePending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	reservationStored := false
	reserved, err := r.machine.ApplyThen(ctx, p.ID,
		func(p *entities.Payment) (bool, error) {
			return true, p.ReserveRefund(amount)
		},
		func(ctx context.Context, _ entities.Payment) error {
			reservationStored = true
			created, err := r.refunds.Create(ctx, record)
			if err != nil {
				return err
			}
			record = created
			return nil
		},
	)
	if err != nil {
		if reservationStored {
			// The reservation was stored but its record was not.
			if _, releaseErr := r.machine.Apply(ctx, p.ID, func(p *entities.Payment) (bool, error) {
				p.ReleaseRefund(amount)
				return true, nil
			}); releaseErr != nil {
				r.log.Error("failed to release refund reservation", logging.PaymentID(p.ID), zap.Error(releaseErr))
			}
		}
		if key != "" {
			// Another instance may have stored the same key first.
			if existing, lookupErr := r.refunds.GetByIdempotencyKey(ctx, p.ID, key); lookupErr == nil && existing.ID != "" {
				return r.replayRefund(ctx, cmd, existing)
			}
		}
		return RefundResult{Payment: reserved}, err
	}

	r.log.Info("refund requested",
		logging.PaymentID(p.ID), logging.Provider(provider.Name()),
		zap.String("refund_id", record.ID), zap.Int64("amount", amount))

	var result interfaces.ProviderRefund
	err = r.callProvider(ctx, provider.Name(), "refund", p.ID, func(ctx context.Context) error {
		var callErr error
		result, callErr = provider.RefundPayment(ctx, reserved, interfaces.RefundRequest{
			RefundID:       record.ID,
			IdempotencyKey: refundIdempotencyKey(record),
			Amount:         record.Amount,
		})
		return callErr
	})
	if err != nil {
		if entities.IsRejection(err) {
			failedRecord, current, resolveErr := r.ledger.resolve(ctx, p.ID, record.ID, entities.RefundStateFailed, "", "provider:refund")
			if resolveErr != nil {
				r.log.Error("failed to release rejected refund", logging.PaymentID(p.ID), zap.String("refund_id", record.ID), zap.Error(resolveErr))
				return RefundResult{Refund: record, Payment: reserved}, err
			}
			return RefundResult{Refund: failedRecord, Payment: current}, err
		}
		r.scheduleReconcile(ctx, p.ID, "refund: "+err.Error())
		return RefundResult{Refund: record, Payment: reserved}, err
	}

	outcome := result.State
	if outcome == "" {
		outcome = entities.RefundStatePending
	}
	settledRecord, current, err := r.ledger.resolve(ctx, p.ID, record.ID, outcome, result.ProviderRef, "provider:refund")
	if err != nil {
		return RefundResult{Refund: record, Payment: reserved}, err
	}
	if outcome == entities.RefundStateFailed {
		return RefundResult{Refund: settledRecord, Payment: current},
			entities.NewProviderError(provider.Name(), "refund", entities.ErrProviderRejected, errors.New("refund failed"))
	}
	return RefundResult{Refund: settledRecord, Payment: current}, nil
}

func (r *GatewayRouter) replayRefund(ctx context.Context, cmd RefundCommand, existing entities.RefundRecord) (RefundResult, error) {
	if cmd.Amount != nil && *cmd.Amount != existing.Amount.Amount {
		return RefundResult{}, entities.ErrIdempotencyConflict
	}
	p, err := r.GetPayment(ctx, existing.PaymentID)
	if err != nil {
		return RefundResult{}, err
	}
	r.log.Info("refund replayed", logging.PaymentID(p.ID), zap.String("refund_id", existing.ID), zap.String("idempotency_key", existing.IdempotencyKey))
	return RefundResult{Refund: existing, Payment: p}, nil
}

// CancelPayment voids a pre-capture payment. It does not wait on a payment
// that is being updated concurrently.
func (r *GatewayRouter) CancelPayment(ctx context.Context, paymentID string) (entities.Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return entities.Payment{}, ErrInvalidPaymentID
	}

	p, err := r.machine.TryApply(ctx, paymentID, func(p *entities.Payment) (bool, error) {
		if !p.State.IsPreCapture() {
			return false, fmt.Errorf("%w: cannot cancel payment in state %s", entities.ErrInvalidStateTransition, p.State)
		}
		return false, nil
	})
	if err != nil {
		return p, err
	}
	provider, err := r.provider(p.Provider)
	if err != nil {
		return entities.Payment{}, err
	}

	err = r.callProvider(ctx, provider.Name(), "cancel", p.ID, func(ctx context.Context) error {
		_, callErr := provider.CancelPayment(ctx, p)
		return callErr
	})
	if err != nil {
		if !entities.IsRejection(err) {
			r.scheduleReconcile(ctx, p.ID, "cancel: "+err.Error())
		}
		return p, err
	}

	cancelled, err := r.machine.Apply(ctx, p.ID, advanceTo(entities.PaymentStateCancelled, 0, "provider:cancel", r.now()))
	if err != nil {
		// The provider voided it but the payment moved on meanwhile.
		r.scheduleReconcile(ctx, p.ID, "cancel: "+err.Error())
		return cancelled, err
	}
	return cancelled, nil
}

// RetrievePaymentStatus asks the provider for its view of the payment and
// moves the local state forward to match it.
func (r *GatewayRouter) RetrievePaymentStatus(ctx context.Context, paymentID string) (entities.Payment, error) {
	p, err := r.GetPayment(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, err
	}
	provider, err := r.provider(p.Provider)
	if err != nil {
		return entities.Payment{}, err
	}

	var result interfaces.ProviderPayment
	err = r.callProvider(ctx, provider.Name(), "status", p.ID, func(ctx context.Context) error {
		var callErr error
		result, callErr = provider.RetrievePaymentStatus(ctx, p)
		return callErr
	})
	if err != nil {
		return p, err
	}
	return r.machine.Apply(ctx, p.ID, syncToProvider(result.State, result.CapturedAmount, "reconcile", r.now()))
}

func (r *GatewayRouter) GetPayment(ctx context.Context, paymentID string) (entities.Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return entities.Payment{}, ErrInvalidPaymentID
	}
	p, err := r.payments.GetByID(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, err
	}
	if p.ID == "" {
		return entities.Payment{}, entities.ErrPaymentNotFound
	}
	return p, nil
}

func (r *GatewayRouter) ListPaymentsByOrder(ctx context.Context, orderID string) ([]entities.Payment, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	return r.payments.ListByOrderID(ctx, orderID)
}

func (r *GatewayRouter) ListRefunds(ctx context.Context, paymentID string) ([]entities.RefundRecord, error) {
	p, err := r.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return r.refunds.ListByPaymentID(ctx, p.ID)
}

func (r *GatewayRouter) scheduleReconcile(ctx context.Context, paymentID, reason string) {
	if r.reconciler == nil {
		r.log.Warn("no reconciler configured; payment left for manual follow-up", logging.PaymentID(paymentID), zap.String("reason", reason))
		return
	}
	r.reconciler.Schedule(ctx, paymentID, reason)
}

func refundIdempotencyKey(record entities.RefundRecord) string {
	if record.IdempotencyKey != "" {
		return record.PaymentID + ":" + record.IdempotencyKey
	}
	return record.ID
}

func normalizePaymentData(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "null" {
		return json.RawMessage(`{}`), nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, ErrInvalidPaymentData
	}
	return raw, nil
}
