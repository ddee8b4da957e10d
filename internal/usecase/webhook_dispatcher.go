package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/infrastructure/cache"
	"payment_gateway/internal/infrastructure/logging"
	"payment_gateway/internal/infrastructure/metrics"
	"payment_gateway/internal/usecase/interfaces"

	"go.uber.org/zap"
)

// IWebhookDispatcher routes inbound notifications to their adapter.
type IWebhookDispatcher interface {
	Dispatch(ctx context.Context, provider string, req interfaces.WebhookRequest) (entities.WebhookEvent, error)
}

type WebhookDispatcherParams struct {
	Providers []interfaces.IPaymentProvider
	Payments  interfaces.IPaymentRepository
	Refunds   interfaces.IRefundRepository
	Events    interfaces.IWebhookEventRepository
	Machine   *PaymentStateMachine
	Retention time.Duration
	Metrics   *metrics.GatewayMetrics
	Log       *zap.Logger
}

// WebhookDispatcher validates, deduplicates and applies provider webhooks.
// Every received event is recorded with its outcome.
type WebhookDispatcher struct {
	providers map[string]interfaces.IPaymentProvider
	payments  interfaces.IPaymentRepository
	events    interfaces.IWebhookEventRepository
	machine   *PaymentStateMachine
	ledger    refundLedger
	seen      *cache.TTLCache[string, struct{}]
	retention time.Duration
	metrics   *metrics.GatewayMetrics
	log       *zap.Logger
	now       func() time.Time
}

var (
	_ IWebhookDispatcher             = (*WebhookDispatcher)(nil)
	_ interfaces.WebhookEventApplier = (*WebhookDispatcher)(nil)
)

func NewWebhookDispatcher(p WebhookDispatcherParams) *WebhookDispatcher {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	retention := p.Retention
	if retention <= 0 {
		retention = 72 * time.Hour
	}
	d := &WebhookDispatcher{
		providers: make(map[string]interfaces.IPaymentProvider, len(p.Providers)),
		payments:  p.Payments,
		events:    p.Events,
		machine:   p.Machine,
		seen:      cache.NewTTLCache[string, struct{}](),
		retention: retention,
		metrics:   p.Metrics,
		log:       log.Named("webhook"),
		now:       func() time.Time { return time.Now().UTC() },
	}
	d.ledger = refundLedger{machine: p.Machine, refunds: p.Refunds, now: func() time.Time { return d.now() }}
	for _, provider := range p.Providers {
		d.providers[normalizeProvider(provider.Name())] = provider
	}
	return d
}

// Dispatch validates the request with the provider's adapter and lets the
// adapter apply it. Duplicates and permanently unusable events are absorbed
// (nil error) so the provider stops redelivering them; transient failures
// are returned so it tries again.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, providerName string, req interfaces.WebhookRequest) (entities.WebhookEvent, error) {
	provider, ok := d.providers[normalizeProvider(providerName)]
	if !ok {
		return entities.WebhookEvent{}, fmt.Errorf("%w: %q", entities.ErrUnknownProvider, providerName)
	}

	if !provider.ValidateWebhook(req) {
		event := entities.WebhookEvent{
			Provider:   provider.Name(),
			Payload:    req.Body,
			Outcome:    entities.WebhookOutcomeRejected,
			Reason:     "invalid signature",
			ReceivedAt: d.now(),
		}
		d.record(ctx, event)
		return event, nil
	}

	event, err := provider.HandleWebhook(ctx, req, d)
	event.Provider = provider.Name()
	if len(event.Payload) == 0 {
		event.Payload = req.Body
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = d.now()
	}

	switch {
	case err == nil:
		event.Outcome = entities.WebhookOutcomeAccepted
	case errors.Is(err, entities.ErrDuplicateEvent):
		event.Outcome = entities.WebhookOutcomeDuplicate
		err = nil
	case isPermanentWebhookError(err):
		event.Outcome = entities.WebhookOutcomeRejected
		event.Reason = err.Error()
		err = nil
	default:
		event.Outcome = entities.WebhookOutcomeRejected
		event.Reason = err.Error()
	}
	d.record(ctx, event)
	return event, err
}

// ApplyWebhookEvent claims event.ID and applies it. A claim is released when
// applying fails transiently so a redelivery can try again.
func (d *WebhookDispatcher) ApplyWebhookEvent(ctx context.Context, event entities.WebhookEvent) error {
	if strings.TrimSpace(event.ID) == "" {
		return fmt.Errorf("%w: webhook event without id", entities.ErrValidation)
	}
	provider := normalizeProvider(event.Provider)
	key := provider + ":" + event.ID

	if stored, err := d.events.Get(ctx, event.Provider, event.ID); err != nil {
		return err
	} else if stored.Outcome == entities.WebhookOutcomeAccepted {
		return entities.ErrDuplicateEvent
	}
	if !d.seen.SetIfAbsent(key, struct{}{}, d.retention) {
		return entities.ErrDuplicateEvent
	}

	err := d.apply(ctx, event)
	if err != nil && !isPermanentWebhookError(err) {
		d.seen.Delete(key)
	}
	return err
}

func (d *WebhookDispatcher) apply(ctx context.Context, event entities.WebhookEvent) error {
	if event.PaymentRef == "" {
		return fmt.Errorf("%w: webhook event %s has no payment reference", entities.ErrValidation, event.ID)
	}
	payment, err := d.payments.GetByProviderRef(ctx, event.Provider, event.PaymentRef)
	if err != nil {
		return err
	}
	if payment.ID == "" {
		return fmt.Errorf("%w: provider ref %s", entities.ErrPaymentNotFound, event.PaymentRef)
	}
	source := "webhook:" + event.ID

	if target, ok := event.Type.TargetState(); ok {
		_, err := d.machine.Apply(ctx, payment.ID, advanceTo(target, event.Amount, source, d.now()))
		return err
	}
	if event.Type.IsRefundEvent() {
		outcome := entities.RefundStateSettled
		if event.Type == entities.WebhookEventRefundFailed {
			outcome = entities.RefundStateFailed
		}
		refund, err := d.findRefund(ctx, payment.ID, event.RefundRef)
		if err != nil {
			return err
		}
		_, _, err = d.ledger.resolve(ctx, payment.ID, refund.ID, outcome, event.RefundRef, source)
		return err
	}
	return fmt.Errorf("%w: %q", entities.ErrUnknownEventType, event.Type)
}

func (d *WebhookDispatcher) findRefund(ctx context.Context, paymentID, ref string) (entities.RefundRecord, error) {
	if ref != "" {
		refund, err := d.ledger.refunds.GetByProviderRef(ctx, paymentID, ref)
		if err != nil {
			return entities.RefundRecord{}, err
		}
		if refund.ID != "" {
			return refund, nil
		}
		// Adapters that echo our refund id instead of their own reference.
		refund, err = d.ledger.refunds.GetByID(ctx, ref)
		if err != nil {
			return entities.RefundRecord{}, err
		}
		if refund.ID != "" && refund.PaymentID == paymentID {
			return refund, nil
		}
	}
	return entities.RefundRecord{}, fmt.Errorf("%w: payment %s ref %q", entities.ErrRefundNotFound, paymentID, ref)
}

func (d *WebhookDispatcher) record(ctx context.Context, event entities.WebhookEvent) {
	d.metrics.WebhookEvent(event.Provider, string(event.Outcome))
	fields := []zap.Field{
		logging.Provider(event.Provider),
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("outcome", string(event.Outcome)),
	}
	if event.Reason != "" {
		fields = append(fields, zap.String("reason", event.Reason))
	}
	if event.Outcome == entities.WebhookOutcomeRejected {
		d.log.Warn("webhook rejected", fields...)
	} else {
		d.log.Info("webhook received", fields...)
	}

	if event.ID == "" {
		return
	}
	// An accepted entry is never overwritten by a later duplicate.
	if event.Outcome == entities.WebhookOutcomeDuplicate {
		return
	}
	if err := d.events.Save(ctx, event); err != nil {
		d.log.Error("failed to store webhook event", append(fields, zap.Error(err))...)
	}
}

// isPermanentWebhookError reports failures a redelivery cannot fix.
func isPermanentWebhookError(err error) bool {
	return errors.Is(err, entities.ErrUnknownEventType) ||
		errors.Is(err, entities.ErrInvalidStateTransition) ||
		errors.Is(err, entities.ErrInvalidRefundAmount) ||
		errors.Is(err, entities.ErrValidation)
}

// PurgeExpired drops dedup claims older than the retention window.
func (d *WebhookDispatcher) PurgeExpired() int {
	return d.seen.Purge()
}
