package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/infrastructure/logging"
	"payment_gateway/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const SandboxName = "sandbox"

const (
	SandboxSignatureHeader = "X-Sandbox-Signature"
	sandboxSignatureMaxAge = 5 * time.Minute
)

// Sandbox card tokens. Anything else is approved and captured.
const (
	SandboxTokenApprove      = "tok_approve"
	SandboxTokenAuthorize    = "tok_authorize"
	SandboxTokenPending      = "tok_pending"
	SandboxTokenDecline      = "tok_decline"
	SandboxTokenInsufficient = "tok_insufficient_funds"
)

// Sandbox operations accepted by FailNext.
const (
	SandboxOpCreate  = "create"
	SandboxOpProcess = "process"
	SandboxOpRefund  = "refund"
	SandboxOpStatus  = "status"
	SandboxOpCancel  = "cancel"
)

type sandboxTransaction struct {
	ref      string
	state    entities.PaymentState
	amount   int64
	captured int64
	refunded int64
	refunds  map[string]int64
}

// SandboxEvent is the webhook body the sandbox emits.
type SandboxEvent struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	PaymentRef string `json:"payment_ref"`
	RefundRef  string `json:"refund_ref,omitempty"`
	Amount     int64  `json:"amount,omitempty"`
}

// SandboxProvider is a deterministic in-memory payment network. Outcomes are
// driven by the "token" field of the payment data; failures and latency can
// be injected per operation.
type SandboxProvider struct {
	secret string
	log    *zap.Logger
	now    func() time.Time

	mu           sync.Mutex
	transactions map[string]*sandboxTransaction
	byKey        map[string]string
	refundsByKey map[string]string
	failures     map[string]int
	delay        time.Duration
	asyncRefunds bool
}

var _ interfaces.IPaymentProvider = (*SandboxProvider)(nil)

func NewSandboxProvider(secret string, log *zap.Logger) *SandboxProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &SandboxProvider{
		secret:       secret,
		log:          log.Named("provider.sandbox"),
		now:          func() time.Time { return time.Now().UTC() },
		transactions: make(map[string]*sandboxTransaction),
		byKey:        make(map[string]string),
		refundsByKey: make(map[string]string),
		failures:     make(map[string]int),
	}
}

func (s *SandboxProvider) Name() string { return SandboxName }

// FailNext makes the next n calls of op fail as unavailable.
func (s *SandboxProvider) FailNext(op string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = n
}

// SetDelay delays every call; calls whose context expires first fail as unavailable.
func (s *SandboxProvider) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SetAsyncRefunds leaves refunds pending until a refund webhook settles them.
func (s *SandboxProvider) SetAsyncRefunds(async bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asyncRefunds = async
}

// TransactionCount reports how many payment transactions the sandbox holds.
func (s *SandboxProvider) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

func (s *SandboxProvider) CreatePayment(ctx context.Context, order entities.Order, req interfaces.PaymentRequest) (interfaces.ProviderPayment, error) {
	if err := s.enter(ctx, SandboxOpCreate); err != nil {
		return interfaces.ProviderPayment{}, err
	}
	token, err := sandboxToken(req.PaymentData)
	if err != nil {
		return interfaces.ProviderPayment{}, entities.NewProviderError(SandboxName, SandboxOpCreate, entities.ErrProviderRejected, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, ok := s.byKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return s.view(s.transactions[ref]), nil
	}
	tx := &sandboxTransaction{
		ref:     "sbx_" + uuid.NewString(),
		state:   entities.PaymentStatePending,
		amount:  req.Amount.Amount,
		refunds: make(map[string]int64),
	}
	if token != "" {
		if err := applySandboxToken(tx, token, SandboxOpCreate); err != nil {
			return interfaces.ProviderPayment{}, err
		}
	}
	s.transactions[tx.ref] = tx
	if req.IdempotencyKey != "" {
		s.byKey[req.IdempotencyKey] = tx.ref
	}
	s.log.Debug("sandbox payment created", logging.PaymentID(req.PaymentID), logging.OrderID(order.ID), zap.String("ref", tx.ref), zap.String("state", string(tx.state)))
	return s.view(tx), nil
}

func (s *SandboxProvider) ProcessPayment(ctx context.Context, payment entities.Payment, paymentData json.RawMessage) (interfaces.ProviderPayment, error) {
	if err := s.enter(ctx, SandboxOpProcess); err != nil {
		return interfaces.ProviderPayment{}, err
	}
	token, err := sandboxToken(paymentData)
	if err != nil {
		return interfaces.ProviderPayment{}, entities.NewProviderError(SandboxName, SandboxOpProcess, entities.ErrProviderRejected, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.lookup(payment.ProviderRef, SandboxOpProcess)
	if err != nil {
		return interfaces.ProviderPayment{}, err
	}
	switch tx.state {
	case entities.PaymentStateCaptured:
		return s.view(tx), nil
	case entities.PaymentStateAuthorized:
		tx.state = entities.PaymentStateCaptured
		tx.captured = tx.amount
		return s.view(tx), nil
	case entities.PaymentStatePending:
		if token == "" {
			token = SandboxTokenApprove
		}
		if err := applySandboxToken(tx, token, SandboxOpProcess); err != nil {
			return interfaces.ProviderPayment{}, err
		}
		return s.view(tx), nil
	}
	return interfaces.ProviderPayment{}, entities.NewProviderError(SandboxName, SandboxOpProcess, entities.ErrProviderRejected, fmt.Errorf("transaction is %s", tx.state))
}

func (s *SandboxProvider) RefundPayment(ctx context.Context, payment entities.Payment, req interfaces.RefundRequest) (interfaces.ProviderRefund, error) {
	if err := s.enter(ctx, SandboxOpRefund); err != nil {
		return interfaces.ProviderRefund{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.lookup(payment.ProviderRef, SandboxOpRefund)
	if err != nil {
		return interfaces.ProviderRefund{}, err
	}
	if ref, ok := s.refundsByKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return interfaces.ProviderRefund{ProviderRef: ref, State: s.refundState()}, nil
	}
	if tx.captured == 0 || req.Amount.Amount <= 0 || tx.refunded+req.Amount.Amount > tx.captured {
		return interfaces.ProviderRefund{}, entities.NewProviderError(SandboxName, SandboxOpRefund, entities.ErrProviderRejected,
			fmt.Errorf("refund %d exceeds available %d", req.Amount.Amount, tx.captured-tx.refunded))
	}
	ref := "sbx_rf_" + uuid.NewString()
	tx.refunded += req.Amount.Amount
	tx.refunds[ref] = req.Amount.Amount
	if req.IdempotencyKey != "" {
		s.refundsByKey[req.IdempotencyKey] = ref
	}
	if tx.refunded == tx.captured {
		tx.state = entities.PaymentStateRefunded
	} else {
		tx.state = entities.PaymentStatePartiallyRefunded
	}
	return interfaces.ProviderRefund{ProviderRef: ref, State: s.refundState()}, nil
}

func (s *SandboxProvider) refundState() entities.RefundState {
	if s.asyncRefunds {
		return entities.RefundStatePending
	}
	return entities.RefundStateSettled
}

// ValidateWebhook checks "t={unix},v1={hex hmac(secret, t + "." + body)}"
// and rejects signatures older than five minutes.
func (s *SandboxProvider) ValidateWebhook(req interfaces.WebhookRequest) bool {
	parts := parseSignatureHeader(req.Headers.Get(SandboxSignatureHeader))
	ts, v1 := parts["t"], parts["v1"]
	if ts == "" || v1 == "" {
		return false
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	age := s.now().Sub(time.Unix(unix, 0))
	if age > sandboxSignatureMaxAge || age < -sandboxSignatureMaxAge {
		return false
	}
	return validHMAC(s.secret, sandboxSignedPayload(ts, req.Body), v1)
}

func (s *SandboxProvider) HandleWebhook(ctx context.Context, req interfaces.WebhookRequest, applier interfaces.WebhookEventApplier) (entities.WebhookEvent, error) {
	var body SandboxEvent
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return entities.WebhookEvent{Provider: SandboxName}, fmt.Errorf("%w: %v", entities.ErrValidation, err)
	}
	event := entities.WebhookEvent{
		ID:         body.ID,
		Provider:   SandboxName,
		Type:       entities.WebhookEventType(body.Type),
		PaymentRef: body.PaymentRef,
		RefundRef:  body.RefundRef,
		Amount:     body.Amount,
		Payload:    req.Body,
		Signature:  req.Headers.Get(SandboxSignatureHeader),
	}
	if _, ok := event.Type.TargetState(); !ok && !event.Type.IsRefundEvent() {
		return event, fmt.Errorf("%w: %q", entities.ErrUnknownEventType, body.Type)
	}
	return event, applier.ApplyWebhookEvent(ctx, event)
}

func (s *SandboxProvider) RetrievePaymentStatus(ctx context.Context, payment entities.Payment) (interfaces.ProviderPayment, error) {
	if err := s.enter(ctx, SandboxOpStatus); err != nil {
		return interfaces.ProviderPayment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.lookup(payment.ProviderRef, SandboxOpStatus)
	if err != nil {
		return interfaces.ProviderPayment{}, err
	}
	return s.view(tx), nil
}

func (s *SandboxProvider) CancelPayment(ctx context.Context, payment entities.Payment) (interfaces.ProviderPayment, error) {
	if err := s.enter(ctx, SandboxOpCancel); err != nil {
		return interfaces.ProviderPayment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.lookup(payment.ProviderRef, SandboxOpCancel)
	if err != nil {
		return interfaces.ProviderPayment{}, err
	}
	switch tx.state {
	case entities.PaymentStateCancelled:
		return s.view(tx), nil
	case entities.PaymentStatePending, entities.PaymentStateAuthorized:
		tx.state = entities.PaymentStateCancelled
		return s.view(tx), nil
	}
	return interfaces.ProviderPayment{}, entities.NewProviderError(SandboxName, SandboxOpCancel, entities.ErrProviderRejected, fmt.Errorf("transaction is %s", tx.state))
}

// SignedWebhook builds a webhook request for event, signed with the sandbox secret.
func (s *SandboxProvider) SignedWebhook(event SandboxEvent) (interfaces.WebhookRequest, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return interfaces.WebhookRequest{}, err
	}
	ts := strconv.FormatInt(s.now().Unix(), 10)
	req := interfaces.WebhookRequest{Headers: http.Header{}, Body: body}
	req.Headers.Set(SandboxSignatureHeader, "t="+ts+",v1="+signHMAC(s.secret, sandboxSignedPayload(ts, body)))
	return req, nil
}

// enter applies injected latency and failures before an operation runs.
func (s *SandboxProvider) enter(ctx context.Context, op string) error {
	s.mu.Lock()
	delay := s.delay
	fail := s.failures[op] > 0
	if fail {
		s.failures[op]--
	}
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return entities.NewProviderError(SandboxName, op, entities.ErrProviderUnavailable, ctx.Err())
		case <-timer.C:
		}
	}
	if fail {
		return entities.NewProviderError(SandboxName, op, entities.ErrProviderUnavailable, errors.New("injected failure"))
	}
	return nil
}

func (s *SandboxProvider) lookup(ref, op string) (*sandboxTransaction, error) {
	tx, ok := s.transactions[ref]
	if !ok {
		return nil, entities.NewProviderError(SandboxName, op, entities.ErrProviderRejected, fmt.Errorf("unknown transaction %q", ref))
	}
	return tx, nil
}

func (s *SandboxProvider) view(tx *sandboxTransaction) interfaces.ProviderPayment {
	return interfaces.ProviderPayment{
		ProviderRef:    tx.ref,
		State:          tx.state,
		CapturedAmount: tx.captured,
	}
}

func applySandboxToken(tx *sandboxTransaction, token, op string) error {
	switch token {
	case SandboxTokenDecline:
		tx.state = entities.PaymentStateFailed
		return entities.NewProviderError(SandboxName, op, entities.ErrProviderRejected, errors.New("card declined"))
	case SandboxTokenInsufficient:
		tx.state = entities.PaymentStateFailed
		return entities.NewProviderError(SandboxName, op, entities.ErrInsufficientFunds, errors.New("insufficient funds"))
	case SandboxTokenPending:
		tx.state = entities.PaymentStatePending
	case SandboxTokenAuthorize:
		tx.state = entities.PaymentStateAuthorized
	default:
		tx.state = entities.PaymentStateCaptured
		tx.captured = tx.amount
	}
	return nil
}

func sandboxToken(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", err
	}
	return strings.TrimSpace(data.Token), nil
}

func sandboxSignedPayload(ts string, body []byte) []byte {
	out := make([]byte, 0, len(ts)+1+len(body))
	out = append(out, ts...)
	out = append(out, '.')
	return append(out, body...)
}
