package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/infrastructure/logging"
	"payment_gateway/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const MercadoPagoName = "mercadopago"

const (
	mercadoPagoSignatureHeader = "X-Signature"
	mercadoPagoRequestIDHeader = "X-Request-Id"
)

type MercadoPagoConfig struct {
	AccessToken    string
	WebhookSecret  string
	TestPayerEmail string
	Mock           bool
}

// MercadoPagoProvider adapts the Mercado Pago payments API.
//
// Amounts travel in major units (transaction_amount); every currency is
// assumed to have two decimal places. The gateway payment id is sent as
// external_reference.
type MercadoPagoProvider struct {
	api            mercadoPagoAPI
	webhookSecret  string
	testPayerEmail string
	sandboxToken   bool
	mock           bool
	log            *zap.Logger
}

var _ interfaces.IPaymentProvider = (*MercadoPagoProvider)(nil)

func NewMercadoPagoProvider(cfg MercadoPagoConfig, log *zap.Logger) (*MercadoPagoProvider, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("provider.mercadopago")

	var api mercadoPagoAPI
	if cfg.Mock {
		log.Info("mock mode enabled; Mercado Pago calls are served in memory")
		api = newMockMercadoPagoAPI()
	} else {
		sdk, err := newSDKMercadoPagoAPI(cfg.AccessToken)
		if err != nil {
			log.Error("failed creating Mercado Pago client", zap.Error(err))
			return nil, err
		}
		log.Info("Mercado Pago client initialized")
		api = sdk
	}
	return newMercadoPagoProvider(api, cfg, log), nil
}

func newMercadoPagoProvider(api mercadoPagoAPI, cfg MercadoPagoConfig, log *zap.Logger) *MercadoPagoProvider {
	return &MercadoPagoProvider{
		api:            api,
		webhookSecret:  cfg.WebhookSecret,
		testPayerEmail: cfg.TestPayerEmail,
		sandboxToken:   strings.HasPrefix(strings.TrimSpace(cfg.AccessToken), "TEST-"),
		mock:           cfg.Mock,
		log:            log,
	}
}

func (p *MercadoPagoProvider) Name() string { return MercadoPagoName }

// CreatePayment submits the payment right away when the payment data already
// carries a payment method; otherwise it waits for ProcessPayment.
func (p *MercadoPagoProvider) CreatePayment(ctx context.Context, order entities.Order, req interfaces.PaymentRequest) (interfaces.ProviderPayment, error) {
	body, err := decodePaymentData(req.PaymentData)
	if err != nil {
		return interfaces.ProviderPayment{}, p.fail("create", entities.ErrProviderRejected, err)
	}
	if !hasNonEmptyString(body, "payment_method_id") {
		p.log.Debug("create deferred until payment data arrives", logging.PaymentID(req.PaymentID), logging.OrderID(order.ID))
		return interfaces.ProviderPayment{State: entities.PaymentStatePending}, nil
	}
	return p.submit(withIdempotencyKey(ctx, req.IdempotencyKey), "create", req.PaymentID, order.ID, req.Amount, body)
}

func (p *MercadoPagoProvider) ProcessPayment(ctx context.Context, payment entities.Payment, paymentData json.RawMessage) (interfaces.ProviderPayment, error) {
	if payment.ProviderRef == "" {
		body, err := decodePaymentData(paymentData)
		if err != nil {
			return interfaces.ProviderPayment{}, p.fail("process", entities.ErrProviderRejected, err)
		}
		if !hasNonEmptyString(body, "payment_method_id") {
			return interfaces.ProviderPayment{}, p.fail("process", entities.ErrProviderRejected, errors.New("missing payment_method_id"))
		}
		return p.submit(withIdempotencyKey(ctx, payment.IdempotencyKey), "process", payment.ID, payment.OrderID, payment.Amount, body)
	}

	id, err := mercadoPagoID(payment.ProviderRef)
	if err != nil {
		return interfaces.ProviderPayment{}, p.fail("process", entities.ErrProviderRejected, err)
	}
	current, err := p.api.GetPayment(ctx, id)
	if err != nil {
		return interfaces.ProviderPayment{}, p.fail("process", classifyMercadoPagoError(err), err)
	}
	if current.Status == "authorized" {
		current, err = p.api.CapturePayment(withIdempotencyKey(ctx, payment.ID+":capture"), id)
		if err != nil {
			return interfaces.ProviderPayment{}, p.fail("process", classifyMercadoPagoError(err), err)
		}
	}
	return p.outcome("process", current)
}

func (p *MercadoPagoProvider) RefundPayment(ctx context.Context, payment entities.Payment, req interfaces.RefundRequest) (interfaces.ProviderRefund, error) {
	id, err := mercadoPagoID(payment.ProviderRef)
	if err != nil {
		return interfaces.ProviderRefund{}, p.fail("refund", entities.ErrProviderRejected, err)
	}
	partial := payment.RefundedAmount > 0 || req.Amount.Amount < payment.CapturedAmount
	resp, err := p.api.RefundPayment(withIdempotencyKey(ctx, req.IdempotencyKey), id, toMajorUnits(req.Amount.Amount), partial)
	if err != nil {
		return interfaces.ProviderRefund{}, p.fail("refund", classifyMercadoPagoError(err), err)
	}
	p.log.Info("refund created",
		logging.PaymentID(payment.ID),
		zap.Int64("provider_refund_id", resp.ID),
		zap.String("provider_status", resp.Status))
	return interfaces.ProviderRefund{
		ProviderRef: strconv.FormatInt(resp.ID, 10),
		State:       mapMercadoPagoRefundStatus(resp.Status),
		Raw:         resp.Raw,
	}, nil
}

// ValidateWebhook checks the x-signature header: an HMAC-SHA256 over
// "id:{data.id};request-id:{x-request-id};ts:{ts};" keyed by the webhook secret.
func (p *MercadoPagoProvider) ValidateWebhook(req interfaces.WebhookRequest) bool {
	if p.webhookSecret == "" {
		return false
	}
	parts := parseSignatureHeader(req.Headers.Get(mercadoPagoSignatureHeader))
	ts, v1 := parts["ts"], parts["v1"]
	if ts == "" || v1 == "" {
		return false
	}
	dataID := req.Query.Get("data.id")
	if dataID == "" {
		n, err := decodeMercadoPagoNotification(req.Body)
		if err != nil {
			return false
		}
		dataID = string(n.Data.ID)
	}
	manifest := mercadoPagoManifest(dataID, req.Headers.Get(mercadoPagoRequestIDHeader), ts)
	return validHMAC(p.webhookSecret, []byte(manifest), v1)
}

// HandleWebhook resolves the notification against the payments API (the
// notification only names the resource) and applies the resulting event.
func (p *MercadoPagoProvider) HandleWebhook(ctx context.Context, req interfaces.WebhookRequest, applier interfaces.WebhookEventApplier) (entities.WebhookEvent, error) {
	n, err := decodeMercadoPagoNotification(req.Body)
	if err != nil {
		return entities.WebhookEvent{Provider: MercadoPagoName}, fmt.Errorf("%w: %v", entities.ErrValidation, err)
	}
	event := entities.WebhookEvent{
		ID:        string(n.ID),
		Provider:  MercadoPagoName,
		Payload:   req.Body,
		Signature: req.Headers.Get(mercadoPagoSignatureHeader),
	}
	topic := n.Type
	if topic == "" {
		topic = req.Query.Get("type")
	}
	if topic != "payment" {
		event.Type = entities.WebhookEventType(topic)
		return event, fmt.Errorf("%w: %q", entities.ErrUnknownEventType, topic)
	}

	id, err := mercadoPagoID(string(n.Data.ID))
	if err != nil {
		return event, fmt.Errorf("%w: %v", entities.ErrValidation, err)
	}
	current, err := p.api.GetPayment(ctx, id)
	if err != nil {
		return event, p.fail("webhook", classifyMercadoPagoError(err), err)
	}
	event.PaymentRef = strconv.FormatInt(current.ID, 10)

	switch mapMercadoPagoStatus(current.Status) {
	case entities.PaymentStateAuthorized:
		event.Type = entities.WebhookEventPaymentAuthorized
	case entities.PaymentStateCaptured:
		event.Type = entities.WebhookEventPaymentCaptured
		event.Amount = toMinorUnits(current.TransactionAmount)
	case entities.PaymentStateFailed:
		event.Type = entities.WebhookEventPaymentFailed
	case entities.PaymentStateCancelled:
		event.Type = entities.WebhookEventPaymentCancelled
	default:
		event.Type = entities.WebhookEventType("payment." + current.Status)
		return event, fmt.Errorf("%w: payment status %q", entities.ErrUnknownEventType, current.Status)
	}
	return event, applier.ApplyWebhookEvent(ctx, event)
}

func (p *MercadoPagoProvider) RetrievePaymentStatus(ctx context.Context, payment entities.Payment) (interfaces.ProviderPayment, error) {
	if payment.ProviderRef == "" {
		return interfaces.ProviderPayment{State: payment.State}, nil
	}
	id, err := mercadoPagoID(payment.ProviderRef)
	if err != nil {
		return interfaces.ProviderPayment{}, p.fail("status", entities.ErrProviderRejected, err)
	}
	current, err := p.api.GetPayment(ctx, id)
	if err != nil {
		return interfaces.ProviderPayment{}, p.fail("status", classifyMercadoPagoError(err), err)
	}
	return toProviderPayment(current), nil
}

func (p *MercadoPagoProvider) CancelPayment(ctx context.Context, payment entities.Payment) (interfaces.ProviderPayment, error) {
	if payment.ProviderRef == "" {
		// Nothing was submitted yet.
		return interfaces.ProviderPayment{State: entities.PaymentStateCancelled}, nil
	}
	id, err := mercadoPagoID(payment.ProviderRef)
	if err != nil {
		return interfaces.ProviderPayment{}, p.fail("cancel", entities.ErrProviderRejected, err)
	}
	current, err := p.api.CancelPayment(withIdempotencyKey(ctx, payment.ID+":cancel"), id)
	if err != nil {
		return interfaces.ProviderPayment{}, p.fail("cancel", classifyMercadoPagoError(err), err)
	}
	return toProviderPayment(current), nil
}

func (p *MercadoPagoProvider) submit(ctx context.Context, op, paymentID, orderID string, amount entities.Money, body map[string]any) (interfaces.ProviderPayment, error) {
	if _, ok := body["external_reference"]; !ok {
		body["external_reference"] = paymentID
	}
	if _, ok := body["description"]; !ok {
		body["description"] = fmt.Sprintf("Order %s", orderID)
	}
	// The amount always comes from the order.
	body["transaction_amount"] = toMajorUnits(amount.Amount)
	ensurePayerDefaults(body, p.testPayerEmail, p.sandboxToken)
	if !p.mock && !hasPayer(body) {
		return interfaces.ProviderPayment{}, p.fail(op, entities.ErrProviderRejected, errors.New("missing payer email or id"))
	}

	p.log.Info("submitting payment", logging.PaymentID(paymentID), logging.OrderID(orderID), zap.String("op", op))
	resp, err := p.api.CreatePayment(ctx, body)
	if err != nil {
		return interfaces.ProviderPayment{}, p.fail(op, classifyMercadoPagoError(err), err)
	}
	return p.outcome(op, resp)
}

// outcome turns a synchronous rejection into an error.
func (p *MercadoPagoProvider) outcome(op string, resp mpPayment) (interfaces.ProviderPayment, error) {
	p.log.Info("payment submitted",
		zap.String("op", op),
		zap.Int64("provider_payment_id", resp.ID),
		zap.String("provider_status", resp.Status),
		zap.String("status_detail", resp.StatusDetail))
	if resp.Status == "rejected" {
		kind := entities.ErrProviderRejected
		if strings.Contains(resp.StatusDetail, "insufficient_amount") {
			kind = entities.ErrInsufficientFunds
		}
		return interfaces.ProviderPayment{}, entities.NewProviderError(MercadoPagoName, op, kind, fmt.Errorf("status_detail=%s", resp.StatusDetail))
	}
	return toProviderPayment(resp), nil
}

func (p *MercadoPagoProvider) fail(op string, kind, err error) error {
	p.log.Warn("mercado pago call failed", zap.String("op", op), zap.NamedError("kind", kind), zap.Error(err))
	return entities.NewProviderError(MercadoPagoName, op, kind, err)
}

func toProviderPayment(resp mpPayment) interfaces.ProviderPayment {
	out := interfaces.ProviderPayment{
		ProviderRef: strconv.FormatInt(resp.ID, 10),
		State:       mapMercadoPagoStatus(resp.Status),
		Raw:         resp.Raw,
	}
	if out.State == entities.PaymentStateCaptured {
		out.CapturedAmount = toMinorUnits(resp.TransactionAmount)
	}
	return out
}

func mapMercadoPagoStatus(status string) entities.PaymentState {
	switch status {
	case "authorized":
		return entities.PaymentStateAuthorized
	case "approved":
		return entities.PaymentStateCaptured
	case "rejected":
		return entities.PaymentStateFailed
	case "cancelled":
		return entities.PaymentStateCancelled
	case "refunded", "charged_back":
		return entities.PaymentStateRefunded
	}
	// pending, in_process, in_mediation
	return entities.PaymentStatePending
}

func mapMercadoPagoRefundStatus(status string) entities.RefundState {
	switch status {
	case "approved":
		return entities.RefundStateSettled
	case "rejected", "cancelled":
		return entities.RefundStateFailed
	}
	return entities.RefundStatePending
}

func mercadoPagoManifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		b.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	b.WriteString("ts:" + ts + ";")
	return b.String()
}

// mpID accepts both JSON strings and numbers.
type mpID string

func (id *mpID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	*id = mpID(strings.Trim(s, `"`))
	return nil
}

type mercadoPagoNotification struct {
	ID     mpID   `json:"id"`
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID mpID `json:"id"`
	} `json:"data"`
}

func decodeMercadoPagoNotification(body []byte) (mercadoPagoNotification, error) {
	var n mercadoPagoNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return n, err
	}
	if n.ID == "" || n.Data.ID == "" {
		return n, errors.New("notification without id")
	}
	return n, nil
}

func mercadoPagoID(ref string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(ref))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid mercado pago id %q", ref)
	}
	return id, nil
}

func decodePaymentData(raw json.RawMessage) (map[string]any, error) {
	body := map[string]any{}
	if len(raw) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

func toMajorUnits(minor int64) float64 {
	return float64(minor) / 100
}

func toMinorUnits(major float64) int64 {
	return int64(math.Round(major * 100))
}

func hasNonEmptyString(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(s) != ""
}

func hasPayer(m map[string]any) bool {
	payer, ok := m["payer"].(map[string]any)
	if !ok {
		return false
	}
	return hasNonEmptyString(payer, "email") || hasPayerID(payer)
}

func hasPayerID(payer map[string]any) bool {
	v, ok := payer["id"]
	if !ok || v == nil {
		return false
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	return s != "" && s != "<nil>"
}

func ensurePayerDefaults(m map[string]any, testPayerEmail string, sandboxToken bool) {
	v, ok := m["payer"]
	if !ok || v == nil {
		v = map[string]any{}
		m["payer"] = v
	}
	payer, ok := v.(map[string]any)
	if !ok {
		return
	}
	if _, ok := payer["type"]; !ok {
		payer["type"] = "customer"
	}
	if hasPayerID(payer) || hasNonEmptyString(payer, "email") {
		return
	}
	switch {
	case testPayerEmail != "":
		payer["email"] = testPayerEmail
	case sandboxToken:
		payer["email"] = "test_user_br@testuser.com"
	}
}
