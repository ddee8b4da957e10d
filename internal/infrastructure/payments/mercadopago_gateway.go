package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"payment_gateway/internal/domain/entities"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/refund"
	"github.com/mercadopago/sdk-go/pkg/requester"
)

var ErrMissingMercadoPagoAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")

const (
	mercadoPagoIdempotencyHeader = "X-Idempotency-Key"
	mercadoPagoHTTPTimeout       = 10 * time.Second
)

type idempotencyKeyContextKey struct{}

// withIdempotencyKey makes every write issued under ctx carry key as its
// X-Idempotency-Key, so a retried call is recognised by Mercado Pago.
func withIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, idempotencyKeyContextKey{}, key)
}

func idempotencyKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyContextKey{}).(string)
	return key
}

// idempotentRequester replaces the random X-Idempotency-Key the SDK sets on
// every write with the key carried by the request context.
type idempotentRequester struct {
	next requester.Requester
}

func (r idempotentRequester) Do(req *http.Request) (*http.Response, error) {
	if key := idempotencyKeyFromContext(req.Context()); key != "" && req.Method != http.MethodGet {
		req.Header.Set(mercadoPagoIdempotencyHeader, key)
	}
	return r.next.Do(req)
}

// mercadoPagoAPI is the part of the Mercado Pago API the provider uses.
type mercadoPagoAPI interface {
	CreatePayment(ctx context.Context, body map[string]any) (mpPayment, error)
	GetPayment(ctx context.Context, id int) (mpPayment, error)
	CapturePayment(ctx context.Context, id int) (mpPayment, error)
	CancelPayment(ctx context.Context, id int) (mpPayment, error)
	RefundPayment(ctx context.Context, paymentID int, amount float64, partial bool) (mpRefund, error)
}

type mpPayment struct {
	ID                int64           `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	TransactionAmount float64         `json:"transaction_amount"`
	ExternalReference string          `json:"external_reference"`
	Captured          bool            `json:"captured"`
	Raw               json.RawMessage `json:"-"`
}

type mpRefund struct {
	ID        int64           `json:"id"`
	PaymentID int64           `json:"payment_id"`
	Amount    float64         `json:"amount"`
	Status    string          `json:"status"`
	Raw       json.RawMessage `json:"-"`
}

// sdkMercadoPagoAPI talks to Mercado Pago through the official SDK.
type sdkMercadoPagoAPI struct {
	payments payment.Client
	refunds  refund.Client
}

func newSDKMercadoPagoAPI(accessToken string) (*sdkMercadoPagoAPI, error) {
	return newSDKMercadoPagoAPIWith(accessToken, &http.Client{Timeout: mercadoPagoHTTPTimeout})
}

func newSDKMercadoPagoAPIWith(accessToken string, transport requester.Requester) (*sdkMercadoPagoAPI, error) {
	if accessToken == "" {
		return nil, ErrMissingMercadoPagoAccessToken
	}
	cfg, err := config.New(accessToken, config.WithHTTPClient(idempotentRequester{next: transport}))
	if err != nil {
		return nil, err
	}
	return &sdkMercadoPagoAPI{
		payments: payment.NewClient(cfg),
		refunds:  refund.NewClient(cfg),
	}, nil
}

func (a *sdkMercadoPagoAPI) CreatePayment(ctx context.Context, body map[string]any) (mpPayment, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return mpPayment{}, err
	}
	var req payment.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return mpPayment{}, err
	}
	resp, err := a.payments.Create(ctx, req)
	if err != nil {
		return mpPayment{}, err
	}
	return decodeMPPayment(resp)
}

func (a *sdkMercadoPagoAPI) GetPayment(ctx context.Context, id int) (mpPayment, error) {
	resp, err := a.payments.Get(ctx, id)
	if err != nil {
		return mpPayment{}, err
	}
	return decodeMPPayment(resp)
}

func (a *sdkMercadoPagoAPI) CapturePayment(ctx context.Context, id int) (mpPayment, error) {
	resp, err := a.payments.Capture(ctx, id)
	if err != nil {
		return mpPayment{}, err
	}
	return decodeMPPayment(resp)
}

func (a *sdkMercadoPagoAPI) CancelPayment(ctx context.Context, id int) (mpPayment, error) {
	resp, err := a.payments.Cancel(ctx, id)
	if err != nil {
		return mpPayment{}, err
	}
	return decodeMPPayment(resp)
}

func (a *sdkMercadoPagoAPI) RefundPayment(ctx context.Context, paymentID int, amount float64, partial bool) (mpRefund, error) {
	var (
		resp *refund.Response
		err  error
	)
	if partial {
		resp, err = a.refunds.CreatePartialRefund(ctx, paymentID, amount)
	} else {
		resp, err = a.refunds.Create(ctx, paymentID)
	}
	if err != nil {
		return mpRefund{}, err
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return mpRefund{}, err
	}
	var out mpRefund
	if err := json.Unmarshal(b, &out); err != nil {
		return mpRefund{}, err
	}
	out.Raw = b
	return out, nil
}

func decodeMPPayment(resp *payment.Response) (mpPayment, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return mpPayment{}, err
	}
	var out mpPayment
	if err := json.Unmarshal(b, &out); err != nil {
		return mpPayment{}, err
	}
	out.Raw = b
	return out, nil
}

// mockMercadoPagoAPI approves everything in memory. It backs the provider
// when PAYMENT_GATEWAY_MOCK (or MERCADOPAGO_MOCK) is enabled.
type mockMercadoPagoAPI struct {
	mu       sync.Mutex
	nextID   int64
	payments map[int64]mpPayment
	refunded map[int64]float64
}

func newMockMercadoPagoAPI() *mockMercadoPagoAPI {
	return &mockMercadoPagoAPI{
		nextID:   time.Now().UTC().UnixNano() / int64(time.Millisecond),
		payments: make(map[int64]mpPayment),
		refunded: make(map[int64]float64),
	}
}

func (m *mockMercadoPagoAPI) CreatePayment(_ context.Context, body map[string]any) (mpPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	amount, _ := body["transaction_amount"].(float64)
	ref, _ := body["external_reference"].(string)
	status, detail, captured := "approved", "accredited", true
	if c, ok := body["capture"].(bool); ok && !c {
		status, detail, captured = "authorized", "pending_capture", false
	}
	p := mpPayment{
		ID:                m.nextID,
		Status:            status,
		StatusDetail:      detail,
		TransactionAmount: amount,
		ExternalReference: ref,
		Captured:          captured,
	}
	p.Raw, _ = json.Marshal(p)
	m.payments[p.ID] = p
	return p, nil
}

func (m *mockMercadoPagoAPI) GetPayment(_ context.Context, id int) (mpPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[int64(id)]
	if !ok {
		return mpPayment{}, errors.New(`{"message":"Payment not found","error":"not_found","status":404}`)
	}
	return p, nil
}

func (m *mockMercadoPagoAPI) CapturePayment(ctx context.Context, id int) (mpPayment, error) {
	return m.update(id, func(p *mpPayment) error {
		if p.Status != "authorized" {
			return errors.New(`{"message":"Payment cannot be captured","error":"bad_request","status":400}`)
		}
		p.Status, p.StatusDetail, p.Captured = "approved", "accredited", true
		return nil
	})
}

func (m *mockMercadoPagoAPI) CancelPayment(ctx context.Context, id int) (mpPayment, error) {
	return m.update(id, func(p *mpPayment) error {
		if p.Status != "pending" && p.Status != "authorized" && p.Status != "in_process" {
			return errors.New(`{"message":"Payment cannot be cancelled","error":"bad_request","status":400}`)
		}
		p.Status, p.StatusDetail = "cancelled", "by_collector"
		return nil
	})
}

func (m *mockMercadoPagoAPI) RefundPayment(_ context.Context, paymentID int, amount float64, partial bool) (mpRefund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[int64(paymentID)]
	if !ok {
		return mpRefund{}, errors.New(`{"message":"Payment not found","error":"not_found","status":404}`)
	}
	if !partial {
		amount = p.TransactionAmount - m.refunded[p.ID]
	}
	if p.Status != "approved" || amount <= 0 || m.refunded[p.ID]+amount > p.TransactionAmount+0.001 {
		return mpRefund{}, errors.New(`{"message":"Invalid refund amount","error":"bad_request","status":400}`)
	}
	m.refunded[p.ID] += amount
	m.nextID++
	r := mpRefund{ID: m.nextID, PaymentID: p.ID, Amount: amount, Status: "approved"}
	r.Raw, _ = json.Marshal(r)
	return r, nil
}

func (m *mockMercadoPagoAPI) update(id int, fn func(p *mpPayment) error) (mpPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[int64(id)]
	if !ok {
		return mpPayment{}, errors.New(`{"message":"Payment not found","error":"not_found","status":404}`)
	}
	if err := fn(&p); err != nil {
		return mpPayment{}, err
	}
	p.Raw, _ = json.Marshal(p)
	m.payments[p.ID] = p
	return p, nil
}

// classifyMercadoPagoError maps SDK errors onto the provider error kinds.
// The SDK surfaces API failures as JSON bodies in the error text.
func classifyMercadoPagoError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return entities.ErrProviderUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return entities.ErrProviderUnavailable
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, `"status":5`, "status code: 5", "internal_server_error", "service unavailable", "bad gateway", "connection reset", "connection refused", "eof"):
		return entities.ErrProviderUnavailable
	case containsAny(msg, `"status":429`, "too_many_requests"):
		return entities.ErrProviderUnavailable
	case containsAny(msg, "insufficient_amount"):
		return entities.ErrInsufficientFunds
	}
	return entities.ErrProviderRejected
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
