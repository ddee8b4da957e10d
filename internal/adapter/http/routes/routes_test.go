package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"payment_gateway/internal/infrastructure/config"
	"payment_gateway/internal/infrastructure/payments"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*gin.Engine, *application) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		StorageDriver:        config.StorageMemory,
		SandboxWebhookSecret: "test-secret",
		MockMode:             true,
	}
	app, err := newApplication(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	r := gin.New()
	setMiddlewares(r, zap.NewNop())
	getRoutes(r, app)
	return r, app
}

func call(t *testing.T, r http.Handler, method, path string, body any, headers http.Header) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := map[string]any{}
	if strings.HasPrefix(strings.TrimSpace(w.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func createOrder(t *testing.T, r http.Handler, provider string, amount int64) string {
	t.Helper()
	code, res := call(t, r, http.MethodPost, "/v1/orders", map[string]any{"amount": amount, "currency": "BRL", "provider": provider}, nil)
	require.Equal(t, http.StatusCreated, code)
	return res["id"].(string)
}

func TestRoutes_ProvidersAreRegistered(t *testing.T) {
	r, app := newTestServer(t)
	require.Equal(t, []string{payments.MercadoPagoName, payments.SandboxName}, app.router.Providers())

	code, res := call(t, r, http.MethodGet, "/v1/ping", nil, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "pong", res["message"])
}

func TestRoutes_SwaggerDocServed(t *testing.T) {
	r, _ := newTestServer(t)

	code, res := call(t, r, http.MethodGet, "/swagger/doc.json", nil, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "/v1", res["basePath"])
	paths, ok := res["paths"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, paths, "/payments/{payment_id}/refunds")
}

func TestRoutes_PaymentLifecycle(t *testing.T) {
	r, _ := newTestServer(t)
	orderID := createOrder(t, r, payments.SandboxName, 1000)

	key := http.Header{"Idempotency-Key": {"checkout-1"}}
	body := map[string]any{"order_id": orderID, "payment_data": map[string]any{"token": payments.SandboxTokenAuthorize}}
	code, created := call(t, r, http.MethodPost, "/v1/payments", body, key)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "authorized", created["state"])
	paymentID := created["id"].(string)

	code, replay := call(t, r, http.MethodPost, "/v1/payments", body, key)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, paymentID, replay["id"])

	code, processed := call(t, r, http.MethodPost, "/v1/payments/"+paymentID+"/process", nil, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "captured", processed["state"])
	require.EqualValues(t, 1000, processed["captured_amount"])

	code, order := call(t, r, http.MethodGet, "/v1/orders/"+orderID, nil, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "fulfilled", order["status"])

	code, _ = call(t, r, http.MethodPost, "/v1/payments/"+paymentID+"/cancel", nil, nil)
	require.Equal(t, http.StatusConflict, code)

	code, refund := call(t, r, http.MethodPost, "/v1/payments/"+paymentID+"/refunds", map[string]any{"amount": 400}, nil)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "partially_refunded", refund["payment"].(map[string]any)["state"])

	code, _ = call(t, r, http.MethodPost, "/v1/payments/"+paymentID+"/refunds", map[string]any{"amount": 700}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)

	code, refund = call(t, r, http.MethodPost, "/v1/payments/"+paymentID+"/refunds", map[string]any{"amount": 600}, nil)
	require.Equal(t, http.StatusCreated, code)
	final := refund["payment"].(map[string]any)
	require.Equal(t, "refunded", final["state"])
	require.EqualValues(t, 0, final["refundable_amount"])
}

func TestRoutes_WebhookIsAppliedOnce(t *testing.T) {
	r, app := newTestServer(t)
	orderID := createOrder(t, r, payments.SandboxName, 2500)

	body := map[string]any{"order_id": orderID, "payment_data": map[string]any{"token": payments.SandboxTokenPending}}
	code, created := call(t, r, http.MethodPost, "/v1/payments", body, nil)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "pending", created["state"])
	paymentID := created["id"].(string)

	code, blocked := call(t, r, http.MethodPost, "/v1/payments", body, nil)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "PAYMENT_IN_PROGRESS", blocked["code"])

	req, err := app.sandbox.SignedWebhook(payments.SandboxEvent{
		ID:         "evt-1",
		Type:       "payment.captured",
		PaymentRef: created["provider_ref"].(string),
	})
	require.NoError(t, err)

	send := func() map[string]any {
		httpReq := httptest.NewRequest(http.MethodPost, "/v1/webhooks/sandbox", bytes.NewReader(req.Body))
		httpReq.Header = req.Headers.Clone()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httpReq)
		require.Equal(t, http.StatusOK, w.Code)
		out := map[string]any{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out
	}
	require.Equal(t, "accepted", send()["outcome"])
	require.Equal(t, "duplicate", send()["outcome"])

	code, p := call(t, r, http.MethodGet, "/v1/payments/"+paymentID, nil, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "captured", p["state"])
	require.Len(t, p["transitions"], 1)

	forged := httptest.NewRequest(http.MethodPost, "/v1/webhooks/sandbox", bytes.NewReader(req.Body))
	forged.Header.Set(payments.SandboxSignatureHeader, "t=1,v1=00")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, forged)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"outcome":"rejected"`)

	code, _ = call(t, r, http.MethodPost, "/v1/webhooks/unknown", map[string]any{}, nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestRoutes_MetricsExposed(t *testing.T) {
	r, _ := newTestServer(t)
	createOrder(t, r, payments.SandboxName, 100)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "payment_gateway_reconcile_backlog")
}
