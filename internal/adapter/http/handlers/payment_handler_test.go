package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payment_gateway/internal/adapter/http/handlers/mocks"
	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

const testOrderID = "3f2b8c1e-7a4d-4f6b-9c2e-1d5a8b7e6f40"

func newPaymentRouter(t *testing.T) (*gin.Engine, *mocks.MockIGatewayRouter) {
	t.Helper()
	ctrl := gomock.NewController(t)
	router := mocks.NewMockIGatewayRouter(ctrl)
	h := NewPaymentHandler(router, nil)

	r := gin.New()
	r.POST("/v1/payments", h.CreatePayment)
	r.GET("/v1/payments/:payment_id", h.GetPayment)
	r.POST("/v1/payments/:payment_id/process", h.ProcessPayment)
	r.POST("/v1/payments/:payment_id/refunds", h.RefundPayment)
	r.GET("/v1/payments/:payment_id/refunds", h.ListRefunds)
	r.POST("/v1/payments/:payment_id/cancel", h.CancelPayment)
	r.POST("/v1/payments/:payment_id/reconcile", h.ReconcilePayment)
	return r, router
}

func doRequest(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body == "" {
		reader = &bytes.Buffer{}
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func pendingPayment() entities.Payment {
	now := time.Now().UTC()
	return entities.Payment{
		ID:        "pay-1",
		OrderID:   testOrderID,
		Provider:  "sandbox",
		Amount:    entities.Money{Amount: 1000, Currency: "BRL"},
		State:     entities.PaymentStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPaymentHandler_CreatePayment(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid payload", func(t *testing.T) {
		r, _ := newPaymentRouter(t)
		w := doRequest(r, http.MethodPost, "/v1/payments", "{", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("order id must be a uuid", func(t *testing.T) {
		r, _ := newPaymentRouter(t)
		w := doRequest(r, http.MethodPost, "/v1/payments", `{"order_id":"o1"}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("header idempotency key wins", func(t *testing.T) {
		r, router := newPaymentRouter(t)
		router.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, cmd usecase.CreatePaymentCommand) (entities.Payment, error) {
				if cmd.IdempotencyKey != "key-header" {
					t.Fatalf("expected header key, got %q", cmd.IdempotencyKey)
				}
				if cmd.OrderID != testOrderID {
					t.Fatalf("unexpected order id %q", cmd.OrderID)
				}
				return pendingPayment(), nil
			})

		body := fmt.Sprintf(`{"order_id":%q,"idempotency_key":"key-body","payment_data":{"token":"tok_approve"}}`, testOrderID)
		w := doRequest(r, http.MethodPost, "/v1/payments", body, map[string]string{"Idempotency-Key": "key-header"})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		var res map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &res)
		if res["payment_id"] != "pay-1" || res["state"] != "pending" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	errorCases := []struct {
		name string
		err  error
		want int
	}{
		{"order not found", entities.ErrOrderNotFound, http.StatusNotFound},
		{"order not open", usecase.ErrOrderNotOpen, http.StatusConflict},
		{"idempotency conflict", entities.ErrIdempotencyConflict, http.StatusConflict},
		{"gateway timeout", fmt.Errorf("%w: sandbox create after 3 attempts: %w", entities.ErrGatewayTimeout, entities.ErrProviderUnavailable), http.StatusGatewayTimeout},
		{"insufficient funds", entities.NewProviderError("sandbox", "create", entities.ErrInsufficientFunds, nil), http.StatusPaymentRequired},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			r, router := newPaymentRouter(t)
			router.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(entities.Payment{}, tc.err)

			w := doRequest(r, http.MethodPost, "/v1/payments", fmt.Sprintf(`{"order_id":%q}`, testOrderID), nil)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestPaymentHandler_ProcessPayment(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("envelope payload is unwrapped", func(t *testing.T) {
		r, router := newPaymentRouter(t)
		router.EXPECT().ProcessPayment(gomock.Any(), "pay-1", json.RawMessage(`{"token":"tok_approve"}`)).Return(pendingPayment(), nil)

		w := doRequest(r, http.MethodPost, "/v1/payments/pay-1/process", `{"payment_data":{"token":"tok_approve"}}`, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("empty body becomes empty object", func(t *testing.T) {
		r, router := newPaymentRouter(t)
		router.EXPECT().ProcessPayment(gomock.Any(), "pay-1", json.RawMessage("{}")).Return(pendingPayment(), nil)

		w := doRequest(r, http.MethodPost, "/v1/payments/pay-1/process", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("null envelope rejected", func(t *testing.T) {
		r, _ := newPaymentRouter(t)
		w := doRequest(r, http.MethodPost, "/v1/payments/pay-1/process", `{"payment_data":null}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("rejected by provider", func(t *testing.T) {
		r, router := newPaymentRouter(t)
		router.EXPECT().ProcessPayment(gomock.Any(), "pay-1", gomock.Any()).
			Return(entities.Payment{}, entities.NewProviderError("sandbox", "process", entities.ErrProviderRejected, errors.New("card declined")))

		w := doRequest(r, http.MethodPost, "/v1/payments/pay-1/process", `{"token":"tok_decline"}`, nil)
		if w.Code != http.StatusPaymentRequired {
			t.Fatalf("expected 402, got %d", w.Code)
		}
	})
}

func TestPaymentHandler_RefundPayment(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("partial refund", func(t *testing.T) {
		r, router := newPaymentRouter(t)
		router.EXPECT().RefundPayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, cmd usecase.RefundCommand) (usecase.RefundResult, error) {
				if cmd.Amount == nil || *cmd.Amount != 400 || cmd.IdempotencyKey != "rf-1" {
					t.Fatalf("unexpected command: %+v", cmd)
				}
				p := pendingPayment()
				p.State = entities.PaymentStatePartiallyRefunded
				p.CapturedAmount = 1000
				p.RefundedAmount = 400
				return usecase.RefundResult{
					Refund:  entities.RefundRecord{ID: "rf-1", PaymentID: "pay-1", Amount: entities.Money{Amount: 400, Currency: "BRL"}, State: entities.RefundStateSettled},
					Payment: p,
				}, nil
			})

		w := doRequest(r, http.MethodPost, "/v1/payments/pay-1/refunds", `{"amount":400}`, map[string]string{"Idempotency-Key": "rf-1"})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		var res struct {
			Refund  map[string]any `json:"refund"`
			Payment map[string]any `json:"payment"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &res)
		if res.Refund["state"] != "settled" || res.Payment["refundable_amount"] != float64(600) {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("empty body refunds everything", func(t *testing.T) {
		r, router := newPaymentRouter(t)
		router.EXPECT().RefundPayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, cmd usecase.RefundCommand) (usecase.RefundResult, error) {
				if cmd.Amount != nil {
					t.Fatalf("expected nil amount, got %d", *cmd.Amount)
				}
				return usecase.RefundResult{Payment: pendingPayment()}, nil
			})

		w := doRequest(r, http.MethodPost, "/v1/payments/pay-1/refunds", "", nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
	})

	t.Run("non positive amount rejected by binding", func(t *testing.T) {
		r, _ := newPaymentRouter(t)
		w := doRequest(r, http.MethodPost, "/v1/payments/pay-1/refunds", `{"amount":0}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("over refund", func(t *testing.T) {
		r, router := newPaymentRouter(t)
		router.EXPECT().RefundPayment(gomock.Any(), gomock.Any()).Return(usecase.RefundResult{}, fmt.Errorf("%w: requested 700, refundable 600", entities.ErrInvalidRefundAmount))

		w := doRequest(r, http.MethodPost, "/v1/payments/pay-1/refunds", `{"amount":700}`, nil)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", w.Code)
		}
	})
}

func TestPaymentHandler_CancelAndReconcile(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("cancel after capture conflicts", func(t *testing.T) {
		r, router := newPaymentRouter(t)
		router.EXPECT().CancelPayment(gomock.Any(), "pay-1").Return(entities.Payment{}, entities.ErrInvalidStateTransition)

		w := doRequest(r, http.MethodPost, "/v1/payments/pay-1/cancel", "", nil)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("cancel success", func(t *testing.T) {
		r, router := newPaymentRouter(t)
		p := pendingPayment()
		p.State = entities.PaymentStateCancelled
		router.EXPECT().CancelPayment(gomock.Any(), "pay-1").Return(p, nil)

		w := doRequest(r, http.MethodPost, "/v1/payments/pay-1/cancel", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("reconcile provider unavailable", func(t *testing.T) {
		r, router := newPaymentRouter(t)
		router.EXPECT().RetrievePaymentStatus(gomock.Any(), "pay-1").Return(entities.Payment{}, entities.NewProviderError("sandbox", "status", entities.ErrProviderUnavailable, nil))

		w := doRequest(r, http.MethodPost, "/v1/payments/pay-1/reconcile", "", nil)
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", w.Code)
		}
	})
}

func TestPaymentHandler_Reads(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("get not found", func(t *testing.T) {
		r, router := newPaymentRouter(t)
		router.EXPECT().GetPayment(gomock.Any(), "missing").Return(entities.Payment{}, entities.ErrPaymentNotFound)

		w := doRequest(r, http.MethodGet, "/v1/payments/missing", "", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("list refunds", func(t *testing.T) {
		r, router := newPaymentRouter(t)
		router.EXPECT().ListRefunds(gomock.Any(), "pay-1").Return([]entities.RefundRecord{{ID: "rf-1", PaymentID: "pay-1"}}, nil)

		w := doRequest(r, http.MethodGet, "/v1/payments/pay-1/refunds", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var res []map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &res)
		if len(res) != 1 || res[0]["id"] != "rf-1" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})
}
