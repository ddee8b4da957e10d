package handlers

import (
	"net/http"
	"testing"

	"payment_gateway/internal/adapter/http/handlers/mocks"
	"payment_gateway/internal/domain/entities"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

func newOrderRouter(t *testing.T) (*gin.Engine, *mocks.MockIOrderUseCase, *mocks.MockIGatewayRouter) {
	t.Helper()
	ctrl := gomock.NewController(t)
	uc := mocks.NewMockIOrderUseCase(ctrl)
	router := mocks.NewMockIGatewayRouter(ctrl)
	h := NewOrderHandler(uc, router, nil)

	r := gin.New()
	r.POST("/v1/orders", h.CreateOrder)
	r.GET("/v1/orders/:order_id", h.GetOrder)
	r.GET("/v1/orders/:order_id/payments", h.ListOrderPayments)
	return r, uc, router
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid payload", func(t *testing.T) {
		r, _, _ := newOrderRouter(t)
		w := doRequest(r, http.MethodPost, "/v1/orders", `{"amount":0,"currency":"BRL","provider":"sandbox"}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		r, uc, _ := newOrderRouter(t)
		uc.EXPECT().CreateOrder(gomock.Any(), entities.Money{Amount: 1000, Currency: "BRL"}, "stripe").Return(entities.Order{}, entities.ErrUnknownProvider)

		w := doRequest(r, http.MethodPost, "/v1/orders", `{"amount":1000,"currency":"brl","provider":"stripe"}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		r, uc, _ := newOrderRouter(t)
		uc.EXPECT().CreateOrder(gomock.Any(), entities.Money{Amount: 1000, Currency: "BRL"}, "sandbox").
			Return(entities.Order{ID: testOrderID, Total: entities.Money{Amount: 1000, Currency: "BRL"}, Status: entities.OrderStatusOpen, Provider: "sandbox"}, nil)

		w := doRequest(r, http.MethodPost, "/v1/orders", `{"amount":1000,"currency":"BRL","provider":"sandbox"}`, nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestOrderHandler_ListOrderPayments(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("order not found", func(t *testing.T) {
		r, uc, _ := newOrderRouter(t)
		uc.EXPECT().GetByID(gomock.Any(), "missing").Return(entities.Order{}, entities.ErrOrderNotFound)

		w := doRequest(r, http.MethodGet, "/v1/orders/missing/payments", "", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("lists payments", func(t *testing.T) {
		r, uc, router := newOrderRouter(t)
		uc.EXPECT().GetByID(gomock.Any(), testOrderID).Return(entities.Order{ID: testOrderID}, nil)
		router.EXPECT().ListPaymentsByOrder(gomock.Any(), testOrderID).Return([]entities.Payment{pendingPayment()}, nil)

		w := doRequest(r, http.MethodGet, "/v1/orders/"+testOrderID+"/payments", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})
}
