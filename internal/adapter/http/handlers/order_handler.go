package handlers

import (
	"net/http"

	request "payment_gateway/internal/adapter/http/dto/request"
	response "payment_gateway/internal/adapter/http/dto/response"
	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	usecase usecase.IOrderUseCase
	router  usecase.IGatewayRouter
	log     *zap.Logger
}

func NewOrderHandler(uc usecase.IOrderUseCase, router usecase.IGatewayRouter, log *zap.Logger) *OrderHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderHandler{usecase: uc, router: router, log: log.Named("http.order")}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var payload request.OrderCreateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidOrderPayload.HTTPStatus, errInvalidOrderPayload.ToHTTPError())
		return
	}

	total := entities.Money{Amount: payload.Amount, Currency: payload.ResolveCurrency()}
	order, err := h.usecase.CreateOrder(c.Request.Context(), total, payload.Provider)
	if err != nil {
		h.log.Warn("create order failed", zap.String("provider", payload.Provider), zap.Error(err))
		appErr := mapGatewayError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.FromOrder(order))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.usecase.GetByID(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		appErr := mapGatewayError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromOrder(order))
}

// ListOrderPayments returns every payment attempt made for an order.
func (h *OrderHandler) ListOrderPayments(c *gin.Context) {
	orderID := c.Param("order_id")
	if _, err := h.usecase.GetByID(c.Request.Context(), orderID); err != nil {
		appErr := mapGatewayError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	payments, err := h.router.ListPaymentsByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.log.Warn("list order payments failed", zap.String("order_id", orderID), zap.Error(err))
		appErr := mapGatewayError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPayments(payments))
}
