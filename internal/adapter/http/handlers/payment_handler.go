package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	request "payment_gateway/internal/adapter/http/dto/request"
	response "payment_gateway/internal/adapter/http/dto/response"
	"payment_gateway/internal/infrastructure/logging"
	"payment_gateway/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentHandler handles HTTP requests for payments and refunds.
type PaymentHandler struct {
	router usecase.IGatewayRouter
	log    *zap.Logger
}

func NewPaymentHandler(router usecase.IGatewayRouter, log *zap.Logger) *PaymentHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentHandler{router: router, log: log.Named("http.payment")}
}

// CreatePayment opens a payment for an order. Retrying with the same
// Idempotency-Key returns the original payment; a new payment is refused
// while another one on the order is still pending or authorized.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var payload request.PaymentCreateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidPaymentPayload.HTTPStatus, errInvalidPaymentPayload.ToHTTPError())
		return
	}

	cmd := usecase.CreatePaymentCommand{
		OrderID:        payload.OrderID,
		IdempotencyKey: payload.ResolveIdempotencyKey(c.GetHeader(request.IdempotencyKeyHeader)),
		PaymentData:    payload.PaymentData,
	}
	created, err := h.router.CreatePayment(c.Request.Context(), cmd)
	if err != nil {
		h.log.Warn("create payment failed", logging.OrderID(cmd.OrderID), zap.Error(err))
		appErr := mapGatewayError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.FromPayment(created))
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	p, err := h.router.GetPayment(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		appErr := mapGatewayError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPayment(p))
}

// ProcessPayment authorizes and captures a pending payment. The body is either
// the provider payload itself or {"payment_data": {...}}.
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	paymentID := c.Param("payment_id")
	paymentData, err := readPaymentData(c)
	if err != nil {
		c.JSON(errInvalidPaymentPayload.HTTPStatus, errInvalidPaymentPayload.ToHTTPError())
		return
	}

	p, err := h.router.ProcessPayment(c.Request.Context(), paymentID, paymentData)
	if err != nil {
		h.log.Warn("process payment failed", logging.PaymentID(paymentID), zap.Error(err))
		appErr := mapGatewayError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPayment(p))
}

// RefundPayment refunds part or all of a captured payment.
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	paymentID := c.Param("payment_id")
	var payload request.RefundCreateRequest
	if err := bindOptionalJSON(c, &payload); err != nil {
		c.JSON(errInvalidRefundPayload.HTTPStatus, errInvalidRefundPayload.ToHTTPError())
		return
	}

	result, err := h.router.RefundPayment(c.Request.Context(), usecase.RefundCommand{
		PaymentID:      paymentID,
		Amount:         payload.Amount,
		IdempotencyKey: payload.ResolveIdempotencyKey(c.GetHeader(request.IdempotencyKeyHeader)),
	})
	if err != nil {
		h.log.Warn("refund payment failed", logging.PaymentID(paymentID), zap.Error(err))
		appErr := mapGatewayError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.RefundResultResponse{
		Refund:  response.FromRefund(result.Refund),
		Payment: response.FromPayment(result.Payment),
	})
}

func (h *PaymentHandler) ListRefunds(c *gin.Context) {
	refunds, err := h.router.ListRefunds(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		appErr := mapGatewayError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromRefunds(refunds))
}

// CancelPayment voids a payment that has not been captured yet.
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	paymentID := c.Param("payment_id")
	p, err := h.router.CancelPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.log.Warn("cancel payment failed", logging.PaymentID(paymentID), zap.Error(err))
		appErr := mapGatewayError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPayment(p))
}

// ReconcilePayment asks the provider for the current status and syncs it.
func (h *PaymentHandler) ReconcilePayment(c *gin.Context) {
	paymentID := c.Param("payment_id")
	p, err := h.router.RetrievePaymentStatus(c.Request.Context(), paymentID)
	if err != nil {
		h.log.Warn("reconcile payment failed", logging.PaymentID(paymentID), zap.Error(err))
		appErr := mapGatewayError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPayment(p))
}

func readPaymentData(c *gin.Context) (json.RawMessage, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, errors.New("request body is not valid json")
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if wrapped, ok := envelope["payment_data"]; ok {
			trimmed := strings.TrimSpace(string(wrapped))
			if trimmed == "" || trimmed == "null" {
				return nil, errors.New("payment_data cannot be empty")
			}
			return wrapped, nil
		}
	}

	return json.RawMessage(raw), nil
}

// bindOptionalJSON accepts an empty body as the zero value of dst.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dst)
}
