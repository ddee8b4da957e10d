package routes

import (
	"payment_gateway/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathOrders   = "/orders"
	PathPayments = "/payments"
	PathWebhooks = "/webhooks"
)

func addOrderRoutes(rg *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orders := rg.Group(PathOrders)
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("/:order_id", orderHandler.GetOrder)
		orders.GET("/:order_id/payments", orderHandler.ListOrderPayments)
	}
}

func addPaymentRoutes(rg *gin.RouterGroup, paymentHandler *handlers.PaymentHandler) {
	payments := rg.Group(PathPayments)
	{
		payments.POST("", paymentHandler.CreatePayment)
		payments.GET("/:payment_id", paymentHandler.GetPayment)
		payments.POST("/:payment_id/process", paymentHandler.ProcessPayment)
		payments.POST("/:payment_id/refunds", paymentHandler.RefundPayment)
		payments.GET("/:payment_id/refunds", paymentHandler.ListRefunds)
		payments.POST("/:payment_id/cancel", paymentHandler.CancelPayment)
		payments.POST("/:payment_id/reconcile", paymentHandler.ReconcilePayment)
	}
}

func addWebhookRoutes(rg *gin.RouterGroup, webhookHandler *handlers.WebhookHandler) {
	webhooks := rg.Group(PathWebhooks)
	{
		// Providers post notifications here; the path names the adapter.
		webhooks.POST("/:provider", webhookHandler.ReceiveWebhook)
	}
}
