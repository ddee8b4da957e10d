package usecase

import (
	"context"
	"testing"
	"time"

	"payment_gateway/internal/adapter/persistence/memory"
	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/infrastructure/config"
	"payment_gateway/internal/infrastructure/metrics"
	"payment_gateway/internal/infrastructure/payments"
	"payment_gateway/internal/usecase/interfaces"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "test-secret"

// gateway wires the use cases over in-memory storage and the sandbox provider.
type gateway struct {
	orders     *memory.OrderRepository
	payments   *memory.PaymentRepository
	refunds    *memory.RefundRepository
	events     *memory.WebhookEventRepository
	metrics    *metrics.GatewayMetrics
	machine    *PaymentStateMachine
	orderUC    *OrderUseCase
	router     *GatewayRouter
	dispatcher *WebhookDispatcher
	worker     *ReconciliationWorker
	sandbox    *payments.SandboxProvider
}

func newGateway(t *testing.T, extra ...interfaces.IPaymentProvider) *gateway {
	t.Helper()
	g := &gateway{
		orders:   memory.NewOrderRepository(),
		payments: memory.NewPaymentRepository(),
		refunds:  memory.NewRefundRepository(),
		events:   memory.NewWebhookEventRepository(),
		metrics:  metrics.NewGatewayMetrics(prometheus.NewRegistry()),
		sandbox:  payments.NewSandboxProvider(testWebhookSecret, nil),
	}
	providers := append([]interfaces.IPaymentProvider{g.sandbox}, extra...)
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}

	g.machine = NewPaymentStateMachine(g.payments, g.metrics, nil)
	g.orderUC = NewOrderUseCase(g.orders, names, nil)
	g.machine.OnTransition(g.orderUC.HandlePaymentTransition)
	g.worker = NewReconciliationWorker(ReconciliationWorkerParams{
		Config:  config.ReconcileConfig{PollInterval: time.Millisecond, MaxAttempts: 3, BaseDelay: time.Second},
		Metrics: g.metrics,
	})
	g.router = NewGatewayRouter(GatewayRouterParams{
		Providers:  providers,
		Orders:     g.orders,
		Payments:   g.payments,
		Refunds:    g.refunds,
		Machine:    g.machine,
		Reconciler: g.worker,
		Retry: config.RetryConfig{
			CallTimeout:    50 * time.Millisecond,
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     time.Millisecond,
		},
		Metrics: g.metrics,
	})
	g.router.sleep = func(context.Context, time.Duration) error { return nil }
	g.dispatcher = NewWebhookDispatcher(WebhookDispatcherParams{
		Providers: providers,
		Payments:  g.payments,
		Refunds:   g.refunds,
		Events:    g.events,
		Machine:   g.machine,
		Metrics:   g.metrics,
	})
	return g
}

func (g *gateway) order(t *testing.T, provider string, amount int64) entities.Order {
	t.Helper()
	o, err := g.orderUC.CreateOrder(context.Background(), entities.Money{Amount: amount, Currency: "BRL"}, provider)
	require.NoError(t, err)
	return o
}

func (g *gateway) pay(t *testing.T, amount int64, token string) entities.Payment {
	t.Helper()
	o := g.order(t, payments.SandboxName, amount)
	p, err := g.router.CreatePayment(context.Background(), CreatePaymentCommand{
		OrderID:     o.ID,
		PaymentData: tokenData(token),
	})
	require.NoError(t, err)
	return p
}

func tokenData(token string) []byte {
	return []byte(`{"token":"` + token + `"}`)
}

func amount(v int64) *int64 { return &v }
