package routes

import (
	"context"
	"fmt"
	"net/http"

	"payment_gateway/internal/adapter/http/handlers"
	"payment_gateway/internal/adapter/persistence/memory"
	"payment_gateway/internal/adapter/persistence/repository"
	"payment_gateway/internal/infrastructure/config"
	"payment_gateway/internal/infrastructure/database"
	"payment_gateway/internal/infrastructure/metrics"
	"payment_gateway/internal/infrastructure/payments"
	"payment_gateway/internal/usecase"
	"payment_gateway/internal/usecase/interfaces"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type stores struct {
	orders   interfaces.IOrderRepository
	payments interfaces.IPaymentRepository
	refunds  interfaces.IRefundRepository
	events   interfaces.IWebhookEventRepository
}

// application holds the wired service graph served by the HTTP layer.
type application struct {
	router     *usecase.GatewayRouter
	dispatcher *usecase.WebhookDispatcher
	worker     *usecase.ReconciliationWorker
	sandbox    *payments.SandboxProvider

	orderHandler   *handlers.OrderHandler
	paymentHandler *handlers.PaymentHandler
	webhookHandler *handlers.WebhookHandler
	metricsHandler http.Handler
}

func newStores(ctx context.Context, cfg config.Config) (stores, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return stores{
			orders:   memory.NewOrderRepository(),
			payments: memory.NewPaymentRepository(),
			refunds:  memory.NewRefundRepository(),
			events:   memory.NewWebhookEventRepository(),
		}, nil
	case config.StorageDynamoDB:
		ddb, err := database.ConnectDynamoDB(ctx)
		if err != nil {
			return stores{}, err
		}
		return stores{
			orders:   repository.NewOrderDynamoRepository(ddb),
			payments: repository.NewPaymentDynamoRepository(ddb),
			refunds:  repository.NewRefundDynamoRepository(ddb),
			events:   repository.NewWebhookEventDynamoRepository(ddb),
		}, nil
	default:
		return stores{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

// newProviders always registers the sandbox. Mercado Pago is registered when
// it has credentials or runs in mock mode.
func newProviders(cfg config.Config, log *zap.Logger) (*payments.SandboxProvider, []interfaces.IPaymentProvider) {
	sandbox := payments.NewSandboxProvider(cfg.SandboxWebhookSecret, log)
	providers := []interfaces.IPaymentProvider{sandbox}

	mp, err := payments.NewMercadoPagoProvider(payments.MercadoPagoConfig{
		AccessToken:    cfg.MercadoPagoAccessToken,
		WebhookSecret:  cfg.MercadoPagoWebhookSecret,
		TestPayerEmail: cfg.MercadoPagoTestPayerEmail,
		Mock:           cfg.MockMode,
	}, log)
	if err != nil {
		log.Warn("mercado pago provider not configured", zap.Error(err))
		return sandbox, providers
	}
	return sandbox, append(providers, mp)
}

func newApplication(ctx context.Context, cfg config.Config, log *zap.Logger) (*application, error) {
	st, err := newStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sandbox, providers := newProviders(cfg, log)
	return buildApplication(cfg, st, sandbox, providers, log), nil
}

func buildApplication(cfg config.Config, st stores, sandbox *payments.SandboxProvider, providers []interfaces.IPaymentProvider, log *zap.Logger) *application {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewGatewayMetrics(registry)

	machine := usecase.NewPaymentStateMachine(st.payments, m, log)

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	orders := usecase.NewOrderUseCase(st.orders, names, log)
	machine.OnTransition(orders.HandlePaymentTransition)

	dispatcher := usecase.NewWebhookDispatcher(usecase.WebhookDispatcherParams{
		Providers: providers,
		Payments:  st.payments,
		Refunds:   st.refunds,
		Events:    st.events,
		Machine:   machine,
		Retention: cfg.Webhook.DedupRetention,
		Metrics:   m,
		Log:       log,
	})
	worker := usecase.NewReconciliationWorker(usecase.ReconciliationWorkerParams{
		Config:  cfg.Reconcile,
		Metrics: m,
		Log:     log,
		Sweep:   dispatcher.PurgeExpired,
	})
	router := usecase.NewGatewayRouter(usecase.GatewayRouterParams{
		Providers:  providers,
		Orders:     st.orders,
		Payments:   st.payments,
		Refunds:    st.refunds,
		Machine:    machine,
		Reconciler: worker,
		Retry:      cfg.Retry,
		Metrics:    m,
		Log:        log,
	})

	return &application{
		router:         router,
		dispatcher:     dispatcher,
		worker:         worker,
		sandbox:        sandbox,
		orderHandler:   handlers.NewOrderHandler(orders, router, log),
		paymentHandler: handlers.NewPaymentHandler(router, log),
		webhookHandler: handlers.NewWebhookHandler(dispatcher, log),
		metricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}
}
