package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics holds the payment gateway Prometheus collectors.
// A nil *GatewayMetrics is valid and records nothing.
type GatewayMetrics struct {
	providerCalls    *prometheus.CounterVec
	providerRetries  *prometheus.CounterVec
	webhookEvents    *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	reconcileBacklog prometheus.Gauge
}

func NewGatewayMetrics(registerer prometheus.Registerer) *GatewayMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &GatewayMetrics{
		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_gateway_provider_calls_total",
				Help: "Provider adapter calls by operation and result.",
			},
			[]string{"provider", "op", "result"}, // ok | rejected | unavailable | timeout
		),
		providerRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_gateway_provider_retries_total",
				Help: "Retries issued after a transient provider failure.",
			},
			[]string{"provider", "op"},
		),
		webhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_gateway_webhook_events_total",
				Help: "Inbound webhook events by outcome.",
			},
			[]string{"provider", "outcome"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_gateway_state_transitions_total",
				Help: "Payment state transitions applied to the ledger.",
			},
			[]string{"from", "to"},
		),
		reconcileBacklog: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "payment_gateway_reconcile_backlog",
				Help: "Payments waiting for a provider status follow-up.",
			},
		),
	}

	registerer.MustRegister(m.providerCalls, m.providerRetries, m.webhookEvents, m.transitions, m.reconcileBacklog)
	return m
}

func (m *GatewayMetrics) ProviderCall(provider, op, result string) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, op, result).Inc()
}

func (m *GatewayMetrics) ProviderRetry(provider, op string) {
	if m == nil {
		return
	}
	m.providerRetries.WithLabelValues(provider, op).Inc()
}

func (m *GatewayMetrics) WebhookEvent(provider, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(provider, outcome).Inc()
}

func (m *GatewayMetrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *GatewayMetrics) ReconcileBacklog(size int) {
	if m == nil {
		return
	}
	m.reconcileBacklog.Set(float64(size))
}
