package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGatewayMetrics_Counters(t *testing.T) {
	m := NewGatewayMetrics(prometheus.NewRegistry())

	m.ProviderCall("sandbox", "create", "ok")
	m.ProviderCall("sandbox", "create", "ok")
	m.ProviderRetry("sandbox", "create")
	m.WebhookEvent("sandbox", "duplicate")
	m.Transition("pending", "captured")
	m.ReconcileBacklog(3)

	if got := testutil.ToFloat64(m.providerCalls.WithLabelValues("sandbox", "create", "ok")); got != 2 {
		t.Fatalf("expected 2 provider calls, got %v", got)
	}
	if got := testutil.ToFloat64(m.providerRetries.WithLabelValues("sandbox", "create")); got != 1 {
		t.Fatalf("expected 1 retry, got %v", got)
	}
	if got := testutil.ToFloat64(m.webhookEvents.WithLabelValues("sandbox", "duplicate")); got != 1 {
		t.Fatalf("expected 1 duplicate webhook, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("pending", "captured")); got != 1 {
		t.Fatalf("expected 1 transition, got %v", got)
	}
	if got := testutil.ToFloat64(m.reconcileBacklog); got != 3 {
		t.Fatalf("expected backlog 3, got %v", got)
	}
}

func TestGatewayMetrics_NilIsNoop(t *testing.T) {
	var m *GatewayMetrics
	m.ProviderCall("sandbox", "create", "ok")
	m.ProviderRetry("sandbox", "create")
	m.WebhookEvent("sandbox", "accepted")
	m.Transition("pending", "captured")
	m.ReconcileBacklog(1)
}
