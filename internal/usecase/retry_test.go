package usecase

import (
	"context"
	"testing"
	"time"

	"payment_gateway/internal/infrastructure/config"
	"payment_gateway/internal/infrastructure/payments"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNextBackoff(t *testing.T) {
	cfg := config.RetryConfig{MaxBackoff: time.Second, Multiplier: 2}

	require.Equal(t, 400*time.Millisecond, nextBackoff(cfg, 200*time.Millisecond))
	require.Equal(t, time.Second, nextBackoff(cfg, 800*time.Millisecond))
	require.Equal(t, time.Second, nextBackoff(cfg, time.Second))
	require.Equal(t, time.Second, nextBackoff(cfg, 0))
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestCallProvider_LogsFailuresWithPaymentAndProvider(t *testing.T) {
	g := newGateway(t)
	core, logs := observer.New(zap.WarnLevel)
	g.router.log = zap.New(core)
	g.sandbox.FailNext(payments.SandboxOpCreate, 1)

	p := g.pay(t, 1000, payments.SandboxTokenApprove)

	retried := logs.FilterMessage("provider unavailable, retrying").All()
	require.Len(t, retried, 1)
	fields := retried[0].ContextMap()
	require.Equal(t, p.ID, fields["payment_id"])
	require.Equal(t, payments.SandboxName, fields["provider"])
	require.Equal(t, "create", fields["op"])
}
