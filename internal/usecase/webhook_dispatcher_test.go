package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/infrastructure/payments"
	"payment_gateway/internal/usecase/interfaces"
	mock_interfaces "payment_gateway/internal/usecase/interfaces/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func capturedEvent(t *testing.T, g *gateway, id, ref string) interfaces.WebhookRequest {
	t.Helper()
	req, err := g.sandbox.SignedWebhook(payments.SandboxEvent{
		ID:         id,
		Type:       string(entities.WebhookEventPaymentCaptured),
		PaymentRef: ref,
	})
	require.NoError(t, err)
	return req
}

func TestWebhookDispatcher_RedeliveryAppliesOnce(t *testing.T) {
	ctx := context.Background()
	g := newGateway(t)
	p := g.pay(t, 1000, payments.SandboxTokenPending)
	req := capturedEvent(t, g, "evt-1", p.ProviderRef)

	first, err := g.dispatcher.Dispatch(ctx, payments.SandboxName, req)
	require.NoError(t, err)
	require.Equal(t, entities.WebhookOutcomeAccepted, first.Outcome)

	second, err := g.dispatcher.Dispatch(ctx, payments.SandboxName, req)
	require.NoError(t, err)
	require.Equal(t, entities.WebhookOutcomeDuplicate, second.Outcome)

	stored, err := g.router.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, entities.PaymentStateCaptured, stored.State)
	require.Len(t, stored.Transitions, 1)
	require.Equal(t, "webhook:evt-1", stored.Transitions[0].Source)

	logged, err := g.events.Get(ctx, payments.SandboxName, "evt-1")
	require.NoError(t, err)
	require.Equal(t, entities.WebhookOutcomeAccepted, logged.Outcome)
}

func TestWebhookDispatcher_ConcurrentDeliveries(t *testing.T) {
	ctx := context.Background()
	g := newGateway(t)
	p := g.pay(t, 1000, payments.SandboxTokenAuthorize)
	req := capturedEvent(t, g, "evt-c", p.ProviderRef)

	var wg sync.WaitGroup
	outcomes := make([]entities.WebhookOutcome, 6)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			event, err := g.dispatcher.Dispatch(ctx, payments.SandboxName, req)
			if err == nil {
				outcomes[i] = event.Outcome
			}
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, o := range outcomes {
		if o == entities.WebhookOutcomeAccepted {
			accepted++
		}
	}
	require.Equal(t, 1, accepted)

	stored, err := g.router.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Transitions, 2)
}

func TestWebhookDispatcher_WebhookAndSyncResponseAgree(t *testing.T) {
	ctx := context.Background()
	g := newGateway(t)
	p := g.pay(t, 1000, payments.SandboxTokenAuthorize)

	_, err := g.dispatcher.Dispatch(ctx, payments.SandboxName, capturedEvent(t, g, "evt-early", p.ProviderRef))
	require.NoError(t, err)

	// The synchronous capture answer arrives after the webhook already applied it.
	processed, err := g.router.ProcessPayment(ctx, p.ID, nil)
	require.ErrorIs(t, err, entities.ErrInvalidStateTransition)
	require.Equal(t, entities.PaymentStateCaptured, processed.State)
	require.Len(t, processed.Transitions, 2)
}

func TestWebhookDispatcher_InvalidSignatureNeverHandled(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mock_interfaces.NewMockIPaymentProvider(ctrl)
	provider.EXPECT().Name().Return("acme").AnyTimes()
	provider.EXPECT().ValidateWebhook(gomock.Any()).Return(false)

	g := newGateway(t, provider)
	event, err := g.dispatcher.Dispatch(context.Background(), "acme", interfaces.WebhookRequest{Headers: http.Header{}, Body: []byte(`{"id":"evt-x"}`)})
	require.NoError(t, err)
	require.Equal(t, entities.WebhookOutcomeRejected, event.Outcome)
	require.Equal(t, "invalid signature", event.Reason)
	require.Zero(t, g.events.Len())
}

func TestWebhookDispatcher_TamperedBody(t *testing.T) {
	ctx := context.Background()
	g := newGateway(t)
	p := g.pay(t, 1000, payments.SandboxTokenPending)
	req := capturedEvent(t, g, "evt-t", p.ProviderRef)
	req.Body = append(req.Body[:len(req.Body)-1], ' ', '}')

	event, err := g.dispatcher.Dispatch(ctx, payments.SandboxName, req)
	require.NoError(t, err)
	require.Equal(t, entities.WebhookOutcomeRejected, event.Outcome)

	stored, err := g.router.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, entities.PaymentStatePending, stored.State)
}

func TestWebhookDispatcher_Outcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown provider", func(t *testing.T) {
		g := newGateway(t)
		_, err := g.dispatcher.Dispatch(ctx, "stripe", interfaces.WebhookRequest{})
		require.ErrorIs(t, err, entities.ErrUnknownProvider)
	})

	t.Run("unknown event type is acknowledged", func(t *testing.T) {
		g := newGateway(t)
		req, err := g.sandbox.SignedWebhook(payments.SandboxEvent{ID: "evt-u", Type: "payment.disputed", PaymentRef: "sbx_1"})
		require.NoError(t, err)

		event, err := g.dispatcher.Dispatch(ctx, payments.SandboxName, req)
		require.NoError(t, err)
		require.Equal(t, entities.WebhookOutcomeRejected, event.Outcome)
		require.Contains(t, event.Reason, "unknown event type")
	})

	t.Run("transition not allowed is acknowledged", func(t *testing.T) {
		g := newGateway(t)
		p := g.pay(t, 1000, payments.SandboxTokenApprove)
		req, err := g.sandbox.SignedWebhook(payments.SandboxEvent{ID: "evt-late-cancel", Type: string(entities.WebhookEventPaymentCancelled), PaymentRef: p.ProviderRef})
		require.NoError(t, err)

		event, err := g.dispatcher.Dispatch(ctx, payments.SandboxName, req)
		require.NoError(t, err)
		require.Equal(t, entities.WebhookOutcomeRejected, event.Outcome)
	})

	t.Run("failure after a partial refund is applied", func(t *testing.T) {
		g := newGateway(t)
		p := g.pay(t, 1000, payments.SandboxTokenApprove)
		_, err := g.router.RefundPayment(ctx, RefundCommand{PaymentID: p.ID, Amount: amount(400)})
		require.NoError(t, err)
		req, err := g.sandbox.SignedWebhook(payments.SandboxEvent{ID: "evt-fail", Type: string(entities.WebhookEventPaymentFailed), PaymentRef: p.ProviderRef})
		require.NoError(t, err)

		event, err := g.dispatcher.Dispatch(ctx, payments.SandboxName, req)
		require.NoError(t, err)
		require.Equal(t, entities.WebhookOutcomeAccepted, event.Outcome)

		stored, err := g.router.GetPayment(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, entities.PaymentStateFailed, stored.State)
		require.EqualValues(t, 400, stored.RefundedAmount)
	})

	t.Run("unknown payment is retried on redelivery", func(t *testing.T) {
		g := newGateway(t)
		req := capturedEvent(t, g, "evt-early", "sbx_not_yet")

		_, err := g.dispatcher.Dispatch(ctx, payments.SandboxName, req)
		require.ErrorIs(t, err, entities.ErrPaymentNotFound)

		p := g.pay(t, 1000, payments.SandboxTokenPending)
		redelivered := capturedEvent(t, g, "evt-early", p.ProviderRef)
		event, err := g.dispatcher.Dispatch(ctx, payments.SandboxName, redelivered)
		require.NoError(t, err)
		require.Equal(t, entities.WebhookOutcomeAccepted, event.Outcome)
	})
}

func TestWebhookDispatcher_HandlerErrorsAreClassified(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		outcome entities.WebhookOutcome
		wantErr bool
	}{
		{"duplicate", entities.ErrDuplicateEvent, entities.WebhookOutcomeDuplicate, false},
		{"validation", entities.ErrValidation, entities.WebhookOutcomeRejected, false},
		{"transient", errors.New("provider api down"), entities.WebhookOutcomeRejected, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			provider := mock_interfaces.NewMockIPaymentProvider(ctrl)
			provider.EXPECT().Name().Return("acme").AnyTimes()
			provider.EXPECT().ValidateWebhook(gomock.Any()).Return(true)
			provider.EXPECT().HandleWebhook(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(entities.WebhookEvent{ID: "evt-1"}, tc.err)

			g := newGateway(t, provider)
			event, err := g.dispatcher.Dispatch(context.Background(), "acme", interfaces.WebhookRequest{Body: []byte(`{}`)})
			require.Equal(t, tc.outcome, event.Outcome)
			require.Equal(t, tc.wantErr, err != nil)
		})
	}
}

func TestWebhookDispatcher_PurgeExpired(t *testing.T) {
	g := newGateway(t)
	require.Zero(t, g.dispatcher.PurgeExpired())
}
