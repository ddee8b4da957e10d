package entities

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func capturedPayment(t *testing.T, amount int64) Payment {
	t.Helper()
	p := Payment{
		ID:     "pay-1",
		Amount: Money{Amount: amount, Currency: "BRL"},
		State:  PaymentStatePending,
	}
	require.NoError(t, p.Capture(0, "test", time.Now()))
	return p
}

func TestPayment_TransitionRecordsLedger(t *testing.T) {
	p := Payment{ID: "pay-1", Amount: Money{Amount: 100, Currency: "BRL"}, State: PaymentStatePending}
	now := time.Now()

	require.NoError(t, p.Transition(PaymentStateAuthorized, "provider", now))
	require.NoError(t, p.Capture(0, "provider", now))

	require.Equal(t, PaymentStateCaptured, p.State)
	require.EqualValues(t, 100, p.CapturedAmount)
	require.Len(t, p.Transitions, 2)
	require.Equal(t, PaymentStatePending, p.Transitions[0].From)
	require.Equal(t, PaymentStateCaptured, p.Transitions[1].To)

	err := p.Transition(PaymentStatePending, "provider", now)
	require.ErrorIs(t, err, ErrInvalidStateTransition)
	require.Equal(t, PaymentStateCaptured, p.State)
}

func TestPayment_CaptureRejectsOverAmount(t *testing.T) {
	p := Payment{Amount: Money{Amount: 100, Currency: "BRL"}, State: PaymentStatePending}
	require.ErrorIs(t, p.Capture(101, "test", time.Now()), ErrValidation)
	require.Equal(t, PaymentStatePending, p.State)
}

func TestPayment_RefundScenario(t *testing.T) {
	p := capturedPayment(t, 1000)
	now := time.Now()

	require.NoError(t, p.ReserveRefund(400))
	require.NoError(t, p.SettleRefund(400, "test", now))
	require.Equal(t, PaymentStatePartiallyRefunded, p.State)
	require.EqualValues(t, 600, p.RefundableAmount())

	err := p.ReserveRefund(700)
	require.ErrorIs(t, err, ErrInvalidRefundAmount)
	require.Equal(t, PaymentStatePartiallyRefunded, p.State)
	require.EqualValues(t, 600, p.RefundableAmount())

	require.NoError(t, p.ReserveRefund(600))
	require.NoError(t, p.SettleRefund(600, "test", now))
	require.Equal(t, PaymentStateRefunded, p.State)
	require.EqualValues(t, 0, p.RefundableAmount())
}

func TestPayment_PartiallyRefundedCanFail(t *testing.T) {
	p := capturedPayment(t, 1000)
	now := time.Now()
	require.NoError(t, p.ReserveRefund(400))
	require.NoError(t, p.SettleRefund(400, "test", now))

	require.NoError(t, p.ReserveRefund(100))
	require.ErrorIs(t, p.Transition(PaymentStateFailed, "webhook", now), ErrInvalidStateTransition)
	require.Equal(t, PaymentStatePartiallyRefunded, p.State)

	p.ReleaseRefund(100)
	require.NoError(t, p.Transition(PaymentStateFailed, "webhook", now))
	require.Equal(t, PaymentStateFailed, p.State)
	require.EqualValues(t, 400, p.RefundedAmount)
	require.ErrorIs(t, p.ReserveRefund(100), ErrInvalidStateTransition)
}

func TestPayment_ReserveRefundRequiresCapture(t *testing.T) {
	p := Payment{Amount: Money{Amount: 100, Currency: "BRL"}, State: PaymentStateAuthorized}
	require.ErrorIs(t, p.ReserveRefund(10), ErrInvalidStateTransition)
}

func TestPayment_RefundInvariantHoldsForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 500; run++ {
		captured := int64(1 + rng.Intn(5000))
		p := capturedPayment(t, captured)
		var settled int64

		for step := 0; step < 30; step++ {
			amount := int64(rng.Intn(int(captured))) + 1
			err := p.ReserveRefund(amount)
			if err != nil {
				require.True(t, errors.Is(err, ErrInvalidRefundAmount) || errors.Is(err, ErrInvalidStateTransition))
				continue
			}

			switch rng.Intn(3) {
			case 0:
				p.ReleaseRefund(amount)
			default:
				require.NoError(t, p.SettleRefund(amount, "test", time.Now()))
				settled += amount
			}

			require.NoError(t, p.CheckInvariants())
			require.LessOrEqual(t, settled, p.CapturedAmount)
			require.Equal(t, settled, p.RefundedAmount)
		}
	}
}

func TestPayment_CloneDoesNotShareLedger(t *testing.T) {
	p := capturedPayment(t, 10)
	c := p.Clone()
	c.Transitions[0].Source = "changed"
	require.Equal(t, "test", p.Transitions[0].Source)
}

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(1000, " brl ")
	require.NoError(t, err)
	require.Equal(t, Money{Amount: 1000, Currency: "BRL"}, m)

	_, err = NewMoney(-1, "BRL")
	require.ErrorIs(t, err, ErrValidation)

	_, err = NewMoney(1, "REAL")
	require.ErrorIs(t, err, ErrValidation)
}

func TestProviderError_MatchesKindAndCause(t *testing.T) {
	cause := errors.New("timeout")
	err := NewProviderError("sandbox", "create", ErrProviderUnavailable, cause)

	require.ErrorIs(t, err, ErrProviderUnavailable)
	require.ErrorIs(t, err, cause)
	require.True(t, IsRetryable(err))
	require.False(t, IsRetryable(NewProviderError("sandbox", "create", ErrInsufficientFunds, nil)))
	require.True(t, IsRejection(NewProviderError("sandbox", "process", ErrInsufficientFunds, nil)))
}
