package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"payment_gateway/internal/adapter/persistence/memory"
	"payment_gateway/internal/domain/entities"
	mock_interfaces "payment_gateway/internal/usecase/interfaces/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func openPayment(t *testing.T, m *PaymentStateMachine, id string) entities.Payment {
	t.Helper()
	p, err := m.Open(context.Background(), entities.Payment{
		ID:       id,
		OrderID:  "ord-1",
		Provider: "sandbox",
		Amount:   entities.Money{Amount: 1000, Currency: "BRL"},
	})
	require.NoError(t, err)
	return p
}

// conflictingRepo fails the first n updates with a version conflict.
type conflictingRepo struct {
	*memory.PaymentRepository
	conflicts int
}

func (r *conflictingRepo) Update(ctx context.Context, p entities.Payment) (entities.Payment, error) {
	if r.conflicts > 0 {
		r.conflicts--
		return entities.Payment{}, entities.ErrVersionConflict
	}
	return r.PaymentRepository.Update(ctx, p)
}

func TestPaymentStateMachine_Open(t *testing.T) {
	m := NewPaymentStateMachine(memory.NewPaymentRepository(), nil, nil)
	p, err := m.Open(context.Background(), entities.Payment{
		ID:          "pay-1",
		State:       entities.PaymentStateCaptured,
		Transitions: []entities.StateTransition{{To: entities.PaymentStateCaptured}},
		Amount:      entities.Money{Amount: 10, Currency: "BRL"},
	})
	require.NoError(t, err)
	require.Equal(t, entities.PaymentStatePending, p.State)
	require.Empty(t, p.Transitions)
	require.False(t, p.CreatedAt.IsZero())
}

func TestPaymentStateMachine_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("records transitions and runs hooks", func(t *testing.T) {
		m := NewPaymentStateMachine(memory.NewPaymentRepository(), nil, nil)
		var seen []entities.StateTransition
		m.OnTransition(func(_ context.Context, _ entities.Payment, tr entities.StateTransition) {
			seen = append(seen, tr)
		})
		p := openPayment(t, m, "pay-1")

		saved, err := m.Apply(ctx, p.ID, advanceTo(entities.PaymentStateCaptured, 0, "test", time.Now()))
		require.NoError(t, err)
		require.Equal(t, entities.PaymentStateCaptured, saved.State)
		require.EqualValues(t, 1, saved.Version)
		require.Len(t, seen, 1)
		require.Equal(t, entities.PaymentStatePending, seen[0].From)

		again, err := m.Apply(ctx, p.ID, advanceTo(entities.PaymentStateCaptured, 0, "test", time.Now()))
		require.NoError(t, err)
		require.EqualValues(t, 1, again.Version)
		require.Len(t, seen, 1)
	})

	t.Run("illegal transition leaves the payment untouched", func(t *testing.T) {
		m := NewPaymentStateMachine(memory.NewPaymentRepository(), nil, nil)
		p := openPayment(t, m, "pay-1")
		_, err := m.Apply(ctx, p.ID, advanceTo(entities.PaymentStateRefunded, 0, "test", time.Now()))
		require.ErrorIs(t, err, entities.ErrInvalidStateTransition)

		current, err := m.Apply(ctx, p.ID, func(*entities.Payment) (bool, error) { return false, nil })
		require.NoError(t, err)
		require.Equal(t, entities.PaymentStatePending, current.State)
		require.Zero(t, current.Version)
	})

	t.Run("invariant violations are refused", func(t *testing.T) {
		m := NewPaymentStateMachine(memory.NewPaymentRepository(), nil, nil)
		p := openPayment(t, m, "pay-1")
		_, err := m.Apply(ctx, p.ID, func(p *entities.Payment) (bool, error) {
			p.RefundedAmount = 50
			return true, nil
		})
		require.ErrorIs(t, err, entities.ErrInvalidStateTransition)
	})

	t.Run("version conflicts are retried", func(t *testing.T) {
		repo := &conflictingRepo{PaymentRepository: memory.NewPaymentRepository(), conflicts: 2}
		m := NewPaymentStateMachine(repo, nil, nil)
		p := openPayment(t, m, "pay-1")

		saved, err := m.Apply(ctx, p.ID, advanceTo(entities.PaymentStateAuthorized, 0, "test", time.Now()))
		require.NoError(t, err)
		require.Equal(t, entities.PaymentStateAuthorized, saved.State)
	})

	t.Run("persistent conflicts give up", func(t *testing.T) {
		repo := &conflictingRepo{PaymentRepository: memory.NewPaymentRepository(), conflicts: 100}
		m := NewPaymentStateMachine(repo, nil, nil)
		p := openPayment(t, m, "pay-1")

		_, err := m.Apply(ctx, p.ID, advanceTo(entities.PaymentStateAuthorized, 0, "test", time.Now()))
		require.ErrorIs(t, err, entities.ErrVersionConflict)
	})

	t.Run("missing payment", func(t *testing.T) {
		m := NewPaymentStateMachine(memory.NewPaymentRepository(), nil, nil)
		_, err := m.Apply(ctx, "missing", advanceTo(entities.PaymentStateAuthorized, 0, "test", time.Now()))
		require.ErrorIs(t, err, entities.ErrPaymentNotFound)
	})

	t.Run("repository errors are returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_interfaces.NewMockIPaymentRepository(ctrl)
		repo.EXPECT().GetByID(gomock.Any(), "pay-1").Return(entities.Payment{}, errors.New("db"))

		m := NewPaymentStateMachine(repo, nil, nil)
		_, err := m.Apply(ctx, "pay-1", advanceTo(entities.PaymentStateAuthorized, 0, "test", time.Now()))
		require.EqualError(t, err, "db")
	})
}

func TestPaymentStateMachine_TryApply(t *testing.T) {
	ctx := context.Background()
	m := NewPaymentStateMachine(memory.NewPaymentRepository(), nil, nil)
	p := openPayment(t, m, "pay-1")

	unlock, err := m.locks.Lock(ctx, p.ID)
	require.NoError(t, err)
	_, err = m.TryApply(ctx, p.ID, advanceTo(entities.PaymentStateCancelled, 0, "test", time.Now()))
	require.ErrorIs(t, err, entities.ErrInvalidStateTransition)
	unlock()

	saved, err := m.TryApply(ctx, p.ID, advanceTo(entities.PaymentStateCancelled, 0, "test", time.Now()))
	require.NoError(t, err)
	require.Equal(t, entities.PaymentStateCancelled, saved.State)
}

func TestPaymentStateMachine_ApplyWaitsForContext(t *testing.T) {
	m := NewPaymentStateMachine(memory.NewPaymentRepository(), nil, nil)
	p := openPayment(t, m, "pay-1")

	unlock, err := m.locks.Lock(context.Background(), p.ID)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Apply(ctx, p.ID, advanceTo(entities.PaymentStateAuthorized, 0, "test", time.Now()))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSyncToProvider(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name    string
		current entities.PaymentState
		target  entities.PaymentState
		changed bool
		want    entities.PaymentState
	}{
		{"forward", entities.PaymentStatePending, entities.PaymentStateCaptured, true, entities.PaymentStateCaptured},
		{"stale view", entities.PaymentStateCaptured, entities.PaymentStateAuthorized, false, entities.PaymentStateCaptured},
		{"refund states belong to refunds", entities.PaymentStateCaptured, entities.PaymentStateRefunded, false, entities.PaymentStateCaptured},
		{"same state", entities.PaymentStateAuthorized, entities.PaymentStateAuthorized, false, entities.PaymentStateAuthorized},
		{"empty target", entities.PaymentStatePending, "", false, entities.PaymentStatePending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := entities.Payment{State: tc.current, Amount: entities.Money{Amount: 100, Currency: "BRL"}}
			changed, err := syncToProvider(tc.target, 0, "reconcile", now)(&p)
			require.NoError(t, err)
			require.Equal(t, tc.changed, changed)
			require.Equal(t, tc.want, p.State)
		})
	}
}

func TestWithProviderRef(t *testing.T) {
	p := entities.Payment{State: entities.PaymentStatePending}
	changed, err := withProviderRef("ref-1", advanceTo(entities.PaymentStatePending, 0, "test", time.Now()))(&p)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, "ref-1", p.ProviderRef)

	changed, err = withProviderRef("ref-2", advanceTo(entities.PaymentStatePending, 0, "test", time.Now()))(&p)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, "ref-1", p.ProviderRef)
}
