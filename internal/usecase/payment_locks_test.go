package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyedLocks(t *testing.T) {
	t.Run("entries are dropped after unlock", func(t *testing.T) {
		l := newKeyedLocks()
		unlockA, err := l.Lock(context.Background(), "a")
		require.NoError(t, err)
		unlockB, err := l.Lock(context.Background(), "b")
		require.NoError(t, err)
		require.Equal(t, 2, l.size())

		unlockA()
		unlockA()
		unlockB()
		require.Zero(t, l.size())
	})

	t.Run("try lock does not wait", func(t *testing.T) {
		l := newKeyedLocks()
		unlock, ok := l.TryLock("a")
		require.True(t, ok)

		_, ok = l.TryLock("a")
		require.False(t, ok)
		_, ok = l.TryLock("b")
		require.True(t, ok)

		unlock()
		_, ok = l.TryLock("a")
		require.True(t, ok)
	})

	t.Run("lock gives up when the context ends", func(t *testing.T) {
		l := newKeyedLocks()
		unlock, err := l.Lock(context.Background(), "a")
		require.NoError(t, err)
		defer unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = l.Lock(ctx, "a")
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Equal(t, 1, l.size())
	})

	t.Run("holders are serialised", func(t *testing.T) {
		l := newKeyedLocks()
		var (
			wg      sync.WaitGroup
			counter int
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := l.Lock(context.Background(), "shared")
				if err != nil {
					return
				}
				counter++
				unlock()
			}()
		}
		wg.Wait()
		require.Equal(t, 50, counter)
		require.Zero(t, l.size())
	})
}
