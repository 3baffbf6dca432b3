package feedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/subject-tracker/internal/domain"
)

func TestCacheGet(t *testing.T) {
	ctx := context.Background()

	t.Run("serves cached value within TTL", func(t *testing.T) {
		fake := clockwork.NewFakeClock()
		domain.SetClock(fake)
		defer domain.SetClock(clockwork.NewRealClock())

		calls := 0
		c := New(time.Minute, func(context.Context) (int, error) {
			calls++
			return calls, nil
		})

		v, err := c.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, v)

		fake.Advance(30 * time.Second)
		v, err = c.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, v)
		assert.Equal(t, 1, calls)
	})

	t.Run("refreshes after TTL", func(t *testing.T) {
		fake := clockwork.NewFakeClock()
		domain.SetClock(fake)
		defer domain.SetClock(clockwork.NewRealClock())

		calls := 0
		c := New(time.Minute, func(context.Context) (int, error) {
			calls++
			return calls, nil
		})

		_, err := c.Get(ctx)
		require.NoError(t, err)
		fake.Advance(61 * time.Second)
		v, err := c.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	t.Run("serves stale value on refresh error", func(t *testing.T) {
		fake := clockwork.NewFakeClock()
		domain.SetClock(fake)
		defer domain.SetClock(clockwork.NewRealClock())

		calls := 0
		c := New(time.Minute, func(context.Context) (string, error) {
			calls++
			if calls > 1 {
				return "", errors.New("upstream down")
			}
			return "fresh", nil
		})

		_, err := c.Get(ctx)
		require.NoError(t, err)
		fake.Advance(2 * time.Minute)
		v, err := c.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fresh", v)
	})

	t.Run("propagates error with nothing cached", func(t *testing.T) {
		c := New(time.Minute, func(context.Context) (int, error) {
			return 0, errors.New("upstream down")
		})
		_, err := c.Get(ctx)
		assert.Error(t, err)
	})

	t.Run("invalidate forces a refetch", func(t *testing.T) {
		calls := 0
		c := New(time.Hour, func(context.Context) (int, error) {
			calls++
			return calls, nil
		})

		_, err := c.Get(ctx)
		require.NoError(t, err)
		c.Invalidate()
		v, err := c.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})
}
