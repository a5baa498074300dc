package scrape_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/reelscrape/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainLimiter(t *testing.T) {
	t.Parallel()

	t.Run("allows immediate request when under limit", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(10, 1)

		start := time.Now()
		err := limiter.Wait(context.Background(), "films.example")

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("rate limits requests to same domain", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(10, 1)

		require.NoError(t, limiter.Wait(context.Background(), "films.example"))

		start := time.Now()
		err := limiter.Wait(context.Background(), "films.example")

		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	})

	t.Run("burst admits several requests at once", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(1, 3)

		start := time.Now()
		for range 3 {
			require.NoError(t, limiter.Wait(context.Background(), "films.example"))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("different domains have independent limits", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(10, 1)

		require.NoError(t, limiter.Wait(context.Background(), "films.example"))

		start := time.Now()
		err := limiter.Wait(context.Background(), "cdn.example")

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("zero rate disables limiting", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(0, 0)

		start := time.Now()
		for range 20 {
			require.NoError(t, limiter.Wait(context.Background(), "films.example"))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(1, 1)
		require.NoError(t, limiter.Wait(context.Background(), "films.example"))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := limiter.Wait(ctx, "films.example")
		require.Error(t, err)
	})

	t.Run("is safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(1000, 1)

		var wg sync.WaitGroup
		var successCount atomic.Int32
		for i := range 10 {
			wg.Add(1)
			go func(domain string) {
				defer wg.Done()
				if err := limiter.Wait(context.Background(), domain); err == nil {
					successCount.Add(1)
				}
			}([]string{"a.example", "b.example"}[i%2])
		}
		wg.Wait()

		assert.Equal(t, int32(10), successCount.Load())
	})
}
