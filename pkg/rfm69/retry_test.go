package rfm69

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicySucceeds(t *testing.T) {
	policy := RetryPolicy{Budget: time.Second, Interval: time.Millisecond}
	calls := 0
	ok, err := policy.Do(context.Background(), func() bool {
		calls++
		return calls == 3
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, calls)
}

func TestRetryPolicyExhaustsBudget(t *testing.T) {
	policy := RetryPolicy{Budget: 30 * time.Millisecond, Interval: 4 * time.Millisecond}
	start := time.Now()
	ok, err := policy.Do(context.Background(), func() bool { return false })
	require.NoError(t, err)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), policy.Budget)
}

func TestRetryPolicyDefaults(t *testing.T) {
	require.Equal(t, DefaultRetryPolicy(), RetryPolicy{}.normalized())
}

func TestRetryPolicyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{Budget: time.Minute, Interval: time.Millisecond}
	calls := 0
	_, err := policy.Do(ctx, func() bool {
		calls++
		if calls == 2 {
			cancel()
		}
		return false
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRetryPolicyLastAttemptAfterBudget(t *testing.T) {
	// interval longer than the budget: the second attempt lands exactly on the budget
	policy := RetryPolicy{Budget: 20 * time.Millisecond, Interval: time.Second}
	start := time.Now()
	var attempts []time.Duration
	ok, err := policy.Do(context.Background(), func() bool {
		attempts = append(attempts, time.Since(start))
		return false
	})
	require.NoError(t, err)
	require.False(t, ok)
	require.Len(t, attempts, 2)
	require.GreaterOrEqual(t, attempts[1], policy.Budget)
	require.Less(t, time.Since(start), policy.Interval)
}

func TestBudgetBackOffStops(t *testing.T) {
	b := &budgetBackOff{interval: 5 * time.Millisecond, budget: time.Hour}
	b.Reset()
	require.Equal(t, 5*time.Millisecond, b.NextBackOff())

	b.start = time.Now().Add(-2 * time.Hour)
	require.Equal(t, backoff.Stop, b.NextBackOff())
}
