package rfm69

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the initialization handshake: attempts are repeated every Interval
// until one succeeds or Budget has elapsed since the first attempt.
type RetryPolicy struct {
	Budget   time.Duration
	Interval time.Duration
}

// DefaultRetryPolicy matches the firmware boot time of common bridge boards.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Budget:   10 * time.Second,
		Interval: 100 * time.Millisecond,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.Budget <= 0 {
		p.Budget = def.Budget
	}
	if p.Interval <= 0 {
		p.Interval = def.Interval
	}
	return p
}

var errAttemptFailed = errors.New("attempt failed")

// Do calls attempt until it reports success or the budget runs out.
// It returns false once the budget is exhausted and never before.
func (p RetryPolicy) Do(ctx context.Context, attempt func() bool) (bool, error) {
	p = p.normalized()
	b := &budgetBackOff{interval: p.Interval, budget: p.Budget}
	err := backoff.Retry(func() error {
		if attempt() {
			return nil
		}
		return errAttemptFailed
	}, backoff.WithContext(b, ctx))

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errAttemptFailed):
		return false, nil
	default:
		return false, err
	}
}

// budgetBackOff waits a constant interval, shortened to whatever is left of the budget,
// and stops only once the budget has fully elapsed.
// backoff.ExponentialBackOff with MaxElapsedTime gives up as soon as the next wait would
// cross the budget, which can be one interval early.
type budgetBackOff struct {
	interval time.Duration
	budget   time.Duration
	start    time.Time
}

func (b *budgetBackOff) Reset() {
	b.start = time.Now()
}

func (b *budgetBackOff) NextBackOff() time.Duration {
	remaining := b.budget - time.Since(b.start)
	if remaining <= 0 {
		return backoff.Stop
	}
	return min(b.interval, remaining)
}
