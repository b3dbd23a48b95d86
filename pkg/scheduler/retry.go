package scheduler

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy decides how many times a failed task is re-attempted and
// how long to wait between attempts. The zero value retries nothing.
type RetryPolicy struct {
	MaxRetries  int
	BaseBackoff time.Duration
	// MaxBackoff caps the exponential growth; zero means no cap.
	MaxBackoff time.Duration
	// rand is only swapped out by tests that need deterministic jitter.
	rand *rand.Rand
}

// Backoff returns the delay before the given retry (1-based): the base
// doubled per retry, plus up to 50% jitter so sibling retries do not
// thunder together.
func (p RetryPolicy) Backoff(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	d := p.BaseBackoff << uint(retry-1)
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	jitter := time.Duration(0)
	if d > 0 {
		if p.rand != nil {
			jitter = time.Duration(p.rand.Int63n(int64(d)/2 + 1))
		} else {
			jitter = time.Duration(rand.Int63n(int64(d)/2 + 1))
		}
	}
	return d + jitter
}

// Wait sleeps for the backoff of the given retry, returning early with
// the context's error if it is cancelled first.
func (p RetryPolicy) Wait(ctx context.Context, retry int) error {
	d := p.Backoff(retry)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
