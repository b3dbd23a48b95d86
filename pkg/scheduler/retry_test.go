package scheduler

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_BackoffGrowsExponentially(t *testing.T) {
	p := RetryPolicy{
		BaseBackoff: 100 * time.Millisecond,
		rand:        rand.New(rand.NewSource(1)),
	}

	for retry, base := range map[int]time.Duration{
		1: 100 * time.Millisecond,
		2: 200 * time.Millisecond,
		3: 400 * time.Millisecond,
	} {
		d := p.Backoff(retry)
		assert.GreaterOrEqual(t, d, base, "retry %d", retry)
		assert.LessOrEqual(t, d, base+base/2, "retry %d jitter must stay within 50%%", retry)
	}
}

func TestRetryPolicy_MaxBackoffCaps(t *testing.T) {
	p := RetryPolicy{
		BaseBackoff: 100 * time.Millisecond,
		MaxBackoff:  250 * time.Millisecond,
		rand:        rand.New(rand.NewSource(1)),
	}

	d := p.Backoff(10)
	assert.LessOrEqual(t, d, 250*time.Millisecond+125*time.Millisecond)
}

func TestRetryPolicy_ZeroRetryNoDelay(t *testing.T) {
	p := RetryPolicy{BaseBackoff: time.Second}
	assert.Equal(t, time.Duration(0), p.Backoff(0))
}

func TestRetryPolicy_WaitHonoursCancellation(t *testing.T) {
	p := RetryPolicy{BaseBackoff: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Wait(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
