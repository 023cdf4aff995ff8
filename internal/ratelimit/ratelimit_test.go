package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiterDisabled(t *testing.T) {
	var nilLimiter *HostLimiter
	assert.False(t, nilLimiter.Enabled())
	assert.NoError(t, nilLimiter.Wait(context.Background(), "garnius.no"))

	l := NewHostLimiter(0, 0)
	assert.False(t, l.Enabled())
	assert.NoError(t, l.Wait(context.Background(), "garnius.no"))
}

func TestHostLimiterReserve(t *testing.T) {
	l := NewHostLimiter(time.Second, time.Second)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.Equal(t, time.Duration(0), l.reserve("garnius.no"))
	assert.Equal(t, time.Second, l.reserve("garnius.no"))
	assert.Equal(t, 2*time.Second, l.reserve("garnius.no"))

	// other hosts are independent
	assert.Equal(t, time.Duration(0), l.reserve("hobbii.no"))

	now = now.Add(5 * time.Second)
	assert.Equal(t, time.Duration(0), l.reserve("garnius.no"))
}

func TestHostLimiterJitterWithinWindow(t *testing.T) {
	l := NewHostLimiter(100*time.Millisecond, 200*time.Millisecond)
	for i := 0; i < 50; i++ {
		d := l.delay()
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.Less(t, d, 200*time.Millisecond)
	}
}

func TestHostLimiterInvertedWindow(t *testing.T) {
	l := NewHostLimiter(time.Second, 0)
	assert.True(t, l.Enabled())
	assert.Equal(t, time.Second, l.delay())
}

func TestHostLimiterWaitCancelled(t *testing.T) {
	l := NewHostLimiter(time.Hour, time.Hour)
	require.NoError(t, l.Wait(context.Background(), "garnius.no"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx, "garnius.no"), context.Canceled)
}
