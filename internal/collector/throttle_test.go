package collector

import (
	"context"
	"testing"
	"time"

	"vida-collector/internal/bilibili"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle_DelayFor(t *testing.T) {
	th := NewThrottle(DefaultThrottleOptions())

	tests := []struct {
		kind  bilibili.PageKind
		total int64
		want  time.Duration
	}{
		{bilibili.RootPage, 0, 1500 * time.Millisecond},
		{bilibili.RootPage, 25, 1525 * time.Millisecond},
		{bilibili.RootPage, 1000, 2500 * time.Millisecond},
		{bilibili.RootPage, 1500, 3 * time.Second},
		{bilibili.RootPage, 50000, 3 * time.Second},
		{bilibili.RootPage, -10, 1500 * time.Millisecond},
		{bilibili.ReplyPage, 50000, 200 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.DelayFor(tt.kind, tt.total), "%s total=%d", tt.kind, tt.total)
	}
}

func TestThrottle_ZeroOptionsNeverSleeps(t *testing.T) {
	th := noDelay()
	assert.Zero(t, th.DelayFor(bilibili.RootPage, 100000))

	start := time.Now()
	for i := 0; i < 50; i++ {
		require.NoError(t, th.Wait(context.Background(), bilibili.RootPage, 100000))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestThrottle_CooldownIsShared(t *testing.T) {
	th := NewThrottle(ThrottleOptions{Cooldown: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, th.Cooldown(ctx), context.Canceled)

	remaining := th.cooldownRemaining()
	assert.Greater(t, remaining, 50*time.Second)

	// 其他遍历的下一次请求也要等待冷却
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer waitCancel()
	assert.ErrorIs(t, th.Wait(waitCtx, bilibili.ReplyPage, 0), context.DeadlineExceeded)
}

func TestThrottle_CooldownExpires(t *testing.T) {
	th := NewThrottle(ThrottleOptions{Cooldown: time.Minute})
	now := time.Now()
	th.now = func() time.Time { return now }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = th.Cooldown(ctx)

	now = now.Add(2 * time.Minute)
	assert.Zero(t, th.cooldownRemaining())
}

func TestThrottle_AcquireSkipsPageDelay(t *testing.T) {
	th := NewThrottle(ThrottleOptions{RootBase: time.Minute, RootFloor: time.Minute, RootCeiling: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, th.Acquire(ctx))
}

func TestThrottle_AcquireHonoursCooldown(t *testing.T) {
	th := NewThrottle(ThrottleOptions{Cooldown: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, th.Cooldown(ctx), context.Canceled)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer waitCancel()
	assert.ErrorIs(t, th.Acquire(waitCtx), context.DeadlineExceeded)
}
