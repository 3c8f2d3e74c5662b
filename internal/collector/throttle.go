package collector

import (
	"context"
	"sync"
	"time"

	"vida-collector/internal/bilibili"

	"golang.org/x/time/rate"
)

// ThrottleOptions 节流参数
type ThrottleOptions struct {
	RootBase    time.Duration
	RootFloor   time.Duration
	RootCeiling time.Duration
	ReplyDelay  time.Duration
	Cooldown    time.Duration
	// RatePerSecond 所有遍历共享的请求速率上限，<= 0 表示不限制
	RatePerSecond float64
	Burst         int
}

// DefaultThrottleOptions 线上观测得到的默认节流参数
func DefaultThrottleOptions() ThrottleOptions {
	return ThrottleOptions{
		RootBase:      1500 * time.Millisecond,
		RootFloor:     1500 * time.Millisecond,
		RootCeiling:   3 * time.Second,
		ReplyDelay:    200 * time.Millisecond,
		Cooldown:      3 * time.Second,
		RatePerSecond: 5,
		Burst:         1,
	}
}

// Throttle 同一上游共享的节流器：按结果集规模计算间隔、令牌桶限速、失败后的全局冷却
// 只是降低被风控概率的启发式手段，不保证满足上游限流要求
type Throttle struct {
	opts    ThrottleOptions
	limiter *rate.Limiter

	mu        sync.Mutex
	coolUntil time.Time
	now       func() time.Time
}

// NewThrottle 创建节流器
func NewThrottle(opts ThrottleOptions) *Throttle {
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		opts:    opts,
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// DelayFor 返回下一次请求前的等待时间
// 主评论页：base + total/1000 秒，夹在 [floor, ceiling] 内；子评论页：固定间隔
func (t *Throttle) DelayFor(kind bilibili.PageKind, declaredTotal int64) time.Duration {
	if kind == bilibili.ReplyPage {
		return t.opts.ReplyDelay
	}

	if declaredTotal < 0 {
		declaredTotal = 0
	}
	d := t.opts.RootBase + time.Duration(declaredTotal)*time.Second/1000
	if d < t.opts.RootFloor {
		d = t.opts.RootFloor
	}
	if d > t.opts.RootCeiling {
		d = t.opts.RootCeiling
	}
	return d
}

// Wait 等待节流间隔与正在生效的冷却，然后获取一个令牌
func (t *Throttle) Wait(ctx context.Context, kind bilibili.PageKind, declaredTotal int64) error {
	d := t.DelayFor(kind, declaredTotal)
	if remaining := t.cooldownRemaining(); remaining > d {
		d = remaining
	}
	if err := sleep(ctx, d); err != nil {
		return err
	}
	return t.limiter.Wait(ctx)
}

// Acquire 等待正在生效的冷却后获取一个令牌，不叠加页间隔
// 用于遍历的首个请求和冷却后的重试
func (t *Throttle) Acquire(ctx context.Context) error {
	if err := sleep(ctx, t.cooldownRemaining()); err != nil {
		return err
	}
	return t.limiter.Wait(ctx)
}

// Cooldown 遇到可重试错误后延长全局冷却并等待其结束，所有共享该节流器的遍历都会等待
func (t *Throttle) Cooldown(ctx context.Context) error {
	t.mu.Lock()
	until := t.now().Add(t.opts.Cooldown)
	if until.After(t.coolUntil) {
		t.coolUntil = until
	}
	t.mu.Unlock()

	return sleep(ctx, t.cooldownRemaining())
}

func (t *Throttle) cooldownRemaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if d := t.coolUntil.Sub(t.now()); d > 0 {
		return d
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
