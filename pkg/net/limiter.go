package net

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter 出站调用限流器
// 同一时刻最多一个在途调用，相邻两次调用至少间隔 minInterval
type Limiter struct {
	rate *rate.Limiter
	slot chan struct{}
}

// NewLimiter 创建限流器，minInterval <= 0 表示不限速 (只串行)
func NewLimiter(minInterval time.Duration) *Limiter {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Limiter{
		rate: rate.NewLimiter(limit, 1),
		slot: make(chan struct{}, 1),
	}
}

// Acquire 占用唯一的调用槽位并等待令牌，返回释放函数
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := l.rate.Wait(ctx); err != nil {
		<-l.slot
		return nil, err
	}

	return func() { <-l.slot }, nil
}
