package net

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrMaxRetries 429 重试次数耗尽
var ErrMaxRetries = errors.New("max retries reached")

// RateLimited 远端限流错误 (HTTP 429) 需实现此接口才会被重试
type RateLimited interface {
	error
	// RetryAfter 远端建议的等待时间，0 表示未提供
	RetryAfter() time.Duration
}

// Executor 所有远端调用的统一入口
type Executor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// RetryConfig 重试参数
type RetryConfig struct {
	MinInterval time.Duration // 相邻调用最小间隔
	MaxAttempts int           // 最大尝试次数 (含首次)
	BaseDelay   time.Duration // 无 Retry-After 时的初始退避
}

// DefaultRetryConfig 默认参数: 500ms 间隔, 5 次, 1s 起步
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MinInterval: 500 * time.Millisecond,
		MaxAttempts: 5,
		BaseDelay:   time.Second,
	}
}

// RetryClient 限流 + 429 指数退避重试
// 每次调用 (每个店铺的一次处理) 持有独立实例，调用严格串行
type RetryClient struct {
	limiter     *Limiter
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *zap.Logger
}

var _ Executor = (*RetryClient)(nil)

// NewRetryClient 创建重试客户端
func NewRetryClient(cfg RetryConfig, logger *zap.Logger) *RetryClient {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryClient{
		limiter:     NewLimiter(cfg.MinInterval),
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		sleep:       sleepContext,
		logger:      logger,
	}
}

// WithSleep 替换等待函数 (测试用)
func (c *RetryClient) WithSleep(fn func(ctx context.Context, d time.Duration) error) *RetryClient {
	c.sleep = fn
	return c
}

// Do 执行远端调用
// 非限流错误立即返回；限流错误按 Retry-After 或当前退避等待后重试，退避每次翻倍
// 最后一次失败后不再等待，返回包装了 ErrMaxRetries 的错误
func (c *RetryClient) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	delay := c.baseDelay
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err := c.call(ctx, fn)
		if err == nil {
			return nil
		}

		var limited RateLimited
		if !errors.As(err, &limited) {
			return err
		}
		lastErr = err

		if attempt == c.maxAttempts {
			break
		}

		wait := limited.RetryAfter()
		if wait <= 0 {
			wait = delay
		}
		c.logger.Warn("[RetryClient] 触发远端限流，等待后重试",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
		delay *= 2
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, c.maxAttempts, lastErr)
}

// call 占用限流槽位后执行一次调用
func (c *RetryClient) call(ctx context.Context, fn func(ctx context.Context) error) error {
	release, err := c.limiter.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
