package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ==================== BackfillRunner 历史数据回填 ====================

// Backfiller 回填能力 (由 service.BackfillService 实现)
type Backfiller interface {
	Prepare(ctx context.Context, shop string) error
	Run(ctx context.Context, shop string) error
	// RecoverInterrupted 上个进程留下的 in_progress 状态置为 error
	RecoverInterrupted(ctx context.Context) (int, error)
}

// BackfillRunner 每个店铺一个后台 goroutine 执行回填
type BackfillRunner struct {
	backfill Backfiller
	logger   *zap.Logger
	timeout  time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc
	running sync.Map // shop -> struct{}
	wg      sync.WaitGroup
}

// NewBackfillRunner 创建回填执行器
func NewBackfillRunner(backfill Backfiller, logger *zap.Logger) *BackfillRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BackfillRunner{
		backfill: backfill,
		logger:   logger,
		timeout:  6 * time.Hour,
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Start 同步完成准备工作后在后台执行回填
// 同一店铺已有回填在跑时返回 ErrBackfillRunning
func (r *BackfillRunner) Start(ctx context.Context, shop string) error {
	if _, loaded := r.running.LoadOrStore(shop, struct{}{}); loaded {
		return ErrBackfillRunning
	}

	if err := r.backfill.Prepare(ctx, shop); err != nil {
		r.running.Delete(shop)
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.running.Delete(shop)

		runCtx, cancel := context.WithTimeout(r.baseCtx, r.timeout)
		defer cancel()

		start := time.Now()
		if err := r.backfill.Run(runCtx, shop); err != nil {
			r.logger.Warn("[BackfillRunner] 回填结束 (失败)", zap.String("shop", shop), zap.Duration("cost", time.Since(start)), zap.Error(err))
			return
		}
		r.logger.Info("[BackfillRunner] 回填结束", zap.String("shop", shop), zap.Duration("cost", time.Since(start)))
	}()
	return nil
}

// Recover 启动时清理上次进程中断的回填，本进程尚未开始任何回填
func (r *BackfillRunner) Recover(ctx context.Context) {
	n, err := r.backfill.RecoverInterrupted(ctx)
	if err != nil {
		r.logger.Error("[BackfillRunner] 清理中断的回填失败", zap.Error(err))
		return
	}
	if n > 0 {
		r.logger.Info("[BackfillRunner] 已清理中断的回填", zap.Int("shops", n))
	}
}

// Running 店铺是否有回填在跑
func (r *BackfillRunner) Running(shop string) bool {
	_, ok := r.running.Load(shop)
	return ok
}

// Wait 等待所有后台回填结束
func (r *BackfillRunner) Wait() {
	r.wg.Wait()
}

// Stop 取消所有回填并等待退出
func (r *BackfillRunner) Stop() {
	r.cancel()
	r.wg.Wait()
	r.logger.Info("[BackfillRunner] 已停止")
}
