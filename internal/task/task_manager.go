package task

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台任务
// 管理范围：分批续跑 (cron)、历史数据回填 (按需)
type TaskManager struct {
	batchTask *BatchContinueTask
	backfill  *BackfillRunner
	logger    *zap.Logger
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	Batches  BatchContinuer
	Backfill Backfiller
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	BatchEnabled    bool
	BatchCron       string
	ShopConcurrency int
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		BatchEnabled:    true,
		BatchCron:       "0 * * * * *",
		ShopConcurrency: 5,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig, logger *zap.Logger) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tm := &TaskManager{logger: logger}

	if cfg.BatchEnabled && deps.Batches != nil {
		tm.batchTask = NewBatchContinueTask(deps.Batches, cfg.BatchCron, logger)
		tm.batchTask.SetConcurrency(cfg.ShopConcurrency)
	}

	if deps.Backfill != nil {
		tm.backfill = NewBackfillRunner(deps.Backfill, logger)
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动定时任务
func (tm *TaskManager) Start() {
	tm.logger.Info("[TaskManager] 正在启动后台任务...")

	if tm.backfill != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		tm.backfill.Recover(ctx)
		cancel()
	}

	if tm.batchTask != nil {
		tm.batchTask.Start()
	}

	tm.logger.Info("[TaskManager] 后台任务已全部启动")
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	tm.logger.Info("[TaskManager] 正在停止后台任务...")

	if tm.batchTask != nil {
		tm.batchTask.Stop()
	}
	if tm.backfill != nil {
		tm.backfill.Stop()
	}

	tm.logger.Info("[TaskManager] 后台任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerBackfill 为店铺启动历史数据回填
func (tm *TaskManager) TriggerBackfill(ctx context.Context, shop string) error {
	if tm.backfill == nil {
		return ErrTaskDisabled
	}
	return tm.backfill.Start(ctx, shop)
}

// TriggerBatchContinue 立即执行一轮分批续跑
func (tm *TaskManager) TriggerBatchContinue(ctx context.Context) (RoundResult, error) {
	if tm.batchTask == nil {
		return RoundResult{}, ErrTaskDisabled
	}
	return tm.batchTask.RunOnce(ctx), nil
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"batch_continue": tm.batchTask != nil,
		"backfill":       tm.backfill != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled    TaskError = "task is disabled"
	ErrBackfillRunning TaskError = "backfill already running for shop"
)
