package task

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shop_autotag/internal/api/dto"
	"shop_autotag/internal/model"
)

// ==================== BatchContinueTask 分批续跑任务 ====================

// BatchContinuer 分批处理能力 (由 service.BatchService 实现)
type BatchContinuer interface {
	ListShopsToContinue(ctx context.Context, entityType model.EntityType) ([]string, error)
	ContinueShop(ctx context.Context, shop string, entityType model.EntityType) dto.ShopBatchResult
}

// BatchContinueTask 定时为每个未完成批次的店铺推进一页
// 店铺之间并发，同一店铺的实体类型顺序执行
type BatchContinueTask struct {
	batches BatchContinuer
	cron    *cron.Cron
	spec    string
	logger  *zap.Logger

	concurrencyLimit int
	roundTimeout     time.Duration

	inflight sync.Map // shop -> struct{}
}

// RoundResult 一轮续跑的汇总
type RoundResult struct {
	Shops     int `json:"shops"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// NewBatchContinueTask 创建分批续跑任务
func NewBatchContinueTask(batches BatchContinuer, spec string, logger *zap.Logger) *BatchContinueTask {
	if spec == "" {
		spec = "0 * * * * *"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchContinueTask{
		batches:          batches,
		cron:             cron.New(cron.WithSeconds()),
		spec:             spec,
		logger:           logger,
		concurrencyLimit: 5,
		roundTimeout:     10 * time.Minute,
	}
}

// SetConcurrency 设置店铺并发数
func (t *BatchContinueTask) SetConcurrency(limit int) {
	if limit > 0 {
		t.concurrencyLimit = limit
	}
}

// Start 启动定时任务
func (t *BatchContinueTask) Start() {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.roundTimeout)
		defer cancel()
		t.RunOnce(ctx)
	})
	if err != nil {
		t.logger.Error("[BatchContinueTask] 定时任务启动失败", zap.String("spec", t.spec), zap.Error(err))
		return
	}

	t.cron.Start()
	t.logger.Info("[BatchContinueTask] 已启动", zap.String("spec", t.spec))
}

// Stop 停止任务，等待正在执行的一轮结束
func (t *BatchContinueTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.logger.Info("[BatchContinueTask] 已停止")
}

// RunOnce 执行一轮续跑
func (t *BatchContinueTask) RunOnce(ctx context.Context) RoundResult {
	pending, order := t.collect(ctx)

	var (
		result RoundResult
		mu     sync.Mutex
		g      errgroup.Group
	)
	g.SetLimit(t.concurrencyLimit)

	for _, shop := range order {
		if _, busy := t.inflight.LoadOrStore(shop, struct{}{}); busy {
			t.logger.Debug("[BatchContinueTask] 店铺仍在处理中，跳过", zap.String("shop", shop))
			result.Skipped++
			continue
		}
		result.Shops++

		kinds := pending[shop]
		g.Go(func() error {
			defer t.inflight.Delete(shop)

			for _, et := range kinds {
				res := t.batches.ContinueShop(ctx, shop, et)

				mu.Lock()
				switch {
				case res.Busy:
					// HTTP 续跑正在处理同一实体类型
					result.Skipped++
				case res.Success:
					result.Succeeded++
				default:
					result.Failed++
				}
				mu.Unlock()

				if !res.Success {
					t.logger.Warn("[BatchContinueTask] 续跑失败",
						zap.String("shop", shop),
						zap.String("entity_type", string(et)),
						zap.String("error", res.Error))
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if result.Shops > 0 || result.Skipped > 0 {
		t.logger.Info("[BatchContinueTask] 本轮完成",
			zap.Int("shops", result.Shops),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed),
			zap.Int("skipped", result.Skipped))
	}
	return result
}

// collect 按店铺归并待续跑的实体类型，保持 订单 -> 客户 -> 商品 顺序
func (t *BatchContinueTask) collect(ctx context.Context) (map[string][]model.EntityType, []string) {
	pending := make(map[string][]model.EntityType)
	var order []string

	for _, et := range model.AllEntityTypes {
		shops, err := t.batches.ListShopsToContinue(ctx, et)
		if err != nil {
			t.logger.Error("[BatchContinueTask] 查询未完成批次失败", zap.String("entity_type", string(et)), zap.Error(err))
			continue
		}
		for _, shop := range shops {
			if _, seen := pending[shop]; !seen {
				order = append(order, shop)
			}
			pending[shop] = append(pending[shop], et)
		}
	}
	return pending, order
}
