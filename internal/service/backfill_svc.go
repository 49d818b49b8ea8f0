package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shop_autotag/internal/model"
	"shop_autotag/internal/repository"
	"shop_autotag/internal/rule"
	"shop_autotag/pkg/paging"
)

// progressEvery 每处理多少个实体刷新一次百分比
const progressEvery = 100

// BackfillService 历史数据全量打标
// 订单 -> 客户 -> 商品依次走完全部分页，只记录粗粒度百分比，不保存分页游标
type BackfillService struct {
	settingsRepo repository.SettingsRepository
	ruleRepo     repository.RuleRepository
	provider     PlatformProvider
	recorder     *ActivityService
	logger       *zap.Logger
	pageSize     int
	now          func() time.Time
}

func NewBackfillService(
	settingsRepo repository.SettingsRepository,
	ruleRepo repository.RuleRepository,
	provider PlatformProvider,
	recorder *ActivityService,
	pageSize int,
	logger *zap.Logger,
) *BackfillService {
	if pageSize <= 0 {
		pageSize = 250
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackfillService{
		settingsRepo: settingsRepo,
		ruleRepo:     ruleRepo,
		provider:     provider,
		recorder:     recorder,
		logger:       logger,
		pageSize:     pageSize,
		now:          time.Now,
	}
}

// Prepare 记录商家同意并把进度置为 in_progress/0
// 同一店铺是否已有回填在跑由调用方 (task.BackfillRunner) 判断，库里残留的 in_progress 不阻止重新开始
func (s *BackfillService) Prepare(ctx context.Context, shop string) error {
	if err := s.settingsRepo.SetOptIn(ctx, shop, true); err != nil {
		return fmt.Errorf("save opt-in: %w", err)
	}
	return s.settingsRepo.SaveProgress(ctx, shop, true, model.InProgress(0, s.now()))
}

// RecoverInterrupted 进程启动时调用：上次进程退出前未结束的回填置为 error
// 返回处理的店铺数
func (s *BackfillService) RecoverInterrupted(ctx context.Context) (int, error) {
	list, err := s.settingsRepo.ListProcessing(ctx)
	if err != nil {
		return 0, fmt.Errorf("list processing shops: %w", err)
	}
	recovered := 0
	for _, settings := range list {
		percent := 0
		if progress, err := settings.Progress(); err == nil && progress.Status == model.PastDataInProgress {
			percent = progress.Percent
		}
		failed := model.FailedProgress(percent, "interrupted by restart", s.now())
		if err := s.settingsRepo.SaveProgress(ctx, settings.Shop, false, failed); err != nil {
			s.logger.Warn("[BackfillService] 重置中断的回填失败", zap.String("shop", settings.Shop), zap.Error(err))
			continue
		}
		recovered++
		s.logger.Info("[BackfillService] 上次未完成的回填已标记为中断", zap.String("shop", settings.Shop), zap.Int("percent", percent))
	}
	return recovered, nil
}

// Run 执行一次完整回填，任一拉取或写回失败都会把状态置为 error 并停止
func (s *BackfillService) Run(ctx context.Context, shop string) error {
	log := s.logger.With(zap.String("shop", shop))

	rules, err := s.ruleRepo.ListActive(ctx, shop)
	if err != nil {
		return s.fail(ctx, shop, 0, fmt.Errorf("load rules: %w", err))
	}
	if len(rules) == 0 {
		log.Info("[BackfillService] 没有启用的规则，跳过回填")
		return s.settingsRepo.SaveProgress(ctx, shop, false, model.IdleProgress())
	}

	platform, err := s.provider.ForShop(ctx, shop)
	if err != nil {
		return s.fail(ctx, shop, 0, err)
	}
	rules = prepareRules(ctx, log, shop, rules, platform)

	tracker := &progressTracker{}
	for _, et := range model.AllEntityTypes {
		count, err := platform.CountEntities(ctx, et)
		if err != nil {
			return s.fail(ctx, shop, 0, fmt.Errorf("count %s: %w", et.Lower(), err))
		}
		tracker.total += count
	}
	log.Info("[BackfillService] 开始回填", zap.Int("total", tracker.total))

	for _, et := range model.AllEntityTypes {
		kindRules := rule.ForKind(rules, et)
		walker := paging.NewCursorWalker(pageFunc(platform, et, s.pageSize), "")

		err := paging.Walk(ctx, walker, func(page paging.Page[rule.Snapshot]) error {
			for _, snap := range page.Items {
				diff := rule.Diff(snap.CurrentTags(), kindRules, snap)
				if err := writeBack(ctx, platform, s.recorder, shop, snap, diff); err != nil {
					return err
				}
				if tracker.add(1)%progressEvery == 0 {
					s.saveProgress(ctx, shop, tracker.percent())
				}
			}
			s.saveProgress(ctx, shop, tracker.percent())
			return nil
		})
		if err != nil {
			return s.fail(ctx, shop, tracker.percent(), fmt.Errorf("backfill %s: %w", et.Lower(), err))
		}
		log.Info("[BackfillService] 实体类型处理完成",
			zap.String("entity_type", string(et)),
			zap.Int("pages", walker.Pages()),
			zap.Int("processed", tracker.processed))
	}

	if err := s.settingsRepo.SaveProgress(ctx, shop, false, model.CompletedProgress(s.now())); err != nil {
		return fmt.Errorf("save completed progress: %w", err)
	}
	log.Info("[BackfillService] 回填完成", zap.Int("processed", tracker.processed))
	return nil
}

func (s *BackfillService) saveProgress(ctx context.Context, shop string, percent int) {
	if err := s.settingsRepo.SaveProgress(ctx, shop, true, model.InProgress(percent, s.now())); err != nil {
		s.logger.Warn("[BackfillService] 保存进度失败", zap.String("shop", shop), zap.Error(err))
	}
}

func (s *BackfillService) fail(ctx context.Context, shop string, percent int, cause error) error {
	s.logger.Error("[BackfillService] 回填失败", zap.String("shop", shop), zap.Int("percent", percent), zap.Error(cause))
	// 任务被取消时仍要落库，否则状态会一直停在 in_progress
	if err := s.settingsRepo.SaveProgress(context.WithoutCancel(ctx), shop, false, model.FailedProgress(percent, cause.Error(), s.now())); err != nil {
		s.logger.Warn("[BackfillService] 保存失败状态失败", zap.String("shop", shop), zap.Error(err))
	}
	return cause
}

// ==================== 进度计算 ====================

// progressTracker 跨实体类型的累计进度
type progressTracker struct {
	total     int
	processed int
}

func (p *progressTracker) add(n int) int {
	p.processed += n
	if p.processed > p.total {
		p.total = p.processed
	}
	return p.processed
}

// percent 运行中最多 99
func (p *progressTracker) percent() int {
	if p.total <= 0 {
		return 0
	}
	pct := p.processed * 100 / p.total
	if pct > 99 {
		pct = 99
	}
	return pct
}
