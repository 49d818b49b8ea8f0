package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"shop_autotag/internal/api/dto"
	"shop_autotag/internal/model"
	"shop_autotag/internal/repository"
	"shop_autotag/internal/rule"
	"shop_autotag/pkg/paging"
)

// ==================== 单页状态机 ====================

const (
	BatchStateIdle       = "idle"
	BatchStateFetching   = "fetching"
	BatchStateEvaluating = "evaluating"
	BatchStateWriting    = "writing"
	BatchStatePersisted  = "persisted"
	BatchStateFailed     = "failed"

	batchEventFetch    = "fetch"
	batchEventEvaluate = "evaluate"
	batchEventWrite    = "write"
	batchEventWritten  = "written"
	batchEventPersist  = "persist"
	batchEventFail     = "fail"
)

func newBatchMachine(logger *zap.Logger) *fsm.FSM {
	return fsm.NewFSM(
		BatchStateIdle,
		fsm.Events{
			{Name: batchEventFetch, Src: []string{BatchStateIdle}, Dst: BatchStateFetching},
			{Name: batchEventEvaluate, Src: []string{BatchStateFetching}, Dst: BatchStateEvaluating},
			{Name: batchEventWrite, Src: []string{BatchStateEvaluating}, Dst: BatchStateWriting},
			{Name: batchEventWritten, Src: []string{BatchStateWriting}, Dst: BatchStateEvaluating},
			{Name: batchEventPersist, Src: []string{BatchStateIdle, BatchStateEvaluating}, Dst: BatchStatePersisted},
			{Name: batchEventFail, Src: []string{BatchStateFetching}, Dst: BatchStateFailed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debug("[BatchService] 状态切换", zap.String("from", e.Src), zap.String("to", e.Dst))
			},
		},
	)
}

// transition 推进状态机，非法事件返回 ErrBatchTransition
func transition(ctx context.Context, machine *fsm.FSM, event string) error {
	from := machine.Current()
	if err := machine.Event(ctx, event); err != nil {
		return fmt.Errorf("%w: %s from %s: %v", ErrBatchTransition, event, from, err)
	}
	return nil
}

func runKey(shop string, entityType model.EntityType) string {
	return shop + "|" + string(entityType)
}

// ==================== BatchService ====================

// BatchService 可续跑的分页打标，每次调用只处理一页
type BatchService struct {
	ruleRepo    repository.RuleRepository
	stateRepo   repository.BatchStateRepository
	provider    PlatformProvider
	recorder    *ActivityService
	logger      *zap.Logger
	pageSize    int
	entityDelay time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time

	// (店铺, 实体类型) -> 正在推进游标的那次调用的状态机
	runs sync.Map
}

// BatchServiceConfig 批处理参数
type BatchServiceConfig struct {
	PageSize    int           // 默认 25
	EntityDelay time.Duration // 每次写回后的间隔
}

func NewBatchService(
	ruleRepo repository.RuleRepository,
	stateRepo repository.BatchStateRepository,
	provider PlatformProvider,
	recorder *ActivityService,
	cfg BatchServiceConfig,
	logger *zap.Logger,
) *BatchService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 25
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{
		ruleRepo:    ruleRepo,
		stateRepo:   stateRepo,
		provider:    provider,
		recorder:    recorder,
		logger:      logger,
		pageSize:    cfg.PageSize,
		entityDelay: cfg.EntityDelay,
		sleep:       sleepContext,
		now:         time.Now,
	}
}

// WithSleep 替换等待函数 (测试用)
func (s *BatchService) WithSleep(fn func(ctx context.Context, d time.Duration) error) *BatchService {
	s.sleep = fn
	return s
}

// begin 占用 (店铺, 实体类型) 的处理权
// HTTP 与定时任务共用，同一时刻只有一个调用方读写游标
func (s *BatchService) begin(shop string, entityType model.EntityType, log *zap.Logger) (*fsm.FSM, func(), error) {
	key := runKey(shop, entityType)
	machine := newBatchMachine(log)
	if _, loaded := s.runs.LoadOrStore(key, machine); loaded {
		return nil, nil, ErrBatchInProgress
	}
	return machine, func() { s.runs.Delete(key) }, nil
}

// stage 正在进行的调用所处阶段
func (s *BatchService) stage(shop string, entityType model.EntityType) string {
	if v, ok := s.runs.Load(runKey(shop, entityType)); ok {
		return v.(*fsm.FSM).Current()
	}
	return BatchStateIdle
}

// ProcessBatch 从持久化游标处理一页
// 拉取失败直接返回错误且不写状态；单个实体写回失败记为 skipped 并继续
func (s *BatchService) ProcessBatch(ctx context.Context, shop string, entityType model.EntityType) (*dto.BatchResult, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEntityType, entityType)
	}
	log := s.logger.With(zap.String("shop", shop), zap.String("entity_type", string(entityType)))
	machine, release, err := s.begin(shop, entityType, log)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.processPage(ctx, machine, log, shop, entityType)
}

func (s *BatchService) processPage(ctx context.Context, machine *fsm.FSM, log *zap.Logger, shop string, entityType model.EntityType) (*dto.BatchResult, error) {
	state, err := s.stateRepo.Get(ctx, shop, entityType)
	if err != nil {
		return nil, fmt.Errorf("load batch state: %w", err)
	}
	if state == nil {
		state = &model.BatchState{Shop: shop, EntityType: entityType}
	}
	var cursor string
	if state.Cursor != nil {
		cursor = *state.Cursor
	}

	rules, err := s.ruleRepo.ListActiveByType(ctx, shop, entityType)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	if len(rules) == 0 {
		log.Info("[BatchService] 没有启用的规则，直接标记完成")
		result := &dto.BatchResult{EntityType: entityType, Done: true}
		if err := s.persist(ctx, machine, state, result); err != nil {
			return nil, err
		}
		return result, nil
	}

	platform, err := s.provider.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	rules = prepareRules(ctx, log, shop, rules, platform)

	// Fetching
	if err := transition(ctx, machine, batchEventFetch); err != nil {
		return nil, err
	}
	walker := paging.NewCursorWalker(pageFunc(platform, entityType, s.pageSize), cursor)
	page, err := walker.Next(ctx)
	if err != nil {
		fetchErr := fmt.Errorf("fetch %s page: %w", entityType.Lower(), err)
		log.Error("[BatchService] 拉取分页失败，游标保持不变", zap.String("cursor", cursor), zap.Error(err))
		if terr := transition(ctx, machine, batchEventFail); terr != nil {
			return nil, errors.Join(fetchErr, terr)
		}
		return nil, fetchErr
	}

	// Evaluating / Writing
	if err := transition(ctx, machine, batchEventEvaluate); err != nil {
		return nil, err
	}
	result := &dto.BatchResult{
		EntityType: entityType,
		Processed:  len(page.Items),
		BatchSize:  len(page.Items),
		Done:       !page.HasNext(),
	}
	var applied []string

	for i, snap := range page.Items {
		diff := rule.Diff(snap.CurrentTags(), rules, snap)
		if !diff.Changed {
			continue
		}

		if err := transition(ctx, machine, batchEventWrite); err != nil {
			return nil, err
		}
		err := writeBack(ctx, platform, s.recorder, shop, snap, diff)
		if terr := transition(ctx, machine, batchEventWritten); terr != nil {
			return nil, terr
		}
		if err != nil {
			result.Skipped++
			log.Warn("[BatchService] 写回标签失败，跳过该实体",
				zap.String("entity_id", snap.EntityID()),
				zap.Error(err))
		} else {
			result.AppliedTags += len(diff.Applied)
			applied = append(applied, diff.AppliedTags()...)
		}

		if s.entityDelay > 0 && i < len(page.Items)-1 {
			if err := s.sleep(ctx, s.entityDelay); err != nil {
				return nil, err
			}
		}
	}

	if !result.Done {
		next := walker.Cursor()
		result.NextCursor = &next
	}
	if err := s.persistWith(ctx, machine, state, result, applied); err != nil {
		return nil, err
	}

	log.Info("[BatchService] 分页处理完成",
		zap.Int("processed", result.Processed),
		zap.Int("applied_tags", result.AppliedTags),
		zap.Int("skipped", result.Skipped),
		zap.Bool("done", result.Done))
	return result, nil
}

func (s *BatchService) persist(ctx context.Context, machine *fsm.FSM, state *model.BatchState, result *dto.BatchResult) error {
	return s.persistWith(ctx, machine, state, result, nil)
}

// persistWith 写入下一游标与进度，done 时游标清空
// 只有 idle (无规则) 或 evaluating (整页处理完) 可以落库
func (s *BatchService) persistWith(ctx context.Context, machine *fsm.FSM, state *model.BatchState, result *dto.BatchResult, applied []string) error {
	if !machine.Can(batchEventPersist) {
		return fmt.Errorf("%w: persist from %s", ErrBatchTransition, machine.Current())
	}
	progress := model.BatchProgress{
		Processed:   result.Processed,
		BatchSize:   result.BatchSize,
		Done:        result.Done,
		AppliedTags: applied,
		Skipped:     result.Skipped,
		UpdatedAt:   s.now(),
	}
	if err := state.Apply(result.NextCursor, progress); err != nil {
		return err
	}
	if err := s.stateRepo.Save(ctx, state); err != nil {
		return fmt.Errorf("save batch state: %w", err)
	}
	return transition(ctx, machine, batchEventPersist)
}

// StartBatch 从第一页重新开始；上一轮未完成或另一调用正在处理时拒绝
func (s *BatchService) StartBatch(ctx context.Context, shop string, entityType model.EntityType) (*dto.BatchResult, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEntityType, entityType)
	}
	log := s.logger.With(zap.String("shop", shop), zap.String("entity_type", string(entityType)))
	machine, release, err := s.begin(shop, entityType, log)
	if err != nil {
		return nil, err
	}
	defer release()

	state, err := s.stateRepo.Get(ctx, shop, entityType)
	if err != nil {
		return nil, fmt.Errorf("load batch state: %w", err)
	}
	if state != nil {
		if state.InProgress() {
			return nil, ErrBatchInProgress
		}
		if err := s.stateRepo.Reset(ctx, shop, entityType); err != nil {
			return nil, fmt.Errorf("reset batch state: %w", err)
		}
	}
	log.Info("[BatchService] 开始新一轮分批处理")
	return s.processPage(ctx, machine, log, shop, entityType)
}

// Continue 继续处理下一页；没有未完成的批次时返回 nil 结果
// 另一调用方正在处理同一 (店铺, 实体类型) 时返回 ErrBatchInProgress
func (s *BatchService) Continue(ctx context.Context, shop string, entityType model.EntityType) (*dto.BatchResult, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEntityType, entityType)
	}
	log := s.logger.With(zap.String("shop", shop), zap.String("entity_type", string(entityType)))
	machine, release, err := s.begin(shop, entityType, log)
	if err != nil {
		return nil, err
	}
	defer release()

	state, err := s.stateRepo.Get(ctx, shop, entityType)
	if err != nil {
		return nil, fmt.Errorf("load batch state: %w", err)
	}
	if state == nil || !state.InProgress() {
		return nil, nil
	}
	return s.processPage(ctx, machine, log, shop, entityType)
}

// GetBatchStatus 当前游标、进度与处理阶段
func (s *BatchService) GetBatchStatus(ctx context.Context, shop string, entityType model.EntityType) (*dto.BatchStatusResp, error) {
	state, err := s.stateRepo.Get(ctx, shop, entityType)
	if err != nil {
		return nil, fmt.Errorf("load batch state: %w", err)
	}
	stage := s.stage(shop, entityType)
	resp := &dto.BatchStatusResp{
		EntityType: entityType,
		Stage:      stage,
		Processing: stage != BatchStateIdle,
	}
	if state == nil {
		return resp, nil
	}
	progress, err := state.GetProgress()
	if err != nil {
		return nil, err
	}
	resp.Cursor = state.Cursor
	resp.Progress = progress
	resp.Processing = resp.Processing || (progress != nil && !progress.Done)
	return resp, nil
}

// ListShopsToContinue 仍有未完成批次的店铺
func (s *BatchService) ListShopsToContinue(ctx context.Context, entityType model.EntityType) ([]string, error) {
	states, err := s.stateRepo.ListUnfinished(ctx, entityType)
	if err != nil {
		return nil, err
	}
	shops := make([]string, 0, len(states))
	for _, st := range states {
		shops = append(shops, st.Shop)
	}
	return shops, nil
}

// ContinueAll 所有未完成店铺各处理一页 (顺序执行)
func (s *BatchService) ContinueAll(ctx context.Context, entityType model.EntityType) ([]dto.ShopBatchResult, error) {
	shops, err := s.ListShopsToContinue(ctx, entityType)
	if err != nil {
		return nil, err
	}
	results := make([]dto.ShopBatchResult, 0, len(shops))
	for _, shop := range shops {
		results = append(results, s.ContinueShop(ctx, shop, entityType))
	}
	return results, nil
}

// ContinueShop 单个店铺处理一页，结果不返回错误
func (s *BatchService) ContinueShop(ctx context.Context, shop string, entityType model.EntityType) dto.ShopBatchResult {
	res, err := s.Continue(ctx, shop, entityType)
	switch {
	case errors.Is(err, ErrBatchInProgress):
		return dto.ShopBatchResult{Shop: shop, Success: true, Busy: true, Message: err.Error()}
	case err != nil:
		return dto.ShopBatchResult{Shop: shop, Success: false, Error: err.Error()}
	case res == nil:
		return dto.ShopBatchResult{Shop: shop, Success: true, Message: "already completed"}
	default:
		return dto.ShopBatchResult{Shop: shop, Success: true, Result: res}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
