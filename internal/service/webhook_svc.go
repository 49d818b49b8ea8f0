package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shop_autotag/internal/api/dto"
	"shop_autotag/internal/model"
	"shop_autotag/internal/repository"
	"shop_autotag/internal/rule"
)

// ErrInvalidPayload webhook 载荷缺少实体 ID
var ErrInvalidPayload = errors.New("webhook payload has no entity id")

// TagWriteError webhook 路径写回失败，直接返回给调用方
type TagWriteError struct {
	EntityType model.EntityType
	Err        error
}

func (e *TagWriteError) Error() string {
	return fmt.Sprintf("Failed to update %s tags: %v", e.EntityType.Lower(), e.Err)
}

func (e *TagWriteError) Unwrap() error { return e.Err }

// Message 对外的通用错误信息
func (e *TagWriteError) Message() string {
	return fmt.Sprintf("Failed to update %s tags", e.EntityType.Lower())
}

// WebhookResult 单个事件的处理结果
type WebhookResult struct {
	EntityID    string   `json:"entity_id"`
	Updated     bool     `json:"updated"`
	AppliedTags []string `json:"applied_tags"`
}

// WebhookService 新建实体事件的即时打标
type WebhookService struct {
	ruleRepo repository.RuleRepository
	shopRepo repository.ShopRepository
	provider PlatformProvider
	recorder *ActivityService
	logger   *zap.Logger
}

func NewWebhookService(
	ruleRepo repository.RuleRepository,
	shopRepo repository.ShopRepository,
	provider PlatformProvider,
	recorder *ActivityService,
	logger *zap.Logger,
) *WebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{
		ruleRepo: ruleRepo,
		shopRepo: shopRepo,
		provider: provider,
		recorder: recorder,
		logger:   logger,
	}
}

// HandleOrderCreated orders/create
func (s *WebhookService) HandleOrderCreated(ctx context.Context, shop string, payload *dto.OrderWebhook) (*WebhookResult, error) {
	return s.handle(ctx, shop, payload.ToSnapshot())
}

// HandleCustomerCreated customers/create
func (s *WebhookService) HandleCustomerCreated(ctx context.Context, shop string, payload *dto.CustomerWebhook) (*WebhookResult, error) {
	return s.handle(ctx, shop, payload.ToSnapshot())
}

// HandleProductCreated products/create
func (s *WebhookService) HandleProductCreated(ctx context.Context, shop string, payload *dto.ProductWebhook) (*WebhookResult, error) {
	return s.handle(ctx, shop, payload.ToSnapshot())
}

// HandleAppUninstalled app/uninstalled，停用店铺 Token
func (s *WebhookService) HandleAppUninstalled(ctx context.Context, shop string) error {
	if err := s.shopRepo.MarkUninstalled(ctx, shop); err != nil {
		return fmt.Errorf("mark shop uninstalled: %w", err)
	}
	s.logger.Info("[WebhookService] 应用已卸载", zap.String("shop", shop))
	return nil
}

// handle 只跑该实体类型的规则，有变化才写回一次；写回失败直接返回
func (s *WebhookService) handle(ctx context.Context, shop string, snap rule.Snapshot) (*WebhookResult, error) {
	if snap.EntityID() == "" {
		return nil, ErrInvalidPayload
	}
	entityType := snap.Kind()
	log := s.logger.With(
		zap.String("shop", shop),
		zap.String("entity_type", string(entityType)),
		zap.String("entity_id", snap.EntityID()))
	result := &WebhookResult{EntityID: snap.EntityID(), AppliedTags: []string{}}

	rules, err := s.ruleRepo.ListActiveByType(ctx, shop, entityType)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	if len(rules) == 0 {
		return result, nil
	}

	platform, err := s.provider.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	rules = prepareRules(ctx, log, shop, rules, platform)

	diff := rule.Diff(snap.CurrentTags(), rules, snap)
	if !diff.Changed {
		log.Debug("[WebhookService] 没有命中新的标签")
		return result, nil
	}

	if err := writeBack(ctx, platform, s.recorder, shop, snap, diff); err != nil {
		log.Error("[WebhookService] 写回标签失败", zap.Error(err))
		return nil, &TagWriteError{EntityType: entityType, Err: err}
	}

	result.Updated = true
	result.AppliedTags = diff.AppliedTags()
	log.Info("[WebhookService] 已追加标签", zap.Strings("tags", result.AppliedTags))
	return result, nil
}
