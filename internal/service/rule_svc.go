package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shop_autotag/internal/api/dto"
	"shop_autotag/internal/model"
	"shop_autotag/internal/repository"
)

// RuleService 规则管理
type RuleService struct {
	repo   repository.RuleRepository
	logger *zap.Logger
}

func NewRuleService(repo repository.RuleRepository, logger *zap.Logger) *RuleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleService{repo: repo, logger: logger}
}

// CreateRule 校验并创建规则
func (s *RuleService) CreateRule(ctx context.Context, shop string, req dto.CreateRuleReq) (*model.Rule, error) {
	entityType, err := model.ParseEntityType(req.AppliesTo)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEntityType, req.AppliesTo)
	}
	if !model.IsValidCondition(entityType, req.Condition) {
		return nil, fmt.Errorf("%w: %s / %s", ErrInvalidCondition, entityType, req.Condition)
	}

	r := &model.Rule{
		Shop:           shop,
		Name:           strings.TrimSpace(req.Name),
		AppliesTo:      entityType,
		Condition:      req.Condition,
		ConditionValue: strings.TrimSpace(req.ConditionValue),
		Tag:            strings.TrimSpace(req.Tag),
		IsActive:       true,
	}
	if r.Name == "" || r.ConditionValue == "" || r.Tag == "" {
		return nil, fmt.Errorf("%w: name, condition_value and tag must not be blank", ErrInvalidRule)
	}
	if strings.Contains(r.Tag, ",") {
		return nil, fmt.Errorf("%w: tag must not contain a comma", ErrInvalidRule)
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}
	s.logger.Info("[RuleService] 规则已创建",
		zap.String("shop", shop),
		zap.String("rule_id", r.ID),
		zap.String("condition", r.Condition),
		zap.String("tag", r.Tag))
	return r, nil
}

// ListRules 管理界面列表，最新在前
func (s *RuleService) ListRules(ctx context.Context, shop string, req dto.RuleListReq) (*dto.RuleListResp, error) {
	filter := repository.RuleFilter{Shop: shop, Page: req.Page, PageSize: req.PageSize}
	if req.AppliesTo != "" {
		entityType, err := model.ParseEntityType(req.AppliesTo)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidEntityType, req.AppliesTo)
		}
		filter.AppliesTo = entityType
	}

	rules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.RuleListResp{List: make([]dto.RuleResp, 0, len(rules)), Total: total}
	for i := range rules {
		resp.List = append(resp.List, dto.ToRuleResp(&rules[i]))
	}
	return resp, nil
}

// DeleteRule 只删除本店铺的规则
func (s *RuleService) DeleteRule(ctx context.Context, shop, id string) error {
	err := s.repo.Delete(ctx, shop, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRuleNotFound
	}
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	s.logger.Info("[RuleService] 规则已删除", zap.String("shop", shop), zap.String("rule_id", id))
	return nil
}

// Conditions 条件目录
func (s *RuleService) Conditions() map[model.EntityType][]model.ConditionSpec {
	return model.ConditionCatalog
}
