package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shop_autotag/internal/model"
	"shop_autotag/internal/rule"
	"shop_autotag/pkg/paging"
)

// ==================== 三条打标路径共用 ====================

// prepareRules 解析 title_contains 中的商品引用，解析失败的规则本次跳过
// 返回的规则按创建顺序排列，新标签按这个顺序追加
func prepareRules(ctx context.Context, logger *zap.Logger, shop string, rules []model.Rule, platform Platform) []model.Rule {
	resolved, failures := rule.ResolveRules(ctx, rules, platform)
	rule.SortByStorageOrder(resolved)
	for _, f := range failures {
		logger.Warn("[Rules] 商品引用解析失败，本次跳过该规则",
			zap.String("shop", shop),
			zap.String("rule_id", f.RuleID),
			zap.String("value", f.Value),
			zap.Error(f.Err))
	}
	return resolved
}

// writeBack 标签有变化时写回平台并记录流水
func writeBack(ctx context.Context, platform Platform, recorder *ActivityService, shop string, snap rule.Snapshot, diff rule.DiffResult) error {
	if !diff.Changed {
		return nil
	}
	if err := platform.UpdateTags(ctx, snap.Kind(), snap.EntityID(), diff.NewTags); err != nil {
		return fmt.Errorf("update tags of %s: %w", snap.EntityID(), err)
	}
	if recorder != nil {
		recorder.Record(ctx, shop, snap.Kind(), snap.EntityID(), diff.Applied)
	}
	return nil
}

// pageFunc 平台分页接口适配为游标分页函数
func pageFunc(platform Platform, entityType model.EntityType, limit int) paging.PageFunc[rule.Snapshot] {
	return func(ctx context.Context, cursor string) (paging.Page[rule.Snapshot], error) {
		return platform.ListEntities(ctx, entityType, cursor, limit)
	}
}
