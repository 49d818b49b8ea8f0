package service

import (
	"context"
	"errors"

	"shop_autotag/internal/model"
	"shop_autotag/internal/rule"
	"shop_autotag/pkg/paging"
)

// ==================== 远端平台抽象 ====================

// Platform 单个店铺的远端调用面，由 shopify.Client 实现
// 同一个实例内的所有调用共享一个限流器，严格串行
type Platform interface {
	ListEntities(ctx context.Context, entityType model.EntityType, cursor string, limit int) (paging.Page[rule.Snapshot], error)
	CountEntities(ctx context.Context, entityType model.EntityType) (int, error)
	UpdateTags(ctx context.Context, entityType model.EntityType, id string, tags string) error
	ProductTitle(ctx context.Context, productID string) (string, error)
}

// PlatformProvider 为一次调用创建店铺客户端 (每次调用独立的限流器)
type PlatformProvider interface {
	ForShop(ctx context.Context, shop string) (Platform, error)
}

// ==================== 业务错误 ====================

var (
	ErrBatchInProgress   = errors.New("batch already in progress")
	ErrBatchTransition   = errors.New("invalid batch state transition")
	ErrRuleNotFound      = errors.New("rule not found")
	ErrInvalidCondition  = errors.New("condition is not valid for this entity type")
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrInvalidRule       = errors.New("invalid rule")
	ErrShopNotActive     = errors.New("shop is not installed or has no access token")
)
