package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shop_autotag/internal/repository"
	"shop_autotag/pkg/net"
	"shop_autotag/pkg/shopify"
)

// ShopifyProvider 实现 PlatformProvider
// 每次调用都创建新的 RetryClient，保证一个店铺的一次处理只有一个限流器
type ShopifyProvider struct {
	ShopRepo   repository.ShopRepository
	RetryCfg   net.RetryConfig
	APIVersion string
	logger     *zap.Logger
}

func NewShopifyProvider(shopRepo repository.ShopRepository, retryCfg net.RetryConfig, apiVersion string, logger *zap.Logger) *ShopifyProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShopifyProvider{
		ShopRepo:   shopRepo,
		RetryCfg:   retryCfg,
		APIVersion: apiVersion,
		logger:     logger,
	}
}

// ForShop 按店铺域名读取离线 Token 并创建客户端
func (p *ShopifyProvider) ForShop(ctx context.Context, shop string) (Platform, error) {
	record, err := p.ShopRepo.GetByDomain(ctx, shop)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrShopNotActive, shop)
	}
	if err != nil {
		return nil, fmt.Errorf("load shop %s: %w", shop, err)
	}
	if !record.IsActive() {
		return nil, fmt.Errorf("%w: %s", ErrShopNotActive, shop)
	}

	exec := net.NewRetryClient(p.RetryCfg, p.logger.With(zap.String("shop", shop)))
	return shopify.NewClient(shopify.Config{
		ShopDomain:  record.Domain,
		AccessToken: record.AccessToken,
		APIVersion:  p.APIVersion,
	}, exec, p.logger), nil
}
