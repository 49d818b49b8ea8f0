package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shop_autotag/internal/model"
)

// ==================== 接口定义 ====================

// ShopRepository 店铺仓储接口
type ShopRepository interface {
	Create(ctx context.Context, shop *model.Shop) error
	GetByDomain(ctx context.Context, domain string) (*model.Shop, error)
	MarkUninstalled(ctx context.Context, domain string) error
}

// ==================== 仓储实现 ====================

type shopRepo struct {
	db *gorm.DB
}

// NewShopRepository 创建店铺仓储
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepo{db: db}
}

func (r *shopRepo) Create(ctx context.Context, shop *model.Shop) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

func (r *shopRepo) GetByDomain(ctx context.Context, domain string) (*model.Shop, error) {
	var shop model.Shop
	if err := r.db.WithContext(ctx).Where("domain = ?", domain).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepo) MarkUninstalled(ctx context.Context, domain string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.Shop{}).
		Where("domain = ?", domain).
		Updates(map[string]interface{}{
			"status":         model.ShopStatusUninstalled,
			"uninstalled_at": &now,
		}).Error
}
