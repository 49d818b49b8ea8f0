package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shop_autotag/internal/model"
)

// ==================== 接口定义 ====================

// ActivityRepository 打标流水与标签计数仓储
type ActivityRepository interface {
	// CreateActivity 追加一条打标流水
	CreateActivity(ctx context.Context, activity *model.TagActivity) error
	// IncrementUsage 标签计数 +1，首次使用时创建
	IncrementUsage(ctx context.Context, shop, tag string, usedAt time.Time) error

	ListRecentActivity(ctx context.Context, shop string, limit int) ([]model.TagActivity, error)
	ListUsage(ctx context.Context, shop string) ([]model.TagUsage, error)
	GetUsage(ctx context.Context, shop, tag string) (*model.TagUsage, error)
}

// ==================== 仓储实现 ====================

type activityRepo struct {
	db *gorm.DB
}

// NewActivityRepository 创建打标流水仓储
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) CreateActivity(ctx context.Context, activity *model.TagActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepo) IncrementUsage(ctx context.Context, shop, tag string, usedAt time.Time) error {
	usage := model.TagUsage{
		Shop:     shop,
		Tag:      tag,
		Count:    1,
		LastUsed: usedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "shop"}, {Name: "tag"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"use_count": gorm.Expr("tag_usages.use_count + ?", 1),
				"last_used": usedAt,
			}),
		}).
		Create(&usage).Error
}

func (r *activityRepo) ListRecentActivity(ctx context.Context, shop string, limit int) ([]model.TagActivity, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var list []model.TagActivity
	err := r.db.WithContext(ctx).
		Where("shop = ?", shop).
		Order("applied_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *activityRepo) ListUsage(ctx context.Context, shop string) ([]model.TagUsage, error) {
	var list []model.TagUsage
	err := r.db.WithContext(ctx).
		Where("shop = ?", shop).
		Order("use_count DESC, tag ASC").
		Find(&list).Error
	return list, err
}

func (r *activityRepo) GetUsage(ctx context.Context, shop, tag string) (*model.TagUsage, error) {
	var usage model.TagUsage
	if err := r.db.WithContext(ctx).
		Where("shop = ? AND tag = ?", shop, tag).
		First(&usage).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}
