package repository

import (
	"context"

	"gorm.io/gorm"

	"shop_autotag/internal/model"
)

// ==================== 接口定义 ====================

// RuleRepository 规则仓储接口
type RuleRepository interface {
	Create(ctx context.Context, rule *model.Rule) error
	GetByID(ctx context.Context, shop, id string) (*model.Rule, error)
	// Delete 只删除本店铺的规则，不存在返回 gorm.ErrRecordNotFound
	Delete(ctx context.Context, shop, id string) error

	// List 列表查询 (创建时间倒序，供管理界面)
	List(ctx context.Context, filter RuleFilter) ([]model.Rule, int64, error)
	// ListActive 启用的规则，按存储顺序 (创建时间、ID 升序)
	ListActive(ctx context.Context, shop string) ([]model.Rule, error)
	// ListActiveByType 指定实体类型的启用规则，按存储顺序
	ListActiveByType(ctx context.Context, shop string, entityType model.EntityType) ([]model.Rule, error)
}

// ==================== 过滤条件 ====================

// RuleFilter 规则过滤条件
type RuleFilter struct {
	Shop      string
	AppliesTo model.EntityType // 空表示不筛选
	Page      int
	PageSize  int
}

// ==================== 仓储实现 ====================

type ruleRepo struct {
	db *gorm.DB
}

// NewRuleRepository 创建规则仓储
func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepo{db: db}
}

func (r *ruleRepo) Create(ctx context.Context, rule *model.Rule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *ruleRepo) GetByID(ctx context.Context, shop, id string) (*model.Rule, error) {
	var rule model.Rule
	if err := r.db.WithContext(ctx).
		Where("shop = ? AND id = ?", shop, id).
		First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepo) Delete(ctx context.Context, shop, id string) error {
	result := r.db.WithContext(ctx).
		Where("shop = ? AND id = ?", shop, id).
		Delete(&model.Rule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ruleRepo) List(ctx context.Context, filter RuleFilter) ([]model.Rule, int64, error) {
	var rules []model.Rule
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Rule{}).Where("shop = ?", filter.Shop)
	if filter.AppliesTo != "" {
		query = query.Where("applies_to = ?", filter.AppliesTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Order("created_at DESC, id DESC").Find(&rules).Error; err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}

func (r *ruleRepo) ListActive(ctx context.Context, shop string) ([]model.Rule, error) {
	var rules []model.Rule
	err := r.db.WithContext(ctx).
		Where("shop = ? AND is_active = ?", shop, true).
		Order("created_at ASC, id ASC").
		Find(&rules).Error
	return rules, err
}

func (r *ruleRepo) ListActiveByType(ctx context.Context, shop string, entityType model.EntityType) ([]model.Rule, error) {
	var rules []model.Rule
	err := r.db.WithContext(ctx).
		Where("shop = ? AND applies_to = ? AND is_active = ?", shop, entityType, true).
		Order("created_at ASC, id ASC").
		Find(&rules).Error
	return rules, err
}
