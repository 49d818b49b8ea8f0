package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shop_autotag/internal/model"
)

// ==================== 商家设置 ====================

// SettingsRepository 商家设置仓储接口
type SettingsRepository interface {
	// GetOrCreate 首次读取时创建默认设置 (进度 idle)
	GetOrCreate(ctx context.Context, shop string) (*model.MerchantSettings, error)
	SetOptIn(ctx context.Context, shop string, optIn bool) error
	// SaveProgress 同时写入 processing 标记与回填进度
	SaveProgress(ctx context.Context, shop string, processing bool, progress model.PastDataProgress) error
	// ListProcessing processing 标记仍为 true 的店铺
	ListProcessing(ctx context.Context) ([]model.MerchantSettings, error)
}

type settingsRepo struct {
	db *gorm.DB
}

// NewSettingsRepository 创建商家设置仓储
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) GetOrCreate(ctx context.Context, shop string) (*model.MerchantSettings, error) {
	idle, err := json.Marshal(model.IdleProgress())
	if err != nil {
		return nil, err
	}

	var s model.MerchantSettings
	err = r.db.WithContext(ctx).
		Where(model.MerchantSettings{Shop: shop}).
		Attrs(model.MerchantSettings{PastDataProgress: datatypes.JSON(idle)}).
		FirstOrCreate(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepo) SetOptIn(ctx context.Context, shop string, optIn bool) error {
	if _, err := r.GetOrCreate(ctx, shop); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&model.MerchantSettings{}).
		Where("shop = ?", shop).
		Update("past_data_opt_in", optIn).Error
}

func (r *settingsRepo) SaveProgress(ctx context.Context, shop string, processing bool, progress model.PastDataProgress) error {
	if err := progress.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	if _, err := r.GetOrCreate(ctx, shop); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&model.MerchantSettings{}).
		Where("shop = ?", shop).
		Updates(map[string]interface{}{
			"past_data_processing": processing,
			"past_data_progress":   datatypes.JSON(raw),
		}).Error
}

func (r *settingsRepo) ListProcessing(ctx context.Context) ([]model.MerchantSettings, error) {
	var list []model.MerchantSettings
	err := r.db.WithContext(ctx).
		Where("past_data_processing = ?", true).
		Order("shop ASC").
		Find(&list).Error
	return list, err
}

// ==================== 分批处理状态 ====================

// BatchStateRepository (店铺, 实体类型) 游标与进度仓储
type BatchStateRepository interface {
	// Get 不存在时返回 nil, nil
	Get(ctx context.Context, shop string, entityType model.EntityType) (*model.BatchState, error)
	// Save 按 (shop, entity_type) 写入游标与进度
	Save(ctx context.Context, state *model.BatchState) error
	// Reset 清空游标与进度 (重新开始)
	Reset(ctx context.Context, shop string, entityType model.EntityType) error
	// ListUnfinished 仍有游标 (未完成) 的记录
	ListUnfinished(ctx context.Context, entityType model.EntityType) ([]model.BatchState, error)
}

type batchStateRepo struct {
	db *gorm.DB
}

// NewBatchStateRepository 创建分批状态仓储
func NewBatchStateRepository(db *gorm.DB) BatchStateRepository {
	return &batchStateRepo{db: db}
}

func (r *batchStateRepo) Get(ctx context.Context, shop string, entityType model.EntityType) (*model.BatchState, error) {
	var s model.BatchState
	err := r.db.WithContext(ctx).
		Where("shop = ? AND entity_type = ?", shop, entityType).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *batchStateRepo) Save(ctx context.Context, state *model.BatchState) error {
	if p, err := state.GetProgress(); err != nil {
		return err
	} else if p != nil && p.Done && state.Cursor != nil {
		return model.ErrDoneWithCursor
	}

	row := model.BatchState{
		Shop:       state.Shop,
		EntityType: state.EntityType,
		Cursor:     state.Cursor,
		Progress:   state.Progress,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop"}, {Name: "entity_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"cursor", "progress", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *batchStateRepo) Reset(ctx context.Context, shop string, entityType model.EntityType) error {
	return r.db.WithContext(ctx).
		Model(&model.BatchState{}).
		Where("shop = ? AND entity_type = ?", shop, entityType).
		Updates(map[string]interface{}{
			"cursor":   nil,
			"progress": nil,
		}).Error
}

func (r *batchStateRepo) ListUnfinished(ctx context.Context, entityType model.EntityType) ([]model.BatchState, error) {
	var states []model.BatchState
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND cursor IS NOT NULL", entityType).
		Order("shop ASC").
		Find(&states).Error
	return states, err
}
