package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shop_autotag/internal/api/dto"
	"shop_autotag/internal/model"
	"shop_autotag/internal/repository"
)

// SettingsService 商家设置
type SettingsService struct {
	settingsRepo repository.SettingsRepository
	batches      *BatchService
	logger       *zap.Logger
}

func NewSettingsService(settingsRepo repository.SettingsRepository, batches *BatchService, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{settingsRepo: settingsRepo, batches: batches, logger: logger}
}

// GetSettings 首次读取时创建默认设置
func (s *SettingsService) GetSettings(ctx context.Context, shop string) (*dto.SettingsResp, error) {
	settings, err := s.settingsRepo.GetOrCreate(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	progress, err := settings.Progress()
	if err != nil {
		s.logger.Warn("[SettingsService] 回填进度无效，按 idle 返回", zap.String("shop", shop), zap.Error(err))
	}

	resp := &dto.SettingsResp{
		Shop:               shop,
		ApplyToPastData:    settings.PastDataOptIn,
		PastDataProcessing: settings.PastDataProcessing,
		PastDataProgress:   progress,
		Batches:            make(map[model.EntityType]dto.BatchStatusResp, len(model.AllEntityTypes)),
	}
	for _, et := range model.AllEntityTypes {
		status, err := s.batches.GetBatchStatus(ctx, shop, et)
		if err != nil {
			s.logger.Warn("[SettingsService] 读取批次状态失败",
				zap.String("shop", shop),
				zap.String("entity_type", string(et)),
				zap.Error(err))
			status = &dto.BatchStatusResp{EntityType: et}
		}
		resp.Batches[et] = *status
	}
	return resp, nil
}

// UpdateOptIn 保存是否对历史数据生效
func (s *SettingsService) UpdateOptIn(ctx context.Context, shop string, optIn bool) error {
	if err := s.settingsRepo.SetOptIn(ctx, shop, optIn); err != nil {
		return fmt.Errorf("save opt-in: %w", err)
	}
	s.logger.Info("[SettingsService] 更新历史数据开关", zap.String("shop", shop), zap.Bool("opt_in", optIn))
	return nil
}
