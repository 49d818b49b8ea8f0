package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shop_autotag/internal/api/dto"
	"shop_autotag/internal/model"
	"shop_autotag/internal/repository"
	"shop_autotag/internal/rule"
)

// ActivityService 打标流水与标签计数
type ActivityService struct {
	repo   repository.ActivityRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewActivityService(repo repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, logger: logger, now: time.Now}
}

// Record 每个新增标签追加一条流水并计数 +1
// 写回已经成功，这里的失败只记录日志，不向上返回
func (s *ActivityService) Record(ctx context.Context, shop string, entityType model.EntityType, entityID string, applied []rule.AppliedTag) {
	now := s.now()
	for _, a := range applied {
		activity := &model.TagActivity{
			Shop:       shop,
			EntityType: entityType,
			EntityID:   entityID,
			Tag:        a.Tag,
			RuleID:     a.RuleID,
			AppliedAt:  now,
		}
		if err := s.repo.CreateActivity(ctx, activity); err != nil {
			s.logger.Warn("[ActivityService] 写入打标流水失败",
				zap.String("shop", shop),
				zap.String("entity_id", entityID),
				zap.String("tag", a.Tag),
				zap.Error(err))
		}
		if err := s.repo.IncrementUsage(ctx, shop, a.Tag, now); err != nil {
			s.logger.Warn("[ActivityService] 更新标签计数失败",
				zap.String("shop", shop),
				zap.String("tag", a.Tag),
				zap.Error(err))
		}
	}
}

// ListUsage 标签使用排行
func (s *ActivityService) ListUsage(ctx context.Context, shop string) ([]dto.TagUsageResp, error) {
	list, err := s.repo.ListUsage(ctx, shop)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TagUsageResp, 0, len(list))
	for _, u := range list {
		out = append(out, dto.TagUsageResp{Tag: u.Tag, Count: u.Count, LastUsed: u.LastUsed})
	}
	return out, nil
}

// ListRecent 最近的打标流水
func (s *ActivityService) ListRecent(ctx context.Context, shop string, limit int) ([]dto.TagActivityResp, error) {
	list, err := s.repo.ListRecentActivity(ctx, shop, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TagActivityResp, 0, len(list))
	for _, a := range list {
		out = append(out, dto.TagActivityResp{
			EntityType: a.EntityType,
			EntityID:   a.EntityID,
			Tag:        a.Tag,
			RuleID:     a.RuleID,
			AppliedAt:  a.AppliedAt,
		})
	}
	return out, nil
}
