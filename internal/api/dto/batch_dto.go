package dto

import (
	"time"

	"shop_autotag/internal/model"
)

// ==================== 分批处理 DTO ====================

// BatchResult 单页处理结果
type BatchResult struct {
	EntityType  model.EntityType `json:"entity_type"`
	Processed   int              `json:"processed"`
	BatchSize   int              `json:"batch_size"`
	Done        bool             `json:"done"`
	AppliedTags int              `json:"applied_tags"`
	Skipped     int              `json:"skipped"`
	NextCursor  *string          `json:"next_cursor"`
}

// BatchStatusResp 分批处理状态
type BatchStatusResp struct {
	EntityType model.EntityType     `json:"entity_type"`
	Processing bool                 `json:"processing"`
	Stage      string               `json:"stage"` // 当前页所处阶段，没有调用在跑时为 idle
	Cursor     *string              `json:"cursor"`
	Progress   *model.BatchProgress `json:"progress"`
}

// ShopBatchResult ContinueAll 中单个店铺的结果
type ShopBatchResult struct {
	Shop    string       `json:"shop"`
	Success bool         `json:"success"`
	Busy    bool         `json:"busy,omitempty"` // 另一个调用方正在处理该店铺
	Result  *BatchResult `json:"result,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// ==================== 设置 DTO ====================

// UpdateSettingsReq 更新设置
type UpdateSettingsReq struct {
	ApplyToPastData *bool `json:"apply_to_past_data" binding:"required"`
}

// SettingsResp 商家设置响应
type SettingsResp struct {
	Shop               string                               `json:"shop"`
	ApplyToPastData    bool                                 `json:"apply_to_past_data"`
	PastDataProcessing bool                                 `json:"past_data_processing"`
	PastDataProgress   model.PastDataProgress               `json:"past_data_progress"`
	Batches            map[model.EntityType]BatchStatusResp `json:"batches"`
}

// ==================== 标签统计 DTO ====================

// TagUsageResp 标签使用计数
type TagUsageResp struct {
	Tag      string    `json:"tag"`
	Count    int64     `json:"count"`
	LastUsed time.Time `json:"last_used"`
}

// TagActivityResp 打标流水
type TagActivityResp struct {
	EntityType model.EntityType `json:"entity_type"`
	EntityID   string           `json:"entity_id"`
	Tag        string           `json:"tag"`
	RuleID     string           `json:"rule_id"`
	AppliedAt  time.Time        `json:"applied_at"`
}
