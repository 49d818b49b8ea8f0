package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ==================== 历史数据回填进度 ====================

// PastDataStatus 回填状态
type PastDataStatus string

const (
	PastDataIdle       PastDataStatus = "idle"
	PastDataInProgress PastDataStatus = "in_progress"
	PastDataCompleted  PastDataStatus = "completed"
	PastDataError      PastDataStatus = "error"
)

// PastDataProgress 回填进度 (按状态区分的变体)
//   - idle:        percent = 0
//   - in_progress: percent ∈ [0, 100]
//   - completed:   percent = 100
//   - error:       detail 记录失败原因
type PastDataProgress struct {
	Status      PastDataStatus `json:"status"`
	Percent     int            `json:"percent"`
	LastUpdated time.Time      `json:"last_updated"`
	Detail      string         `json:"detail,omitempty"`
}

// IdleProgress 初始状态
func IdleProgress() PastDataProgress {
	return PastDataProgress{Status: PastDataIdle}
}

// InProgress 进行中
func InProgress(percent int, now time.Time) PastDataProgress {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return PastDataProgress{Status: PastDataInProgress, Percent: percent, LastUpdated: now}
}

// CompletedProgress 已完成
func CompletedProgress(now time.Time) PastDataProgress {
	return PastDataProgress{Status: PastDataCompleted, Percent: 100, LastUpdated: now}
}

// FailedProgress 失败，保留失败时的百分比
func FailedProgress(percent int, detail string, now time.Time) PastDataProgress {
	p := InProgress(percent, now)
	p.Status = PastDataError
	p.Detail = detail
	return p
}

// Validate 校验变体约束
func (p PastDataProgress) Validate() error {
	if p.Percent < 0 || p.Percent > 100 {
		return fmt.Errorf("percent out of range: %d", p.Percent)
	}
	switch p.Status {
	case PastDataIdle:
		if p.Percent != 0 {
			return errors.New("idle progress must have percent 0")
		}
	case PastDataInProgress:
	case PastDataCompleted:
		if p.Percent != 100 {
			return errors.New("completed progress must have percent 100")
		}
	case PastDataError:
	default:
		return fmt.Errorf("unknown status %q", p.Status)
	}
	if p.Detail != "" && p.Status != PastDataError {
		return errors.New("detail is only allowed on error status")
	}
	return nil
}

// ParsePastDataProgress 读取时校验，空值视为 idle
func ParsePastDataProgress(raw []byte) (PastDataProgress, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return IdleProgress(), nil
	}
	var p PastDataProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return IdleProgress(), fmt.Errorf("decode past data progress: %w", err)
	}
	if err := p.Validate(); err != nil {
		return IdleProgress(), fmt.Errorf("invalid past data progress: %w", err)
	}
	return p, nil
}

// ==================== 商家设置 ====================

// MerchantSettings 店铺级设置
type MerchantSettings struct {
	BaseModel
	Shop               string         `gorm:"size:255;not null;uniqueIndex" json:"shop"`
	PastDataOptIn      bool           `gorm:"not null;default:false" json:"past_data_opt_in"`
	PastDataProcessing bool           `gorm:"not null;default:false" json:"past_data_processing"`
	PastDataProgress   datatypes.JSON `json:"past_data_progress"`
}

func (MerchantSettings) TableName() string {
	return "merchant_settings"
}

// Progress 读取回填进度 (已校验)
func (s *MerchantSettings) Progress() (PastDataProgress, error) {
	return ParsePastDataProgress(s.PastDataProgress)
}

// SetProgress 写入回填进度
func (s *MerchantSettings) SetProgress(p PastDataProgress) error {
	if err := p.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	s.PastDataProgress = raw
	return nil
}

// ==================== 分批处理状态 ====================

// BatchProgress 单页处理结果快照
type BatchProgress struct {
	Processed   int       `json:"processed"`
	BatchSize   int       `json:"batch_size"`
	Done        bool      `json:"done"`
	AppliedTags []string  `json:"applied_tags,omitempty"`
	Skipped     int       `json:"skipped"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BatchState 每个 (店铺, 实体类型) 一条，保存游标与进度
type BatchState struct {
	BaseModel
	Shop       string         `gorm:"size:255;not null;uniqueIndex:uk_batch_shop_type" json:"shop"`
	EntityType EntityType     `gorm:"size:20;not null;uniqueIndex:uk_batch_shop_type" json:"entity_type"`
	Cursor     *string        `gorm:"type:text" json:"cursor"`
	Progress   datatypes.JSON `json:"progress"`
}

func (BatchState) TableName() string {
	return "batch_states"
}

// ErrDoneWithCursor done=true 时游标必须为空
var ErrDoneWithCursor = errors.New("batch progress is done but a cursor remains")

// GetProgress 读取进度，未开始返回 nil
func (s *BatchState) GetProgress() (*BatchProgress, error) {
	if len(s.Progress) == 0 || string(s.Progress) == "null" {
		return nil, nil
	}
	var p BatchProgress
	if err := json.Unmarshal(s.Progress, &p); err != nil {
		return nil, fmt.Errorf("decode batch progress: %w", err)
	}
	if p.Done && s.Cursor != nil {
		return nil, ErrDoneWithCursor
	}
	return &p, nil
}

// Apply 写入下一游标与进度
func (s *BatchState) Apply(cursor *string, p BatchProgress) error {
	if p.Done && cursor != nil {
		return ErrDoneWithCursor
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	s.Cursor = cursor
	s.Progress = raw
	return nil
}

// InProgress 已开始且未完成
func (s *BatchState) InProgress() bool {
	p, err := s.GetProgress()
	return err == nil && p != nil && !p.Done
}
