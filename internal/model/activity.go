package model

import "time"

// TagActivity 打标流水 (只追加)
type TagActivity struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Shop       string     `gorm:"size:255;not null;index:idx_activity_shop_time" json:"shop"`
	EntityType EntityType `gorm:"size:20;not null" json:"entity_type"`
	EntityID   string     `gorm:"size:255;not null" json:"entity_id"`
	Tag        string     `gorm:"size:255;not null" json:"tag"`
	RuleID     string     `gorm:"size:36;index" json:"rule_id"`
	AppliedAt  time.Time  `gorm:"not null;index:idx_activity_shop_time" json:"applied_at"`
}

func (TagActivity) TableName() string {
	return "tag_activities"
}

// TagUsage 标签使用计数，(shop, tag) 唯一
type TagUsage struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Shop     string    `gorm:"size:255;not null;uniqueIndex:uk_usage_shop_tag" json:"shop"`
	Tag      string    `gorm:"size:255;not null;uniqueIndex:uk_usage_shop_tag" json:"tag"`
	Count    int64     `gorm:"column:use_count;not null;default:0" json:"count"`
	LastUsed time.Time `json:"last_used"`
}

func (TagUsage) TableName() string {
	return "tag_usages"
}
