package dto

import (
	"time"

	"shop_autotag/internal/model"
)

// ==================== 规则 DTO ====================

// CreateRuleReq 创建规则请求
type CreateRuleReq struct {
	Name           string `json:"name" binding:"required"`
	AppliesTo      string `json:"applies_to" binding:"required"`
	Condition      string `json:"condition" binding:"required"`
	ConditionValue string `json:"condition_value" binding:"required"`
	Tag            string `json:"tag" binding:"required"`
}

// RuleListReq 规则列表请求
type RuleListReq struct {
	AppliesTo string `form:"applies_to"`
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=50"`
}

// RuleResp 规则响应
type RuleResp struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	AppliesTo      string    `json:"applies_to"`
	Condition      string    `json:"condition"`
	ConditionValue string    `json:"condition_value"`
	Tag            string    `json:"tag"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// RuleListResp 规则列表响应
type RuleListResp struct {
	List  []RuleResp `json:"list"`
	Total int64      `json:"total"`
}

// ToRuleResp 模型转响应
func ToRuleResp(r *model.Rule) RuleResp {
	return RuleResp{
		ID:             r.ID,
		Name:           r.Name,
		AppliesTo:      string(r.AppliesTo),
		Condition:      r.Condition,
		ConditionValue: r.ConditionValue,
		Tag:            r.Tag,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
	}
}
