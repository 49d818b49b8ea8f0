package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shop_autotag/internal/api/dto"
	"shop_autotag/internal/middleware"
	"shop_autotag/internal/service"
)

// RuleController 打标规则管理
type RuleController struct {
	ruleSvc *service.RuleService
}

func NewRuleController(ruleSvc *service.RuleService) *RuleController {
	return &RuleController{ruleSvc: ruleSvc}
}

// ListRules 规则列表
// @Summary 获取规则列表
// @Description 当前店铺的规则，最新创建的在前
// @Tags Rule (打标规则)
// @Produce json
// @Security SessionToken
// @Param applies_to query string false "实体类型 Order/Customer/Product"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(50)
// @Success 200 {object} dto.RuleListResp "规则列表"
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Failure 500 {object} map[string]interface{} "服务器错误"
// @Router /api/rules [get]
func (c *RuleController) ListRules(ctx *gin.Context) {
	var req dto.RuleListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	resp, err := c.ruleSvc.ListRules(ctx.Request.Context(), middleware.GetShop(ctx), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEntityType) {
			ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": resp})
}

// CreateRule 创建规则
// @Summary 创建规则
// @Description 条件必须属于 applies_to 对应实体的条件集合
// @Tags Rule (打标规则)
// @Accept json
// @Produce json
// @Security SessionToken
// @Param request body dto.CreateRuleReq true "规则"
// @Success 201 {object} dto.RuleResp "新规则"
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Failure 500 {object} map[string]interface{} "服务器错误"
// @Router /api/rules [post]
func (c *RuleController) CreateRule(ctx *gin.Context) {
	var req dto.CreateRuleReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "All fields are required"})
		return
	}

	r, err := c.ruleSvc.CreateRule(ctx.Request.Context(), middleware.GetShop(ctx), req)
	if err != nil {
		if isValidationError(err) {
			ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"code": 201, "message": "规则已创建", "data": dto.ToRuleResp(r)})
}

// DeleteRule 删除规则
// @Summary 删除规则
// @Description 只能删除当前店铺的规则，其它店铺的规则按不存在处理
// @Tags Rule (打标规则)
// @Produce json
// @Security SessionToken
// @Param id path string true "规则ID"
// @Success 200 {object} map[string]interface{} "{"message": "删除成功"}"
// @Failure 404 {object} map[string]interface{} "规则不存在"
// @Failure 500 {object} map[string]interface{} "服务器错误"
// @Router /api/rules/{id} [delete]
func (c *RuleController) DeleteRule(ctx *gin.Context) {
	err := c.ruleSvc.DeleteRule(ctx.Request.Context(), middleware.GetShop(ctx), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "规则不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "删除成功"})
}

// ListConditions 条件目录
// @Summary 获取可用条件
// @Description 按实体类型分组的条件及取值类型，用于前端表单
// @Tags Rule (打标规则)
// @Produce json
// @Security SessionToken
// @Success 200 {object} map[string]interface{}
// @Router /api/rules/conditions [get]
func (c *RuleController) ListConditions(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": c.ruleSvc.Conditions()})
}

// ==================== 工具函数 ====================

// isValidationError 业务校验类错误映射为 400
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrInvalidEntityType) ||
		errors.Is(err, service.ErrInvalidCondition) ||
		errors.Is(err, service.ErrInvalidRule)
}
