package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shop_autotag/internal/api/dto"
	"shop_autotag/internal/middleware"
	"shop_autotag/internal/service"
	"shop_autotag/internal/task"
)

// BackfillStarter 历史数据回填入口 (task.TaskManager)
type BackfillStarter interface {
	TriggerBackfill(ctx context.Context, shop string) error
}

// SettingsController 商家设置与历史数据回填
type SettingsController struct {
	settingsSvc *service.SettingsService
	backfill    BackfillStarter
	logger      *zap.Logger
}

func NewSettingsController(settingsSvc *service.SettingsService, backfill BackfillStarter, logger *zap.Logger) *SettingsController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsController{settingsSvc: settingsSvc, backfill: backfill, logger: logger}
}

// GetSettings 获取设置
// @Summary 获取商家设置
// @Description 首次读取时创建默认设置；包含回填进度与各实体的分批进度
// @Tags Settings (商家设置)
// @Produce json
// @Security SessionToken
// @Success 200 {object} dto.SettingsResp
// @Failure 500 {object} map[string]interface{} "服务器错误"
// @Router /api/settings [get]
func (c *SettingsController) GetSettings(ctx *gin.Context) {
	resp, err := c.settingsSvc.GetSettings(ctx.Request.Context(), middleware.GetShop(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": resp})
}

// UpdateSettings 更新设置
// @Summary 更新商家设置
// @Description 打开 apply_to_past_data 时会尝试启动历史数据回填
// @Tags Settings (商家设置)
// @Accept json
// @Produce json
// @Security SessionToken
// @Param request body dto.UpdateSettingsReq true "设置"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Failure 500 {object} map[string]interface{} "服务器错误"
// @Router /api/settings [put]
func (c *SettingsController) UpdateSettings(ctx *gin.Context) {
	var req dto.UpdateSettingsReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	shop := middleware.GetShop(ctx)

	if err := c.settingsSvc.UpdateOptIn(ctx.Request.Context(), shop, *req.ApplyToPastData); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	started := false
	if *req.ApplyToPastData {
		err := c.backfill.TriggerBackfill(ctx.Request.Context(), shop)
		switch {
		case err == nil:
			started = true
		case isBackfillBusy(err):
			// 已在运行
		default:
			c.logger.Warn("[SettingsController] 启动历史数据回填失败", zap.String("shop", shop), zap.Error(err))
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "设置已保存",
		"data":    gin.H{"apply_to_past_data": *req.ApplyToPastData, "past_data_started": started},
	})
}

// StartPastData 手动启动历史数据回填
// @Summary 启动历史数据回填
// @Description 后台执行，进度通过 GET /api/settings 查询；运行中返回 409
// @Tags Settings (商家设置)
// @Produce json
// @Security SessionToken
// @Success 202 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "回填进行中"
// @Failure 429 {object} map[string]interface{} "冷却中"
// @Router /api/past-data/start [post]
func (c *SettingsController) StartPastData(ctx *gin.Context) {
	shop := middleware.GetShop(ctx)

	if err := c.backfill.TriggerBackfill(ctx.Request.Context(), shop); err != nil {
		if isBackfillBusy(err) {
			middleware.ReleaseCooldown(ctx)
			ctx.JSON(http.StatusConflict, gin.H{"code": 409, "message": "Past data processing already in progress"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"code": 202, "message": "历史数据回填已启动", "data": gin.H{"shop": shop}})
}

func isBackfillBusy(err error) bool {
	return errors.Is(err, task.ErrBackfillRunning)
}
