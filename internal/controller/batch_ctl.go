package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shop_autotag/internal/middleware"
	"shop_autotag/internal/model"
	"shop_autotag/internal/service"
)

// BatchController 分批打标
type BatchController struct {
	batchSvc *service.BatchService
}

func NewBatchController(batchSvc *service.BatchService) *BatchController {
	return &BatchController{batchSvc: batchSvc}
}

// GetStatus 分批处理状态
// @Summary 获取分批处理状态
// @Tags Batch (分批打标)
// @Produce json
// @Security SessionToken
// @Param entityType path string true "order / customer / product"
// @Success 200 {object} dto.BatchStatusResp
// @Failure 400 {object} map[string]interface{} "实体类型错误"
// @Router /api/batch/{entityType} [get]
func (c *BatchController) GetStatus(ctx *gin.Context) {
	et, ok := parseEntityType(ctx)
	if !ok {
		return
	}

	resp, err := c.batchSvc.GetBatchStatus(ctx.Request.Context(), middleware.GetShop(ctx), et)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": resp})
}

// Start 开始新一轮分批处理
// @Summary 开始分批处理
// @Description 从头开始并处理第一页；上一轮未完成时返回 409
// @Tags Batch (分批打标)
// @Produce json
// @Security SessionToken
// @Param entityType path string true "order / customer / product"
// @Success 200 {object} dto.BatchResult
// @Failure 409 {object} map[string]interface{} "已有分批处理在进行"
// @Failure 429 {object} map[string]interface{} "冷却中"
// @Router /api/batch/{entityType} [post]
func (c *BatchController) Start(ctx *gin.Context) {
	et, ok := parseEntityType(ctx)
	if !ok {
		return
	}
	shop := middleware.GetShop(ctx)

	resp, err := c.batchSvc.StartBatch(ctx.Request.Context(), shop, et)
	if err != nil {
		if errors.Is(err, service.ErrBatchInProgress) {
			middleware.ReleaseCooldown(ctx)
			ctx.JSON(http.StatusConflict, gin.H{"code": 409, "message": "Batch processing already in progress"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "本页处理完成", "data": resp})
}

// Continue 继续处理下一页
// @Summary 继续分批处理
// @Description 从保存的游标处理下一页，已完成时返回 already completed；同一实体类型正在处理时返回 409
// @Tags Batch (分批打标)
// @Produce json
// @Security SessionToken
// @Param entityType path string true "order / customer / product"
// @Success 200 {object} dto.ShopBatchResult
// @Failure 409 {object} map[string]interface{} "该实体类型正在处理中"
// @Failure 500 {object} map[string]interface{} "处理失败"
// @Router /api/batch/{entityType}/continue [post]
func (c *BatchController) Continue(ctx *gin.Context) {
	et, ok := parseEntityType(ctx)
	if !ok {
		return
	}
	shop := middleware.GetShop(ctx)

	res := c.batchSvc.ContinueShop(ctx.Request.Context(), shop, et)
	switch {
	case res.Busy:
		ctx.JSON(http.StatusConflict, gin.H{"code": 409, "message": "Batch processing already in progress"})
		return
	case !res.Success:
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": res.Error})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": res})
}

// parseEntityType 解析路径中的实体类型，失败时直接写 400
func parseEntityType(ctx *gin.Context) (model.EntityType, bool) {
	et, err := model.ParseEntityType(ctx.Param("entityType"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的实体类型"})
		return "", false
	}
	return et, true
}
