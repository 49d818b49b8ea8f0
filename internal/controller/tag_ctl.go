package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shop_autotag/internal/middleware"
	"shop_autotag/internal/service"
)

// TagController 标签统计
type TagController struct {
	activitySvc *service.ActivityService
}

func NewTagController(activitySvc *service.ActivityService) *TagController {
	return &TagController{activitySvc: activitySvc}
}

// ListUsage 标签使用计数
// @Summary 标签使用排行
// @Tags Tag (标签统计)
// @Produce json
// @Security SessionToken
// @Success 200 {array} dto.TagUsageResp
// @Router /api/tags/usage [get]
func (c *TagController) ListUsage(ctx *gin.Context) {
	list, err := c.activitySvc.ListUsage(ctx.Request.Context(), middleware.GetShop(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": list})
}

// ListActivity 最近打标记录
// @Summary 最近打标记录
// @Tags Tag (标签统计)
// @Produce json
// @Security SessionToken
// @Param limit query int false "条数" default(50)
// @Success 200 {array} dto.TagActivityResp
// @Router /api/tags/activity [get]
func (c *TagController) ListActivity(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	list, err := c.activitySvc.ListRecent(ctx.Request.Context(), middleware.GetShop(ctx), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": list})
}
