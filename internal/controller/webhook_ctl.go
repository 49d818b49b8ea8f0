package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shop_autotag/internal/api/dto"
	"shop_autotag/internal/middleware"
	"shop_autotag/internal/service"
)

// WebhookController 平台事件回调
// 签名与店铺由 middleware.WebhookAuth 处理
type WebhookController struct {
	webhookSvc *service.WebhookService
	logger     *zap.Logger
}

func NewWebhookController(webhookSvc *service.WebhookService, logger *zap.Logger) *WebhookController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookController{webhookSvc: webhookSvc, logger: logger}
}

// OrderCreated 新订单
// @Summary 订单创建回调
// @Tags Webhook (平台回调)
// @Accept json
// @Produce json
// @Param X-Shopify-Hmac-Sha256 header string true "请求体签名"
// @Param X-Shopify-Shop-Domain header string true "店铺域名"
// @Param request body dto.OrderWebhook true "订单"
// @Success 200 {object} service.WebhookResult
// @Failure 400 {object} map[string]interface{} "载荷错误"
// @Failure 401 {object} map[string]interface{} "签名错误"
// @Failure 500 {object} map[string]interface{} "写回标签失败"
// @Router /webhooks/orders/create [post]
func (c *WebhookController) OrderCreated(ctx *gin.Context) {
	var payload dto.OrderWebhook
	if !c.bind(ctx, &payload) {
		return
	}
	res, err := c.webhookSvc.HandleOrderCreated(ctx.Request.Context(), middleware.GetShop(ctx), &payload)
	c.respond(ctx, res, err)
}

// CustomerCreated 新客户
// @Summary 客户创建回调
// @Tags Webhook (平台回调)
// @Accept json
// @Produce json
// @Param X-Shopify-Hmac-Sha256 header string true "请求体签名"
// @Param X-Shopify-Shop-Domain header string true "店铺域名"
// @Param request body dto.CustomerWebhook true "客户"
// @Success 200 {object} service.WebhookResult
// @Failure 400 {object} map[string]interface{} "载荷错误"
// @Failure 401 {object} map[string]interface{} "签名错误"
// @Failure 500 {object} map[string]interface{} "写回标签失败"
// @Router /webhooks/customers/create [post]
func (c *WebhookController) CustomerCreated(ctx *gin.Context) {
	var payload dto.CustomerWebhook
	if !c.bind(ctx, &payload) {
		return
	}
	res, err := c.webhookSvc.HandleCustomerCreated(ctx.Request.Context(), middleware.GetShop(ctx), &payload)
	c.respond(ctx, res, err)
}

// ProductCreated 新商品
// @Summary 商品创建回调
// @Tags Webhook (平台回调)
// @Accept json
// @Produce json
// @Param X-Shopify-Hmac-Sha256 header string true "请求体签名"
// @Param X-Shopify-Shop-Domain header string true "店铺域名"
// @Param request body dto.ProductWebhook true "商品"
// @Success 200 {object} service.WebhookResult
// @Failure 400 {object} map[string]interface{} "载荷错误"
// @Failure 401 {object} map[string]interface{} "签名错误"
// @Failure 500 {object} map[string]interface{} "写回标签失败"
// @Router /webhooks/products/create [post]
func (c *WebhookController) ProductCreated(ctx *gin.Context) {
	var payload dto.ProductWebhook
	if !c.bind(ctx, &payload) {
		return
	}
	res, err := c.webhookSvc.HandleProductCreated(ctx.Request.Context(), middleware.GetShop(ctx), &payload)
	c.respond(ctx, res, err)
}

// AppUninstalled 应用卸载
// @Summary 应用卸载回调
// @Tags Webhook (平台回调)
// @Param X-Shopify-Hmac-Sha256 header string true "请求体签名"
// @Param X-Shopify-Shop-Domain header string true "店铺域名"
// @Success 200 {object} map[string]interface{}
// @Router /webhooks/app/uninstalled [post]
func (c *WebhookController) AppUninstalled(ctx *gin.Context) {
	shop := middleware.GetShop(ctx)
	if err := c.webhookSvc.HandleAppUninstalled(ctx.Request.Context(), shop); err != nil {
		c.logger.Error("[WebhookController] 处理卸载失败", zap.String("shop", shop), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to handle uninstall", "details": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// ==================== 工具函数 ====================

func (c *WebhookController) bind(ctx *gin.Context, payload interface{}) bool {
	if err := ctx.ShouldBindJSON(payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload", "details": err.Error()})
		return false
	}
	return true
}

func (c *WebhookController) respond(ctx *gin.Context, res *service.WebhookResult, err error) {
	log := c.logger.With(
		zap.String("shop", middleware.GetShop(ctx)),
		zap.String("topic", ctx.GetHeader(middleware.HeaderWebhookTopic)))

	if err != nil {
		var writeErr *service.TagWriteError
		switch {
		case errors.Is(err, service.ErrInvalidPayload):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload", "details": err.Error()})
		case errors.As(err, &writeErr):
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": writeErr.Message(), "details": writeErr.Err.Error()})
		default:
			log.Error("[WebhookController] 处理失败", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook", "details": err.Error()})
		}
		return
	}

	log.Info("[WebhookController] 处理完成",
		zap.String("entity_id", res.EntityID),
		zap.Bool("updated", res.Updated),
		zap.Strings("applied_tags", res.AppliedTags))
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}
