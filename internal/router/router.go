package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"shop_autotag/internal/controller"
	"shop_autotag/internal/middleware"

	_ "shop_autotag/docs"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Rule     *controller.RuleController
	Batch    *controller.BatchController
	Settings *controller.SettingsController
	Tag      *controller.TagController
	Webhook  *controller.WebhookController
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctls *Controllers, webhookSecret string) {
	// 1. Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 2. 管理接口 (嵌入式应用 Session Token)
	api := r.Group("/api", middleware.SessionAuth(), middleware.TenantContext())
	{
		rules := api.Group("/rules")
		{
			// GET /api/rules
			rules.GET("", ctls.Rule.ListRules)
			rules.POST("", ctls.Rule.CreateRule)
			// GET /api/rules/conditions
			rules.GET("/conditions", ctls.Rule.ListConditions)
			rules.DELETE("/:id", ctls.Rule.DeleteRule)
		}

		batch := api.Group("/batch")
		{
			// GET /api/batch/order
			batch.GET("/:entityType", ctls.Batch.GetStatus)
			batch.POST("/:entityType", middleware.ShopCooldown(middleware.ActionBatch, 0), ctls.Batch.Start)
			// POST /api/batch/order/continue
			batch.POST("/:entityType/continue", ctls.Batch.Continue)
		}

		api.GET("/settings", ctls.Settings.GetSettings)
		api.PUT("/settings", ctls.Settings.UpdateSettings)
		// 冷却期内重复触发直接 429
		api.POST("/past-data/start", middleware.ShopCooldown(middleware.ActionPastData, 0), ctls.Settings.StartPastData)

		tags := api.Group("/tags")
		{
			tags.GET("/usage", ctls.Tag.ListUsage)
			tags.GET("/activity", ctls.Tag.ListActivity)
		}
	}

	// 3. 平台回调 (HMAC 签名)
	hooks := r.Group("/webhooks", middleware.WebhookAuth(webhookSecret))
	{
		hooks.POST("/orders/create", ctls.Webhook.OrderCreated)
		hooks.POST("/customers/create", ctls.Webhook.CustomerCreated)
		hooks.POST("/products/create", ctls.Webhook.ProductCreated)
		hooks.POST("/app/uninstalled", ctls.Webhook.AppUninstalled)
	}
}
