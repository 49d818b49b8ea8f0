package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shop_autotag/internal/config"
	"shop_autotag/internal/controller"
	"shop_autotag/internal/logger"
	"shop_autotag/internal/middleware"
	"shop_autotag/internal/model"
	"shop_autotag/internal/repository"
	"shop_autotag/internal/router"
	"shop_autotag/internal/service"
	"shop_autotag/internal/task"
	"shop_autotag/pkg/database"
	"shop_autotag/pkg/net"
)

// @title Shop Auto-Tag API
// @version 1.0
// @description 按规则为订单、客户、商品自动打标签
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey SessionToken
// @in header
// @name Authorization
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		// logger 尚未初始化
		panic(err)
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// 2. 初始化数据库
	db, err := initDatabase(cfg, log)
	if err != nil {
		log.Fatal("[Main] 数据库初始化失败", zap.Error(err))
	}

	// 3. 初始化依赖
	deps := initDependencies(cfg, db, log)

	// 4. 启动后台任务
	deps.Tasks.Start()

	// 5. 初始化路由
	r := gin.New()
	r.Use(gin.Recovery())
	router.InitRoutes(r, deps.Controllers, cfg.Shopify.APISecret)

	// 6. 启动服务
	startServer(cfg.Server.Port, r, deps.Tasks, log)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Tasks       *task.TaskManager
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Shop       repository.ShopRepository
	Rule       repository.RuleRepository
	Settings   repository.SettingsRepository
	BatchState repository.BatchStateRepository
	Activity   repository.ActivityRepository
}

// Services 服务集合
type Services struct {
	Rule     *service.RuleService
	Activity *service.ActivityService
	Batch    *service.BatchService
	Backfill *service.BackfillService
	Settings *service.SettingsService
	Webhook  *service.WebhookService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库并注册租户回调
func initDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := database.InitDB(cfg.Database.DSN, log,
		// Shop
		&model.Shop{},
		// Rule
		&model.Rule{},
		// Settings & Batch
		&model.MerchantSettings{}, &model.BatchState{},
		// Activity
		&model.TagActivity{}, &model.TagUsage{},
	)
	if err != nil {
		return nil, err
	}
	if err := middleware.RegisterTenantCallbacks(db); err != nil {
		return nil, err
	}
	return db, nil
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB, log *zap.Logger) *Dependencies {
	middleware.SetSessionConfig(&middleware.SessionConfig{
		APIKey:    cfg.Shopify.APIKey,
		APISecret: cfg.Shopify.APISecret,
		Leeway:    5 * time.Second,
	})

	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- 平台客户端 --------
	provider := service.NewShopifyProvider(repos.Shop, net.RetryConfig{
		MinInterval: cfg.Retry.MinInterval,
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
	}, cfg.Shopify.APIVersion, logger.Named("shopify"))

	// -------- 业务服务 --------
	services := &Services{
		Rule:     service.NewRuleService(repos.Rule, log),
		Activity: service.NewActivityService(repos.Activity, log),
	}
	services.Batch = service.NewBatchService(
		repos.Rule, repos.BatchState, provider, services.Activity,
		service.BatchServiceConfig{PageSize: cfg.Batch.PageSize, EntityDelay: cfg.Batch.EntityDelay},
		log,
	)
	services.Backfill = service.NewBackfillService(
		repos.Settings, repos.Rule, provider, services.Activity, cfg.Batch.BackfillPageSize, log,
	)
	services.Settings = service.NewSettingsService(repos.Settings, services.Batch, log)
	services.Webhook = service.NewWebhookService(repos.Rule, repos.Shop, provider, services.Activity, log)

	// -------- 后台任务 --------
	tasks := task.NewTaskManager(&task.TaskManagerDeps{
		Batches:  services.Batch,
		Backfill: services.Backfill,
	}, &task.TaskManagerConfig{
		BatchEnabled:    true,
		BatchCron:       cfg.Batch.Cron,
		ShopConcurrency: cfg.Batch.ShopConcurrency,
	}, log)

	// -------- Controller 层 --------
	controllers := initControllers(services, tasks, log)

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Tasks:       tasks,
		Controllers: controllers,
	}
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Shop:       repository.NewShopRepository(db),
		Rule:       repository.NewRuleRepository(db),
		Settings:   repository.NewSettingsRepository(db),
		BatchState: repository.NewBatchStateRepository(db),
		Activity:   repository.NewActivityRepository(db),
	}
}

// initControllers 初始化所有控制器
func initControllers(svc *Services, tasks *task.TaskManager, log *zap.Logger) *router.Controllers {
	return &router.Controllers{
		Rule:     controller.NewRuleController(svc.Rule),
		Batch:    controller.NewBatchController(svc.Batch),
		Settings: controller.NewSettingsController(svc.Settings, tasks, log),
		Tag:      controller.NewTagController(svc.Activity),
		Webhook:  controller.NewWebhookController(svc.Webhook, log),
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务，收到退出信号后先停 HTTP 再停后台任务
func startServer(port string, r *gin.Engine, tasks *task.TaskManager, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Info("[Main] 服务启动", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("[Main] 服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("[Main] 正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("[Main] 服务强制关闭", zap.Error(err))
	}
	tasks.Stop()

	log.Info("[Main] 服务已退出")
}
