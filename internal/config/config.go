package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 服务全局配置
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Shopify  ShopifyConfig
	Retry    RetryConfig
	Batch    BatchConfig
	Log      LogConfig
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port string
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	DSN string
}

// ShopifyConfig 平台应用配置
type ShopifyConfig struct {
	APIKey     string
	APISecret  string
	APIVersion string
}

// RetryConfig 出站调用限流与重试
type RetryConfig struct {
	MinInterval time.Duration // 两次调用最小间隔
	MaxAttempts int           // 最大尝试次数 (含首次)
	BaseDelay   time.Duration // 429 无 Retry-After 时的初始退避
}

// BatchConfig 批处理配置
type BatchConfig struct {
	PageSize         int
	BackfillPageSize int
	EntityDelay      time.Duration
	Cron             string
	ShopConcurrency  int
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string
	Format string
}

// Load 加载配置
// 优先级: 环境变量 > config.yaml > 默认值；.env 文件会先被注入到环境变量
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			DSN: v.GetString("DATABASE_DSN"),
		},
		Shopify: ShopifyConfig{
			APIKey:     v.GetString("SHOPIFY_API_KEY"),
			APISecret:  v.GetString("SHOPIFY_API_SECRET"),
			APIVersion: v.GetString("SHOPIFY_API_VERSION"),
		},
		Retry: RetryConfig{
			MinInterval: v.GetDuration("RATE_MIN_INTERVAL"),
			MaxAttempts: v.GetInt("RETRY_MAX_ATTEMPTS"),
			BaseDelay:   v.GetDuration("RETRY_BASE_DELAY"),
		},
		Batch: BatchConfig{
			PageSize:         v.GetInt("BATCH_PAGE_SIZE"),
			BackfillPageSize: v.GetInt("BACKFILL_PAGE_SIZE"),
			EntityDelay:      v.GetDuration("BATCH_ENTITY_DELAY"),
			Cron:             v.GetString("BATCH_CRON"),
			ShopConcurrency:  v.GetInt("BATCH_SHOP_CONCURRENCY"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOGGING_LEVEL"),
			Format: v.GetString("LOGGING_FORMAT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验关键配置
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be positive, got %d", c.Retry.MaxAttempts)
	}
	if c.Batch.PageSize <= 0 || c.Batch.BackfillPageSize <= 0 {
		return errors.New("page sizes must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SHOPIFY_API_VERSION", "2024-10")

	v.SetDefault("RATE_MIN_INTERVAL", 500*time.Millisecond)
	v.SetDefault("RETRY_MAX_ATTEMPTS", 5)
	v.SetDefault("RETRY_BASE_DELAY", time.Second)

	v.SetDefault("BATCH_PAGE_SIZE", 25)
	v.SetDefault("BACKFILL_PAGE_SIZE", 250)
	v.SetDefault("BATCH_ENTITY_DELAY", 500*time.Millisecond)
	v.SetDefault("BATCH_CRON", "0 * * * * *")
	v.SetDefault("BATCH_SHOP_CONCURRENCY", 5)

	v.SetDefault("LOGGING_LEVEL", "info")
	v.SetDefault("LOGGING_FORMAT", "console")
}
