package database

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlitePrefix 本地调试用 sqlite，例如 sqlite://autotag.db
const sqlitePrefix = "sqlite://"

// InitDB 初始化数据库连接
// dsn: 数据库连接字符串，sqlite:// 前缀使用 sqlite，其余按 postgres 处理
// models: 需要自动建表/迁移的结构体指针
func InitDB(dsn string, log *zap.Logger, models ...interface{}) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// 只打印慢 SQL 与错误
	dbLogger := logger.Default.LogMode(logger.Warn)

	db, err := gorm.Open(dialector(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// 获取底层的 sqlDB 对象，用于设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	if isSQLite(dsn) {
		// sqlite 单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info("[Database] 数据库连接成功", zap.Bool("sqlite", isSQLite(dsn)))

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	return db, nil
}

func isSQLite(dsn string) bool {
	return strings.HasPrefix(dsn, sqlitePrefix)
}

func dialector(dsn string) gorm.Dialector {
	if isSQLite(dsn) {
		return sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix))
	}
	return postgres.Open(dsn)
}
