package middleware

import (
	"context"
	"reflect"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ==================== 租户上下文 ====================

type tenantContextKey struct{}

// WithShop 注入当前店铺到 context
func WithShop(ctx context.Context, shop string) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, shop)
}

// ShopFromContext 从 context 获取当前店铺
func ShopFromContext(ctx context.Context) string {
	if shop, ok := ctx.Value(tenantContextKey{}).(string); ok {
		return shop
	}
	return ""
}

// ==================== Gin 中间件 ====================

// TenantContext 将认证得到的店铺写入 request context，供 GORM 回调使用
func TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if shop := GetShop(c); shop != "" {
			c.Request = c.Request.WithContext(WithShop(c.Request.Context(), shop))
		}
		c.Next()
	}
}

// ==================== GORM 回调 ====================

// RegisterTenantCallbacks 创建记录时自动填充空的 Shop 字段
func RegisterTenantCallbacks(db *gorm.DB) error {
	return db.Callback().Create().Before("gorm:create").Register("tenant:create", func(tx *gorm.DB) {
		if tx.Statement.Context == nil || tx.Statement.Schema == nil {
			return
		}
		shop := ShopFromContext(tx.Statement.Context)
		if shop == "" {
			return
		}

		field := tx.Statement.Schema.LookUpField("Shop")
		if field == nil {
			return
		}

		switch tx.Statement.ReflectValue.Kind() {
		case reflect.Struct:
			if _, isZero := field.ValueOf(tx.Statement.Context, tx.Statement.ReflectValue); isZero {
				_ = field.Set(tx.Statement.Context, tx.Statement.ReflectValue, shop)
			}
		case reflect.Slice:
			for i := 0; i < tx.Statement.ReflectValue.Len(); i++ {
				rv := tx.Statement.ReflectValue.Index(i)
				if _, isZero := field.ValueOf(tx.Statement.Context, rv); isZero {
					_ = field.Set(tx.Statement.Context, rv, shop)
				}
			}
		}
	})
}
