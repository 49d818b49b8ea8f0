package model

import (
	"fmt"
	"strings"
)

// EntityType 规则适用的实体类型 (封闭枚举)
type EntityType string

const (
	EntityOrder    EntityType = "Order"
	EntityCustomer EntityType = "Customer"
	EntityProduct  EntityType = "Product"
)

// AllEntityTypes 全量回填的遍历顺序: 订单 -> 客户 -> 商品
var AllEntityTypes = []EntityType{EntityOrder, EntityCustomer, EntityProduct}

// ParseEntityType 解析实体类型，兼容 "Order" / "order" / "orders"
func ParseEntityType(s string) (EntityType, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "order":
		return EntityOrder, nil
	case "customer":
		return EntityCustomer, nil
	case "product":
		return EntityProduct, nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// Valid 是否为合法枚举值
func (e EntityType) Valid() bool {
	return e == EntityOrder || e == EntityCustomer || e == EntityProduct
}

// Lower 小写形式 (用于路由与 GraphQL 字段前缀)
func (e EntityType) Lower() string {
	return strings.ToLower(string(e))
}
