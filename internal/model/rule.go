package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rule 商家定义的打标规则: 单一条件 -> 追加一个标签
// 创建后不再修改，只能删除
type Rule struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	Shop           string     `gorm:"size:255;not null;index:idx_rule_shop_type" json:"shop"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	AppliesTo      EntityType `gorm:"size:20;not null;index:idx_rule_shop_type" json:"applies_to"`
	Condition      string     `gorm:"size:64;not null" json:"condition"`
	ConditionValue string     `gorm:"size:512;not null" json:"condition_value"`
	Tag            string     `gorm:"size:255;not null" json:"tag"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Rule) TableName() string {
	return "rules"
}

// BeforeCreate 生成 UUID 主键
func (r *Rule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ==================== 条件目录 ====================

// 订单条件
const (
	CondTotalGreaterThan  = "total_greater_than"
	CondTotalLessThan     = "total_less_than"
	CondDiscountUsed      = "discount_used"
	CondContainsItem      = "contains_item"
	CondShippingMethod    = "shipping_method"
	CondOrderTag          = "order_tag"
	CondIsFirstOrder      = "is_first_order"
	CondFulfillmentStatus = "fulfillment_status"
)

// 客户条件
const (
	CondTotalSpent       = "total_spent"
	CondOrdersPlaced     = "orders_placed"
	CondHasEmail         = "has_email"
	CondCustomerTagged   = "customer_tagged"
	CondAcceptsMarketing = "accepts_marketing"
	CondCustomerLocation = "customer_location"
	CondCreatedBefore    = "created_before"
)

// 商品条件
const (
	CondProductIs       = "product_is"
	CondTitleContains   = "title_contains"
	CondVendorIs        = "vendor_is"
	CondPriceOver       = "price_over"
	CondProductType     = "product_type"
	CondInventoryLow    = "inventory_low"
	CondProductTag      = "product_tag"
	CondSKUStartsWith   = "sku_starts_with"
	CondPublishedBefore = "published_before"
)

// ValueKind 条件值的输入类型 (供前端渲染输入控件)
type ValueKind string

const (
	ValueNumber  ValueKind = "number"
	ValueBoolean ValueKind = "boolean"
	ValueText    ValueKind = "text"
	ValueDate    ValueKind = "date"
	ValueCountry ValueKind = "country"
	ValueProduct ValueKind = "product"
	ValueTag     ValueKind = "tag"
	ValueChoice  ValueKind = "choice"
)

// ConditionSpec 条件元数据
type ConditionSpec struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	ValueKind ValueKind `json:"value_kind"`
	Options   []string  `json:"options,omitempty"`
}

var yesNo = []string{"Yes", "No"}

// ConditionCatalog 每种实体可用的条件，顺序即前端展示顺序
var ConditionCatalog = map[EntityType][]ConditionSpec{
	EntityOrder: {
		{Key: CondTotalGreaterThan, Label: "Order total greater than", ValueKind: ValueNumber},
		{Key: CondTotalLessThan, Label: "Order total less than", ValueKind: ValueNumber},
		{Key: CondDiscountUsed, Label: "Discount code used", ValueKind: ValueBoolean, Options: yesNo},
		{Key: CondContainsItem, Label: "Contains product", ValueKind: ValueProduct},
		{Key: CondShippingMethod, Label: "Shipping method", ValueKind: ValueText},
		{Key: CondOrderTag, Label: "Order has tag", ValueKind: ValueTag},
		{Key: CondIsFirstOrder, Label: "Is first order", ValueKind: ValueBoolean, Options: yesNo},
		{Key: CondFulfillmentStatus, Label: "Fulfillment status", ValueKind: ValueChoice,
			Options: []string{"Unfulfilled", "Partial", "Fulfilled"}},
	},
	EntityCustomer: {
		{Key: CondTotalSpent, Label: "Total spent greater than", ValueKind: ValueNumber},
		{Key: CondOrdersPlaced, Label: "Orders placed greater than", ValueKind: ValueNumber},
		{Key: CondHasEmail, Label: "Has email", ValueKind: ValueBoolean, Options: yesNo},
		{Key: CondCustomerTagged, Label: "Customer has tag", ValueKind: ValueTag},
		{Key: CondAcceptsMarketing, Label: "Accepts marketing", ValueKind: ValueBoolean, Options: yesNo},
		{Key: CondCustomerLocation, Label: "Customer country", ValueKind: ValueCountry,
			Options: []string{"US", "CA", "GB", "AU", "DE", "FR", "JP"}},
		{Key: CondCreatedBefore, Label: "Customer created before", ValueKind: ValueDate},
	},
	EntityProduct: {
		{Key: CondProductIs, Label: "Product is", ValueKind: ValueProduct},
		{Key: CondTitleContains, Label: "Title contains", ValueKind: ValueText},
		{Key: CondVendorIs, Label: "Vendor is", ValueKind: ValueText},
		{Key: CondPriceOver, Label: "Price over", ValueKind: ValueNumber},
		{Key: CondProductType, Label: "Product type", ValueKind: ValueText},
		{Key: CondInventoryLow, Label: "Inventory at or below", ValueKind: ValueNumber},
		{Key: CondProductTag, Label: "Product has tag", ValueKind: ValueTag},
		{Key: CondSKUStartsWith, Label: "SKU starts with", ValueKind: ValueText},
		{Key: CondPublishedBefore, Label: "Published before", ValueKind: ValueDate},
	},
}

// IsValidCondition 条件是否属于该实体类型的条件集合
func IsValidCondition(entityType EntityType, condition string) bool {
	for _, spec := range ConditionCatalog[entityType] {
		if spec.Key == condition {
			return true
		}
	}
	return false
}
