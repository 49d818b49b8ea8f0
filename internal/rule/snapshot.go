package rule

import "shop_autotag/internal/model"

// Snapshot 远端实体的只读投影，只在一次评估中存在
type Snapshot interface {
	Kind() model.EntityType
	// EntityID 写回标签时使用的全局 ID (gid://shopify/Order/1)
	EntityID() string
	// CurrentTags 平台上当前的标签字符串 ("a, b")
	CurrentTags() string
}

// OrderSnapshot 订单快照
type OrderSnapshot struct {
	ID                  string
	Tags                string
	TotalPrice          string
	DiscountCodes       []string
	LineItemProductIDs  []string
	ShippingLineTitles  []string
	FulfillmentStatus   string // unfulfilled / partial / fulfilled
	OrderNumber         int
	CustomerOrdersCount *int
}

func (o *OrderSnapshot) Kind() model.EntityType { return model.EntityOrder }
func (o *OrderSnapshot) EntityID() string       { return o.ID }
func (o *OrderSnapshot) CurrentTags() string    { return o.Tags }

// Address 客户默认地址
type Address struct {
	CountryCode string
}

// CustomerSnapshot 客户快照
type CustomerSnapshot struct {
	ID               string
	Email            string
	Tags             string
	TotalSpent       string
	OrdersCount      string
	AcceptsMarketing bool
	CreatedAt        string
	DefaultAddress   *Address
}

func (c *CustomerSnapshot) Kind() model.EntityType { return model.EntityCustomer }
func (c *CustomerSnapshot) EntityID() string       { return c.ID }
func (c *CustomerSnapshot) CurrentTags() string    { return c.Tags }

// ProductSnapshot 商品快照
type ProductSnapshot struct {
	ID              string
	Title           string
	Tags            string
	Vendor          string
	ProductType     string
	MinVariantPrice string
	VariantSKUs     []string
	TotalInventory  *int // 调用方未提供库存时为 nil
	PublishedAt     string
}

func (p *ProductSnapshot) Kind() model.EntityType { return model.EntityProduct }
func (p *ProductSnapshot) EntityID() string       { return p.ID }
func (p *ProductSnapshot) CurrentTags() string    { return p.Tags }
