package dto

import (
	"fmt"
	"strconv"
	"strings"

	"shop_autotag/internal/rule"
)

// ==================== Webhook 载荷 (REST 结构, snake_case) ====================

// OrderWebhook orders/create 载荷
type OrderWebhook struct {
	ID                int64   `json:"id"`
	AdminGraphqlAPIID string  `json:"admin_graphql_api_id"`
	Name              string  `json:"name"`
	OrderNumber       int     `json:"order_number"`
	TotalPrice        string  `json:"total_price"`
	Tags              string  `json:"tags"`
	FulfillmentStatus *string `json:"fulfillment_status"`
	DiscountCodes     []struct {
		Code string `json:"code"`
	} `json:"discount_codes"`
	LineItems []struct {
		ProductID *int64 `json:"product_id"`
	} `json:"line_items"`
	ShippingLines []struct {
		Title string `json:"title"`
	} `json:"shipping_lines"`
	Customer *struct {
		OrdersCount *int `json:"orders_count"`
	} `json:"customer"`
}

// CustomerWebhook customers/create 载荷
type CustomerWebhook struct {
	ID                    int64  `json:"id"`
	AdminGraphqlAPIID     string `json:"admin_graphql_api_id"`
	Email                 string `json:"email"`
	Tags                  string `json:"tags"`
	TotalSpent            string `json:"total_spent"`
	OrdersCount           *int   `json:"orders_count"`
	AcceptsMarketing      bool   `json:"accepts_marketing"`
	CreatedAt             string `json:"created_at"`
	EmailMarketingConsent *struct {
		State string `json:"state"`
	} `json:"email_marketing_consent"`
	DefaultAddress *struct {
		CountryCode string `json:"country_code"`
	} `json:"default_address"`
}

// ProductWebhook products/create 载荷
type ProductWebhook struct {
	ID                int64   `json:"id"`
	AdminGraphqlAPIID string  `json:"admin_graphql_api_id"`
	Title             string  `json:"title"`
	Tags              string  `json:"tags"`
	Vendor            string  `json:"vendor"`
	ProductType       string  `json:"product_type"`
	PublishedAt       *string `json:"published_at"`
	Variants          []struct {
		Price             string `json:"price"`
		SKU               string `json:"sku"`
		InventoryQuantity *int   `json:"inventory_quantity"`
	} `json:"variants"`
}

// AppUninstalledWebhook app/uninstalled 载荷
type AppUninstalledWebhook struct {
	ID     int64  `json:"id"`
	Domain string `json:"domain"`
}

// ==================== 转换为快照 ====================

func graphqlID(kind string, id int64, adminID string) string {
	if adminID != "" {
		return adminID
	}
	if id == 0 {
		return ""
	}
	return fmt.Sprintf("gid://shopify/%s/%d", kind, id)
}

// ToSnapshot 订单载荷转快照
func (w *OrderWebhook) ToSnapshot() *rule.OrderSnapshot {
	snap := &rule.OrderSnapshot{
		ID:          graphqlID("Order", w.ID, w.AdminGraphqlAPIID),
		Tags:        w.Tags,
		TotalPrice:  w.TotalPrice,
		OrderNumber: w.OrderNumber,
	}
	if snap.OrderNumber == 0 {
		snap.OrderNumber, _ = strconv.Atoi(strings.TrimPrefix(w.Name, "#"))
	}
	// REST 中 null 表示未发货
	snap.FulfillmentStatus = "unfulfilled"
	if w.FulfillmentStatus != nil && *w.FulfillmentStatus != "" {
		snap.FulfillmentStatus = *w.FulfillmentStatus
	}
	for _, d := range w.DiscountCodes {
		snap.DiscountCodes = append(snap.DiscountCodes, d.Code)
	}
	for _, li := range w.LineItems {
		if li.ProductID != nil {
			snap.LineItemProductIDs = append(snap.LineItemProductIDs, strconv.FormatInt(*li.ProductID, 10))
		}
	}
	for _, sl := range w.ShippingLines {
		snap.ShippingLineTitles = append(snap.ShippingLineTitles, sl.Title)
	}
	if w.Customer != nil {
		snap.CustomerOrdersCount = w.Customer.OrdersCount
	}
	return snap
}

// ToSnapshot 客户载荷转快照
func (w *CustomerWebhook) ToSnapshot() *rule.CustomerSnapshot {
	snap := &rule.CustomerSnapshot{
		ID:               graphqlID("Customer", w.ID, w.AdminGraphqlAPIID),
		Email:            w.Email,
		Tags:             w.Tags,
		TotalSpent:       w.TotalSpent,
		AcceptsMarketing: w.AcceptsMarketing,
		CreatedAt:        w.CreatedAt,
	}
	if w.OrdersCount != nil {
		snap.OrdersCount = strconv.Itoa(*w.OrdersCount)
	}
	if w.EmailMarketingConsent != nil && strings.EqualFold(w.EmailMarketingConsent.State, "subscribed") {
		snap.AcceptsMarketing = true
	}
	if w.DefaultAddress != nil {
		snap.DefaultAddress = &rule.Address{CountryCode: w.DefaultAddress.CountryCode}
	}
	return snap
}

// ToSnapshot 商品载荷转快照，价格取最低的变体价格，库存为各变体之和
func (w *ProductWebhook) ToSnapshot() *rule.ProductSnapshot {
	snap := &rule.ProductSnapshot{
		ID:          graphqlID("Product", w.ID, w.AdminGraphqlAPIID),
		Title:       w.Title,
		Tags:        w.Tags,
		Vendor:      w.Vendor,
		ProductType: w.ProductType,
	}
	if w.PublishedAt != nil {
		snap.PublishedAt = *w.PublishedAt
	}

	lowest := -1.0
	for _, v := range w.Variants {
		if v.SKU != "" {
			snap.VariantSKUs = append(snap.VariantSKUs, v.SKU)
		}
		if price, err := strconv.ParseFloat(strings.TrimSpace(v.Price), 64); err == nil {
			if lowest < 0 || price < lowest {
				lowest = price
				snap.MinVariantPrice = v.Price
			}
		}
		if v.InventoryQuantity != nil {
			if snap.TotalInventory == nil {
				snap.TotalInventory = new(int)
			}
			*snap.TotalInventory += *v.InventoryQuantity
		}
	}
	return snap
}
