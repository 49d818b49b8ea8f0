package shopify

import (
	"encoding/json"
	"strconv"
	"strings"

	"shop_autotag/internal/rule"
)

// ==========================================
// DTO: GraphQL Admin API 返回的原始 JSON
// ==========================================

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlErr    `json:"errors"`
}

type graphqlErr struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

func (e *graphqlEnvelope) throttled() bool {
	for _, ge := range e.Errors {
		if ge.Extensions.Code == "THROTTLED" {
			return true
		}
	}
	return false
}

// flexInt 兼容数字与字符串 (UnsignedInt64 以字符串返回)
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// nextCursor 没有下一页时返回空
func (p pageInfo) nextCursor() string {
	if !p.HasNextPage {
		return ""
	}
	return p.EndCursor
}

type money struct {
	Amount string `json:"amount"`
}

// ==================== Order ====================

type orderNode struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Tags          []string `json:"tags"`
	TotalPriceSet struct {
		ShopMoney money `json:"shopMoney"`
	} `json:"totalPriceSet"`
	DiscountCodes            []string `json:"discountCodes"`
	DisplayFulfillmentStatus string   `json:"displayFulfillmentStatus"`
	Customer                 *struct {
		NumberOfOrders flexInt `json:"numberOfOrders"`
	} `json:"customer"`
	LineItems struct {
		Nodes []struct {
			Product *struct {
				ID string `json:"id"`
			} `json:"product"`
		} `json:"nodes"`
	} `json:"lineItems"`
	ShippingLines struct {
		Nodes []struct {
			Title string `json:"title"`
		} `json:"nodes"`
	} `json:"shippingLines"`
}

type ordersData struct {
	Orders struct {
		PageInfo pageInfo    `json:"pageInfo"`
		Nodes    []orderNode `json:"nodes"`
	} `json:"orders"`
}

func (n *orderNode) toSnapshot() *rule.OrderSnapshot {
	s := &rule.OrderSnapshot{
		ID:                n.ID,
		Tags:              strings.Join(n.Tags, rule.TagSeparator),
		TotalPrice:        n.TotalPriceSet.ShopMoney.Amount,
		DiscountCodes:     n.DiscountCodes,
		FulfillmentStatus: NormalizeFulfillmentStatus(n.DisplayFulfillmentStatus),
		OrderNumber:       orderNumberFromName(n.Name),
	}
	if n.Customer != nil {
		count := int(n.Customer.NumberOfOrders)
		s.CustomerOrdersCount = &count
	}
	for _, li := range n.LineItems.Nodes {
		if li.Product != nil && li.Product.ID != "" {
			s.LineItemProductIDs = append(s.LineItemProductIDs, li.Product.ID)
		}
	}
	for _, sl := range n.ShippingLines.Nodes {
		s.ShippingLineTitles = append(s.ShippingLineTitles, sl.Title)
	}
	return s
}

// orderNumberFromName "#1001" -> 1001，无法解析返回 0
func orderNumberFromName(name string) int {
	digits := strings.TrimLeftFunc(name, func(r rune) bool { return r < '0' || r > '9' })
	end := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' })
	if end >= 0 {
		digits = digits[:end]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// NormalizeFulfillmentStatus 统一为 unfulfilled / partial / fulfilled
// GraphQL 返回 UNFULFILLED / PARTIALLY_FULFILLED / FULFILLED，Webhook 返回 null / partial / fulfilled
func NormalizeFulfillmentStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", "null", "unfulfilled":
		return "unfulfilled"
	case "partial", "partially_fulfilled":
		return "partial"
	case "fulfilled":
		return "fulfilled"
	default:
		return strings.ToLower(status)
	}
}

// ==================== Customer ====================

type customerNode struct {
	ID                    string   `json:"id"`
	Email                 string   `json:"email"`
	Tags                  []string `json:"tags"`
	AmountSpent           *money   `json:"amountSpent"`
	NumberOfOrders        flexInt  `json:"numberOfOrders"`
	EmailMarketingConsent *struct {
		MarketingState string `json:"marketingState"`
	} `json:"emailMarketingConsent"`
	CreatedAt      string `json:"createdAt"`
	DefaultAddress *struct {
		CountryCodeV2 string `json:"countryCodeV2"`
	} `json:"defaultAddress"`
}

type customersData struct {
	Customers struct {
		PageInfo pageInfo       `json:"pageInfo"`
		Nodes    []customerNode `json:"nodes"`
	} `json:"customers"`
}

func (n *customerNode) toSnapshot() *rule.CustomerSnapshot {
	s := &rule.CustomerSnapshot{
		ID:          n.ID,
		Email:       n.Email,
		Tags:        strings.Join(n.Tags, rule.TagSeparator),
		OrdersCount: strconv.FormatInt(int64(n.NumberOfOrders), 10),
		CreatedAt:   n.CreatedAt,
	}
	if n.AmountSpent != nil {
		s.TotalSpent = n.AmountSpent.Amount
	}
	if n.EmailMarketingConsent != nil {
		s.AcceptsMarketing = n.EmailMarketingConsent.MarketingState == "SUBSCRIBED"
	}
	if n.DefaultAddress != nil {
		s.DefaultAddress = &rule.Address{CountryCode: n.DefaultAddress.CountryCodeV2}
	}
	return s
}

// ==================== Product ====================

type productNode struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Tags           []string `json:"tags"`
	Vendor         string   `json:"vendor"`
	ProductType    string   `json:"productType"`
	PublishedAt    string   `json:"publishedAt"`
	TotalInventory *int     `json:"totalInventory"`
	PriceRangeV2   struct {
		MinVariantPrice money `json:"minVariantPrice"`
	} `json:"priceRangeV2"`
	Variants struct {
		Nodes []struct {
			SKU string `json:"sku"`
		} `json:"nodes"`
	} `json:"variants"`
}

type productsData struct {
	Products struct {
		PageInfo pageInfo      `json:"pageInfo"`
		Nodes    []productNode `json:"nodes"`
	} `json:"products"`
}

func (n *productNode) toSnapshot() *rule.ProductSnapshot {
	s := &rule.ProductSnapshot{
		ID:              n.ID,
		Title:           n.Title,
		Tags:            strings.Join(n.Tags, rule.TagSeparator),
		Vendor:          n.Vendor,
		ProductType:     n.ProductType,
		MinVariantPrice: n.PriceRangeV2.MinVariantPrice.Amount,
		TotalInventory:  n.TotalInventory,
		PublishedAt:     n.PublishedAt,
	}
	for _, v := range n.Variants.Nodes {
		if v.SKU != "" {
			s.VariantSKUs = append(s.VariantSKUs, v.SKU)
		}
	}
	return s
}

// ==================== 其他 ====================

type countData struct {
	Count flexInt `json:"count"`
}

type productTitleData struct {
	Product *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"product"`
}

// mutationPayload xxxUpdate 的返回，只关心 userErrors
type mutationPayload struct {
	UserErrors UserErrors `json:"userErrors"`
}
