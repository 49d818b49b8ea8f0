package rule

import (
	"strings"

	"shop_autotag/internal/model"
)

// matcher 纯函数: 条件值 + 快照 + 当前标签集合 -> 是否命中
type matcher func(value string, snap Snapshot, tags *TagSet) bool

// typed 把按实体类型编写的判断函数适配为通用 matcher，类型不符直接不命中
func typed[T Snapshot](fn func(value string, s T, tags *TagSet) bool) matcher {
	return func(value string, snap Snapshot, tags *TagSet) bool {
		s, ok := snap.(T)
		if !ok {
			return false
		}
		return fn(value, s, tags)
	}
}

// matchers (实体类型, 条件) -> 判断函数
var matchers = map[model.EntityType]map[string]matcher{
	model.EntityOrder: {
		model.CondTotalGreaterThan: typed(func(v string, o *OrderSnapshot, _ *TagSet) bool {
			return compareNumbers(o.TotalPrice, v, false, func(a, b float64) bool { return a > b })
		}),
		model.CondTotalLessThan: typed(func(v string, o *OrderSnapshot, _ *TagSet) bool {
			return compareNumbers(o.TotalPrice, v, false, func(a, b float64) bool { return a < b })
		}),
		model.CondDiscountUsed: typed(func(v string, o *OrderSnapshot, _ *TagSet) bool {
			return gate(v, len(o.DiscountCodes) > 0)
		}),
		model.CondContainsItem: typed(func(v string, o *OrderSnapshot, _ *TagSet) bool {
			for _, id := range o.LineItemProductIDs {
				if sameID(id, v) {
					return true
				}
			}
			return false
		}),
		model.CondShippingMethod: typed(func(v string, o *OrderSnapshot, _ *TagSet) bool {
			for _, title := range o.ShippingLineTitles {
				if containsFold(title, v) {
					return true
				}
			}
			return false
		}),
		model.CondOrderTag: typed(func(v string, _ *OrderSnapshot, tags *TagSet) bool {
			return tags.Has(v)
		}),
		model.CondIsFirstOrder: typed(func(v string, o *OrderSnapshot, _ *TagSet) bool {
			first := o.OrderNumber == 1 || (o.CustomerOrdersCount != nil && *o.CustomerOrdersCount == 1)
			return gate(v, first)
		}),
		model.CondFulfillmentStatus: typed(func(v string, o *OrderSnapshot, _ *TagSet) bool {
			return equalFold(o.FulfillmentStatus, v)
		}),
	},
	model.EntityCustomer: {
		model.CondTotalSpent: typed(func(v string, c *CustomerSnapshot, _ *TagSet) bool {
			return compareNumbers(c.TotalSpent, v, true, func(a, b float64) bool { return a > b })
		}),
		model.CondOrdersPlaced: typed(func(v string, c *CustomerSnapshot, _ *TagSet) bool {
			return compareNumbers(c.OrdersCount, v, true, func(a, b float64) bool { return a > b })
		}),
		model.CondHasEmail: typed(func(v string, c *CustomerSnapshot, _ *TagSet) bool {
			return strictGate(v, strings.TrimSpace(c.Email) != "")
		}),
		model.CondCustomerTagged: typed(func(v string, _ *CustomerSnapshot, tags *TagSet) bool {
			return tags.Has(v)
		}),
		model.CondAcceptsMarketing: typed(func(v string, c *CustomerSnapshot, _ *TagSet) bool {
			return strictGate(v, c.AcceptsMarketing)
		}),
		model.CondCustomerLocation: typed(func(v string, c *CustomerSnapshot, _ *TagSet) bool {
			if c.DefaultAddress == nil || c.DefaultAddress.CountryCode == "" {
				return false
			}
			return c.DefaultAddress.CountryCode == strings.TrimSpace(v)
		}),
		model.CondCreatedBefore: typed(func(v string, c *CustomerSnapshot, _ *TagSet) bool {
			return before(c.CreatedAt, v)
		}),
	},
	model.EntityProduct: {
		model.CondProductIs: typed(func(v string, p *ProductSnapshot, _ *TagSet) bool {
			return sameID(p.ID, v)
		}),
		model.CondTitleContains: typed(func(v string, p *ProductSnapshot, _ *TagSet) bool {
			return containsFold(p.Title, v)
		}),
		model.CondVendorIs: typed(func(v string, p *ProductSnapshot, _ *TagSet) bool {
			return equalFold(p.Vendor, v)
		}),
		model.CondPriceOver: typed(func(v string, p *ProductSnapshot, _ *TagSet) bool {
			return compareNumbers(p.MinVariantPrice, v, false, func(a, b float64) bool { return a > b })
		}),
		model.CondProductType: typed(func(v string, p *ProductSnapshot, _ *TagSet) bool {
			return equalFold(p.ProductType, v)
		}),
		model.CondInventoryLow: typed(func(v string, p *ProductSnapshot, _ *TagSet) bool {
			if p.TotalInventory == nil {
				return false
			}
			threshold, ok := parseNumber(v)
			if !ok {
				return false
			}
			return float64(*p.TotalInventory) <= threshold
		}),
		model.CondProductTag: typed(func(v string, _ *ProductSnapshot, tags *TagSet) bool {
			return tags.Has(v)
		}),
		model.CondSKUStartsWith: typed(func(v string, p *ProductSnapshot, _ *TagSet) bool {
			prefix := strings.TrimSpace(v)
			if prefix == "" {
				return false
			}
			for _, sku := range p.VariantSKUs {
				if strings.HasPrefix(sku, prefix) {
					return true
				}
			}
			return false
		}),
		model.CondPublishedBefore: typed(func(v string, p *ProductSnapshot, _ *TagSet) bool {
			return before(p.PublishedAt, v)
		}),
	},
}

// Evaluate 判断单条条件是否命中快照
// 未知的 (实体类型, 条件) 组合、实体类型不一致、数值/日期解析失败都返回 false
func Evaluate(appliesTo model.EntityType, condition, conditionValue string, snap Snapshot) bool {
	if snap == nil {
		return false
	}
	return evaluate(appliesTo, condition, conditionValue, snap, ParseTags(snap.CurrentTags()))
}

// evaluate 标签类条件使用传入的工作标签集合
func evaluate(appliesTo model.EntityType, condition, conditionValue string, snap Snapshot, tags *TagSet) bool {
	if snap.Kind() != appliesTo {
		return false
	}
	m, ok := matchers[appliesTo][condition]
	if !ok {
		return false
	}
	return m(conditionValue, snap, tags)
}

// Supported 条件是否有对应的判断函数
func Supported(appliesTo model.EntityType, condition string) bool {
	_, ok := matchers[appliesTo][condition]
	return ok
}

// ==================== 比较辅助 ====================

// compareNumbers 快照字段与条件值用同一解析器解析后比较
// emptyAsZero: 快照字段为空时按 0 处理
func compareNumbers(field, value string, emptyAsZero bool, cmp func(a, b float64) bool) bool {
	var (
		a  float64
		ok bool
	)
	if emptyAsZero {
		a, ok = parseNumberOrZero(field)
	} else {
		a, ok = parseNumber(field)
	}
	if !ok {
		return false
	}
	b, ok := parseNumber(value)
	if !ok {
		return false
	}
	return cmp(a, b)
}

func before(field, value string) bool {
	a, ok := parseDate(field)
	if !ok {
		return false
	}
	b, ok := parseDate(value)
	if !ok {
		return false
	}
	return a.Before(b)
}

func containsFold(s, sub string) bool {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func equalFold(s, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(s), v)
}

// gate "No" 取反，其余取值按是处理
func gate(value string, actual bool) bool {
	if yes, ok := parseYesNo(value); ok && !yes {
		return !actual
	}
	return actual
}

// strictGate 只接受 "Yes" / "No"，其他取值不命中
func strictGate(value string, actual bool) bool {
	yes, ok := parseYesNo(value)
	if !ok {
		return false
	}
	return yes == actual
}
