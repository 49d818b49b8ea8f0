package rule

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// parseNumber 解析十进制字符串，失败返回 ok=false
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseNumberOrZero 快照字段为空时按 0 处理 (累计消费、下单数)
func parseNumberOrZero(s string) (float64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, true
	}
	return parseNumber(s)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate 解析 ISO 日期
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseYesNo 解析 "Yes" / "No"
func parseYesNo(s string) (yes bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return true, true
	case "no":
		return false, true
	}
	return false, false
}

// idSuffix 取 ID 最后一段: gid://shopify/Product/123 -> 123
func idSuffix(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// sameID 数字 ID 与全局 ID 混用时按最后一段比较，区分大小写
func sameID(a, b string) bool {
	sa, sb := idSuffix(a), idSuffix(b)
	return sa != "" && sa == sb
}

// IsProductReference 条件值是否为商品引用 (纯数字 ID 或商品全局 ID)
func IsProductReference(value string) bool {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "gid://shopify/Product/") {
		return true
	}
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
