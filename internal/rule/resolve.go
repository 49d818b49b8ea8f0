package rule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shop_autotag/internal/model"
)

// TitleResolver 按商品 ID 查询标题
type TitleResolver interface {
	ProductTitle(ctx context.Context, productID string) (string, error)
}

// ResolveFailure 引用解析失败的规则
type ResolveFailure struct {
	RuleID string
	Value  string
	Err    error
}

var errEmptyTitle = errors.New("referenced product has no title")

// ResolveRules 运行前解析 title_contains 规则中的商品引用
// 条件值为纯数字 ID 或商品全局 ID 时替换为被引用商品的标题；解析失败的规则本次运行中剔除
// 其他规则原样保留，返回的是副本，不修改入参
func ResolveRules(ctx context.Context, rules []model.Rule, resolver TitleResolver) ([]model.Rule, []ResolveFailure) {
	out := make([]model.Rule, 0, len(rules))
	var failures []ResolveFailure
	cache := make(map[string]string)

	for _, r := range rules {
		if r.Condition != model.CondTitleContains || !IsProductReference(r.ConditionValue) {
			out = append(out, r)
			continue
		}

		ref := ProductGID(r.ConditionValue)
		title, ok := cache[ref]
		if !ok {
			var err error
			title, err = lookupTitle(ctx, resolver, ref)
			if err != nil {
				failures = append(failures, ResolveFailure{RuleID: r.ID, Value: r.ConditionValue, Err: err})
				continue
			}
			cache[ref] = title
		}

		r.ConditionValue = title
		out = append(out, r)
	}
	return out, failures
}

func lookupTitle(ctx context.Context, resolver TitleResolver, ref string) (string, error) {
	if resolver == nil {
		return "", errors.New("no title resolver configured")
	}
	title, err := resolver.ProductTitle(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("resolve product %s: %w", ref, err)
	}
	if strings.TrimSpace(title) == "" {
		return "", errEmptyTitle
	}
	return title, nil
}

// ProductGID 数字 ID 转商品全局 ID，已是全局 ID 的原样返回
func ProductGID(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "gid://") {
		return ref
	}
	return "gid://shopify/Product/" + ref
}
