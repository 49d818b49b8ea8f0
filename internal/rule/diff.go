package rule

import (
	"sort"

	"shop_autotag/internal/model"
)

// AppliedTag 本次新增的标签及来源规则
type AppliedTag struct {
	Tag    string
	RuleID string
}

// DiffResult 标签差异计算结果
type DiffResult struct {
	NewTags string
	Applied []AppliedTag
	Changed bool
}

// AppliedTags 新增标签列表
func (d DiffResult) AppliedTags() []string {
	out := make([]string, 0, len(d.Applied))
	for _, a := range d.Applied {
		out = append(out, a.Tag)
	}
	return out
}

// Diff 计算快照应追加的标签
// 只评估启用且实体类型一致的规则，按存储顺序；先前规则追加的标签对后续标签类条件可见
// 没有新增时 NewTags 原样返回 currentTags，调用方据 Changed 跳过写回
func Diff(currentTags string, rules []model.Rule, snap Snapshot) DiffResult {
	result := DiffResult{NewTags: currentTags}
	if snap == nil {
		return result
	}

	tags := ParseTags(currentTags)
	for i := range rules {
		r := &rules[i]
		if !r.IsActive || r.AppliesTo != snap.Kind() {
			continue
		}
		if tags.Has(r.Tag) {
			continue
		}
		if !evaluate(r.AppliesTo, r.Condition, r.ConditionValue, snap, tags) {
			continue
		}
		if tags.Add(r.Tag) {
			result.Applied = append(result.Applied, AppliedTag{Tag: tags.items[tags.Len()-1], RuleID: r.ID})
		}
	}

	if len(result.Applied) > 0 {
		result.NewTags = tags.String()
		result.Changed = true
	}
	return result
}

// SortByStorageOrder 按创建时间、ID 升序排列规则
func SortByStorageOrder(rules []model.Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if !rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].CreatedAt.Before(rules[j].CreatedAt)
		}
		return rules[i].ID < rules[j].ID
	})
}

// ForKind 过滤出指定实体类型的启用规则 (保持顺序)
func ForKind(rules []model.Rule, kind model.EntityType) []model.Rule {
	out := make([]model.Rule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive && r.AppliesTo == kind {
			out = append(out, r)
		}
	}
	return out
}
