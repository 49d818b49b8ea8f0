package rule

import "strings"

// TagSeparator 写回平台时的分隔符
const TagSeparator = ", "

// TagSet 有序、去重的标签集合，先出现者保留
type TagSet struct {
	items []string
	index map[string]struct{}
}

// ParseTags 按逗号拆分并去掉空白
func ParseTags(raw string) *TagSet {
	s := &TagSet{index: make(map[string]struct{})}
	for _, part := range strings.Split(raw, ",") {
		s.Add(part)
	}
	return s
}

// Has 精确匹配 (去首尾空白)
func (s *TagSet) Has(tag string) bool {
	_, ok := s.index[strings.TrimSpace(tag)]
	return ok
}

// Add 追加标签，已存在或为空返回 false
func (s *TagSet) Add(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	if _, ok := s.index[tag]; ok {
		return false
	}
	s.index[tag] = struct{}{}
	s.items = append(s.items, tag)
	return true
}

// Items 按顺序返回全部标签
func (s *TagSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Len 标签数量
func (s *TagSet) Len() int {
	return len(s.items)
}

func (s *TagSet) String() string {
	return strings.Join(s.items, TagSeparator)
}
