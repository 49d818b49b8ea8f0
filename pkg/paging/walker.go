package paging

import (
	"context"
	"errors"
)

// Page 一页数据
// NextCursor 为空表示没有下一页
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// HasNext 是否还有下一页
func (p Page[T]) HasNext() bool {
	return p.NextCursor != ""
}

// PageFunc 从 cursor 开始拉取一页，cursor 为空表示从头开始
type PageFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// ErrExhausted 已经走完全部分页
var ErrExhausted = errors.New("paging: no more pages")

// CursorWalker 基于不透明游标的逐页遍历器
// 拉取失败时游标不前进，重新调用 Next 会从同一位置重试
type CursorWalker[T any] struct {
	fetch  PageFunc[T]
	cursor string
	done   bool
	pages  int
}

// NewCursorWalker 从 start 游标处开始遍历 (空字符串表示第一页)
func NewCursorWalker[T any](fetch PageFunc[T], start string) *CursorWalker[T] {
	return &CursorWalker[T]{fetch: fetch, cursor: start}
}

// Next 拉取下一页
func (w *CursorWalker[T]) Next(ctx context.Context) (Page[T], error) {
	if w.done {
		return Page[T]{}, ErrExhausted
	}
	page, err := w.fetch(ctx, w.cursor)
	if err != nil {
		return Page[T]{}, err
	}
	w.pages++
	w.cursor = page.NextCursor
	w.done = !page.HasNext()
	return page, nil
}

// Cursor 下一页的起始游标，走完后为空
func (w *CursorWalker[T]) Cursor() string {
	return w.cursor
}

// Done 是否已走完
func (w *CursorWalker[T]) Done() bool {
	return w.done
}

// Pages 已成功拉取的页数
func (w *CursorWalker[T]) Pages() int {
	return w.pages
}

// Walk 遍历全部分页，每页回调一次；回调或拉取出错即停止
func Walk[T any](ctx context.Context, w *CursorWalker[T], visit func(page Page[T]) error) error {
	for !w.Done() {
		page, err := w.Next(ctx)
		if err != nil {
			return err
		}
		if err := visit(page); err != nil {
			return err
		}
	}
	return nil
}
