// Package repository 定义数据访问层接口
package repository

import (
	"context"
)

// TxKey 事务上下文键类型
type TxKey struct{}

// Transactor 事务管理接口
type Transactor interface {
	// WithTransaction 在事务中执行操作
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

const (
	// DefaultPageLimit 默认每页数量
	DefaultPageLimit = 20
	// MaxPageLimit 每页最大数量
	MaxPageLimit = 100
)

// Cursor 偏移量游标分页参数
type Cursor struct {
	Offset int `json:"cursor"`
	Limit  int `json:"limit"`
}

// NewCursor 创建游标参数，offset 为 nil 时从 0 开始
func NewCursor(offset *int, limit int) Cursor {
	c := Cursor{Limit: limit}
	if offset != nil && *offset > 0 {
		c.Offset = *offset
	}
	if c.Limit < 1 {
		c.Limit = DefaultPageLimit
	}
	if c.Limit > MaxPageLimit {
		c.Limit = MaxPageLimit
	}
	return c
}

// CursorPage 游标分页结果，Next 为 nil 表示没有更多数据
type CursorPage[T any] struct {
	Items []T  `json:"items"`
	Next  *int `json:"next"`
}

// NewCursorPage 创建游标分页结果，满页时给出下一页游标
func NewCursorPage[T any](items []T, cursor Cursor) *CursorPage[T] {
	if items == nil {
		items = []T{}
	}
	page := &CursorPage[T]{Items: items}
	if len(items) == cursor.Limit {
		next := cursor.Offset + cursor.Limit
		page.Next = &next
	}
	return page
}
