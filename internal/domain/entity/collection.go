package entity

import (
	"slices"
	"strings"
	"time"
)

// Collection 用户收藏夹，items 为公司 ID 列表
type Collection struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Items     []string  `json:"items" gorm:"type:text;serializer:json;not null"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);index;not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`
}

// TableName 指定表名
func (Collection) TableName() string {
	return "collections"
}

// NewCollection 创建收藏夹
func NewCollection(userID, name string) *Collection {
	return &Collection{
		Name:      strings.TrimSpace(name),
		Items:     []string{},
		UserID:    userID,
		UpdatedAt: time.Now(),
	}
}

// BelongsTo 是否属于指定用户
func (c *Collection) BelongsTo(userID string) bool {
	return c.UserID == userID
}

// Rename 重命名
func (c *Collection) Rename(name string) {
	c.Name = strings.TrimSpace(name)
	c.touch()
}

// SetItems 替换全部条目
func (c *Collection) SetItems(items []string) {
	c.Items = dedup(nil, items)
	c.touch()
}

// AddItems 追加条目，已存在的忽略
func (c *Collection) AddItems(items ...string) {
	c.Items = dedup(c.Items, items)
	c.touch()
}

// RemoveItems 移除条目
func (c *Collection) RemoveItems(items ...string) {
	c.Items = slices.DeleteFunc(c.Items, func(id string) bool {
		return slices.Contains(items, id)
	})
	if c.Items == nil {
		c.Items = []string{}
	}
	c.touch()
}

// Contains 是否包含公司
func (c *Collection) Contains(id string) bool {
	return slices.Contains(c.Items, id)
}

func (c *Collection) touch() {
	c.UpdatedAt = time.Now()
}

func dedup(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, id := range list {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
