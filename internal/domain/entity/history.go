package entity

import (
	"time"
)

// SearchHistory 搜索历史，ID 为上游返回的搜索 ID
type SearchHistory struct {
	ID     string    `json:"id" gorm:"type:varchar(128);primaryKey"`
	UserID string    `json:"user_id" gorm:"type:varchar(36);primaryKey"`
	Query  string    `json:"query" gorm:"type:text;not null"`
	Source Source    `json:"source" gorm:"type:varchar(32);not null"`
	Date   time.Time `json:"date" gorm:"index;not null"`
}

// TableName 指定表名
func (SearchHistory) TableName() string {
	return "search_histories"
}

// NewSearchHistory 创建搜索历史
func NewSearchHistory(id, userID, query string, source Source) *SearchHistory {
	return &SearchHistory{
		ID:     id,
		UserID: userID,
		Query:  query,
		Source: source,
		Date:   time.Now(),
	}
}
