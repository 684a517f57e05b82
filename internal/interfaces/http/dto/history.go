package dto

import (
	"time"

	"leadgen-api/internal/domain/entity"
)

// CreateHistoryRequest 记录搜索历史请求
type CreateHistoryRequest struct {
	ID     string `json:"id" binding:"required"`
	Query  string `json:"query" binding:"required"`
	Source string `json:"source" binding:"required"`
}

// HistoryResponse 搜索历史响应
type HistoryResponse struct {
	ID     string    `json:"id"`
	Query  string    `json:"query"`
	Source string    `json:"source"`
	Date   time.Time `json:"date"`
}

// ToHistoryResponse 实体转换为响应
func ToHistoryResponse(h *entity.SearchHistory) *HistoryResponse {
	return &HistoryResponse{
		ID:     h.ID,
		Query:  h.Query,
		Source: h.Source.String(),
		Date:   h.Date,
	}
}
