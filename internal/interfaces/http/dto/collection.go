package dto

import (
	"time"

	"leadgen-api/internal/domain/entity"
)

// CreateCollectionRequest 创建收藏夹请求
type CreateCollectionRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// UpdateCollectionRequest 更新收藏夹请求，items 非 nil 时整体替换
type UpdateCollectionRequest struct {
	Name  *string  `json:"name" binding:"omitempty,max=255"`
	Items []string `json:"items"`
}

// CollectionItemsRequest 增删收藏项请求
type CollectionItemsRequest struct {
	Items []string `json:"items" binding:"required,min=1,dive,required"`
}

// CollectionResponse 收藏夹响应
type CollectionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Items     []string  `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToCollectionResponse 实体转换为响应
func ToCollectionResponse(c *entity.Collection) *CollectionResponse {
	if c == nil {
		return nil
	}
	return &CollectionResponse{
		ID:        c.ID,
		Name:      c.Name,
		Items:     orEmpty(c.Items),
		UpdatedAt: c.UpdatedAt,
	}
}

// ToCollectionListResponse 实体列表转换为响应
func ToCollectionListResponse(items []*entity.Collection) []*CollectionResponse {
	out := make([]*CollectionResponse, 0, len(items))
	for _, c := range items {
		out = append(out, ToCollectionResponse(c))
	}
	return out
}
