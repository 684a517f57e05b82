package dto

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"leadgen-api/internal/domain/repository"
	"leadgen-api/pkg/errors"
)

// BindCursor 从查询参数 cursor / limit 绑定游标分页
// 参数缺省时 cursor 为 0、limit 为默认值，给出但不合法时返回错误
func BindCursor(c *gin.Context) (repository.Cursor, error) {
	var offset *int
	if raw, ok := c.GetQuery("cursor"); ok {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || v < 0 {
			return repository.Cursor{}, errors.ErrInvalidParam.WithDetail("cursor must be a non-negative integer")
		}
		offset = &v
	}
	limit := repository.DefaultPageLimit
	if raw, ok := c.GetQuery("limit"); ok {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || v < 1 {
			return repository.Cursor{}, errors.ErrInvalidParam.WithDetail("limit must be a positive integer")
		}
		limit = v
	}
	return repository.NewCursor(offset, limit), nil
}

// SplitIDs 解析逗号分隔的 ID 列表，也接受重复的查询参数
func SplitIDs(values []string) []string {
	var out []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

// IDRequest 资源 ID 请求
type IDRequest struct {
	ID string `uri:"id" binding:"required"`
}

// IDsRequest 批量 ID 请求
type IDsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,required"`
}

// URLRequest 网址请求
type URLRequest struct {
	URL string `json:"url" binding:"required"`
}

// DeletedResponse 批量删除响应
type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}

// CursorPageResponse 游标分页响应
type CursorPageResponse[T any] struct {
	Items []T  `json:"items"`
	Next  *int `json:"next"`
}

// ToCursorPage 转换分页结果
func ToCursorPage[E any, T any](page *repository.CursorPage[E], convert func(E) T) *CursorPageResponse[T] {
	items := make([]T, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, convert(item))
	}
	return &CursorPageResponse[T]{Items: items, Next: page.Next}
}
