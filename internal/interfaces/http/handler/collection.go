package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"leadgen-api/internal/application/collection"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/domain/repository"
	"leadgen-api/internal/interfaces/http/dto"
)

// CollectionService 收藏夹用例
type CollectionService interface {
	All(ctx context.Context, userID string) ([]*entity.Collection, error)
	Get(ctx context.Context, userID, id string) (*entity.Collection, error)
	Create(ctx context.Context, userID, name string) (*entity.Collection, error)
	Delete(ctx context.Context, userID string, ids []string) (int64, error)
	Page(ctx context.Context, userID string, cursor repository.Cursor) (*repository.CursorPage[*entity.Collection], error)
	Update(ctx context.Context, userID, id string, in collection.UpdateInput) (*entity.Collection, error)
	AddItems(ctx context.Context, userID, id string, items []string) (*entity.Collection, error)
	RemoveItems(ctx context.Context, userID, id string, items []string) (*entity.Collection, error)
}

// CollectionHandler 收藏夹处理器
type CollectionHandler struct {
	svc CollectionService
}

// NewCollectionHandler 创建收藏夹处理器
func NewCollectionHandler(svc CollectionService) *CollectionHandler {
	return &CollectionHandler{svc: svc}
}

// List 获取全部收藏夹
// @Summary 获取全部收藏夹
// @Tags Collections
// @Produce json
// @Success 200 {object} dto.Response[[]dto.CollectionResponse]
// @Router /v1/collections [get]
func (h *CollectionHandler) List(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	items, err := h.svc.All(c.Request.Context(), p.UserID)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ToCollectionListResponse(items))
}

// Infinite 游标分页获取收藏夹
// @Summary 游标分页获取收藏夹
// @Tags Collections
// @Param cursor query int false "偏移量"
// @Param limit query int false "每页数量，最大 100"
// @Router /v1/collections/infinite [get]
func (h *CollectionHandler) Infinite(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	cursor, err := dto.BindCursor(c)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	page, err := h.svc.Page(c.Request.Context(), p.UserID, cursor)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ToCursorPage(page, dto.ToCollectionResponse))
}

// Create 创建收藏夹
// @Router /v1/collections [post]
func (h *CollectionHandler) Create(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req dto.CreateCollectionRequest
	if !bindJSON(c, &req) {
		return
	}
	col, err := h.svc.Create(c.Request.Context(), p.UserID, req.Name)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Created(c, dto.ToCollectionResponse(col))
}

// Delete 批量删除收藏夹
// @Router /v1/collections [delete]
func (h *CollectionHandler) Delete(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req dto.IDsRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.svc.Delete(c.Request.Context(), p.UserID, req.IDs)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, &dto.DeletedResponse{Deleted: n})
}

// Get 获取收藏夹
// @Router /v1/collections/{id} [get]
func (h *CollectionHandler) Get(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	col, err := h.svc.Get(c.Request.Context(), p.UserID, c.Param("id"))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ToCollectionResponse(col))
}

// Update 重命名或替换收藏项
// @Router /v1/collections/{id} [put]
func (h *CollectionHandler) Update(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req dto.UpdateCollectionRequest
	if !bindJSON(c, &req) {
		return
	}
	col, err := h.svc.Update(c.Request.Context(), p.UserID, c.Param("id"), collection.UpdateInput{
		Name:  req.Name,
		Items: req.Items,
	})
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ToCollectionResponse(col))
}

// AddItems 添加收藏项
// @Router /v1/collections/{id}/items [post]
func (h *CollectionHandler) AddItems(c *gin.Context) {
	h.mutateItems(c, h.svc.AddItems)
}

// RemoveItems 移除收藏项
// @Router /v1/collections/{id}/items [delete]
func (h *CollectionHandler) RemoveItems(c *gin.Context) {
	h.mutateItems(c, h.svc.RemoveItems)
}

func (h *CollectionHandler) mutateItems(c *gin.Context, fn func(ctx context.Context, userID, id string, items []string) (*entity.Collection, error)) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req dto.CollectionItemsRequest
	if !bindJSON(c, &req) {
		return
	}
	col, err := fn(c.Request.Context(), p.UserID, c.Param("id"), req.Items)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ToCollectionResponse(col))
}
