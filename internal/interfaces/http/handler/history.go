package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/domain/repository"
	"leadgen-api/internal/interfaces/http/dto"
	"leadgen-api/pkg/errors"
)

// HistoryService 搜索历史用例
type HistoryService interface {
	Record(ctx context.Context, userID, id, query string, source entity.Source) (*entity.SearchHistory, error)
	Page(ctx context.Context, userID string, cursor repository.Cursor) (*repository.CursorPage[*entity.SearchHistory], error)
	Delete(ctx context.Context, p *principal.Principal, ids []string) (int64, error)
	Replay(ctx context.Context, p *principal.Principal, id string) ([]entity.Company, error)
}

// HistoryHandler 搜索历史处理器
type HistoryHandler struct {
	svc HistoryService
}

// NewHistoryHandler 创建搜索历史处理器
func NewHistoryHandler(svc HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// Create 记录一条搜索历史
// @Router /v1/history [post]
func (h *HistoryHandler) Create(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req dto.CreateHistoryRequest
	if !bindJSON(c, &req) {
		return
	}
	source, err := entity.ParseSource(req.Source)
	if err != nil {
		dto.FromError(c, errors.ErrValidationFailed.WithDetail(err.Error()))
		return
	}
	history, err := h.svc.Record(c.Request.Context(), p.UserID, req.ID, req.Query, source)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Created(c, dto.ToHistoryResponse(history))
}

// Infinite 游标分页获取搜索历史
// @Router /v1/history/infinite [get]
func (h *HistoryHandler) Infinite(c *gin.Context) {
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
	dto.Success(c, dto.ToCursorPage(page, dto.ToHistoryResponse))
}

// Delete 批量删除搜索历史
// @Router /v1/history [delete]
func (h *HistoryHandler) Delete(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req dto.IDsRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.svc.Delete(c.Request.Context(), p, req.IDs)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, &dto.DeletedResponse{Deleted: n})
}

// Replay 重新获取某次搜索的公司列表
// @Router /v1/history/{id}/companies [get]
func (h *HistoryHandler) Replay(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	companies, err := h.svc.Replay(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ToCompanyListResponse(companies))
}
