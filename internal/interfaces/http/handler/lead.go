package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/domain/repository"
	"leadgen-api/internal/infrastructure/leadsource"
	"leadgen-api/internal/infrastructure/sitemeta"
	"leadgen-api/internal/interfaces/http/dto"
	apperrors "leadgen-api/pkg/errors"
)

// LeadService 线索用例
type LeadService interface {
	SearchCompanies(ctx context.Context, p *principal.Principal, query string, source entity.Source) (*entity.SearchResult, error)
	CompanyInfo(ctx context.Context, p *principal.Principal, companyID string) (*entity.CompanyInfo, error)
	Employees(ctx context.Context, p *principal.Principal, companyIDs []string) (map[string][]entity.Employee, error)
	UnlockContact(ctx context.Context, p *principal.Principal, employeeID, companyID string) (*entity.Contact, error)
	ListUnlocked(ctx context.Context, userID string, cursor repository.Cursor) (*repository.CursorPage[*entity.UnlockedContact], error)
	KeywordsFromURL(ctx context.Context, p *principal.Principal, site string) ([]string, error)
	KeywordsFromFiles(ctx context.Context, p *principal.Principal, files []leadsource.Upload) ([]string, error)
	SitePreview(ctx context.Context, site string) (*sitemeta.Preview, error)
}

// LeadHandler 公司搜索、员工与联系方式处理器
type LeadHandler struct {
	svc     LeadService
	uploads UploadLimits
}

// NewLeadHandler 创建线索处理器
func NewLeadHandler(svc LeadService, uploads UploadLimits) *LeadHandler {
	return &LeadHandler{svc: svc, uploads: uploads}
}

// SearchCompanies 搜索公司
// @Summary 搜索公司
// @Description 按关键词在指定数据源搜索公司，并记录搜索历史
// @Tags Search
// @Accept json
// @Produce json
// @Param body body dto.SearchCompaniesRequest true "搜索条件"
// @Success 200 {object} dto.Response[dto.SearchCompaniesResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/search/companies [post]
func (h *LeadHandler) SearchCompanies(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req dto.SearchCompaniesRequest
	if !bindJSON(c, &req) {
		return
	}
	source, err := entity.ParseSource(req.Source)
	if err != nil {
		dto.FromError(c, apperrors.ErrValidationFailed.WithDetail(err.Error()))
		return
	}
	result, err := h.svc.SearchCompanies(c.Request.Context(), p, req.Query, source)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, &dto.SearchCompaniesResponse{
		Data: dto.ToCompanyListResponse(result.Data),
		ID:   result.ID,
	})
}

// CompanyInfo 获取公司详情
// @Router /v1/companies/{id}/info [get]
func (h *LeadHandler) CompanyInfo(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	info, err := h.svc.CompanyInfo(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, info)
}

// Employees 批量获取公司员工
// @Summary 批量获取公司员工
// @Tags Search
// @Param ids query string true "公司 ID，逗号分隔"
// @Success 200 {object} dto.Response[map[string][]entity.Employee]
// @Router /v1/companies/employees [get]
func (h *LeadHandler) Employees(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	out, err := h.svc.Employees(c.Request.Context(), p, dto.SplitIDs(c.QueryArray("ids")))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, out)
}

// UnlockContact 解锁员工联系方式
// @Router /v1/contacts/{employeeId}/unlock [post]
func (h *LeadHandler) UnlockContact(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req dto.UnlockContactRequest
	// 请求体可省略
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	contact, err := h.svc.UnlockContact(c.Request.Context(), p, c.Param("employeeId"), req.CompanyID)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, contact)
}

// ListUnlocked 游标分页获取已解锁联系方式
// @Router /v1/contacts [get]
func (h *LeadHandler) ListUnlocked(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	cursor, err := dto.BindCursor(c)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	page, err := h.svc.ListUnlocked(c.Request.Context(), p.UserID, cursor)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ToCursorPage(page, dto.ToUnlockedContactResponse))
}

// KeywordsFromURL 根据网站生成搜索关键词
// @Router /v1/keywords/url [post]
func (h *LeadHandler) KeywordsFromURL(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req dto.URLRequest
	if !bindJSON(c, &req) {
		return
	}
	keywords, err := h.svc.KeywordsFromURL(c.Request.Context(), p, req.URL)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, &dto.KeywordsResponse{Keywords: keywords})
}

// KeywordsFromFiles 根据上传文件生成搜索关键词
// @Router /v1/keywords/files [post]
func (h *LeadHandler) KeywordsFromFiles(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	files, closeFiles, err := readUploads(c, h.uploads)
	defer closeFiles()
	if err != nil {
		dto.FromError(c, err)
		return
	}
	keywords, err := h.svc.KeywordsFromFiles(c.Request.Context(), p, files)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, &dto.KeywordsResponse{Keywords: keywords})
}

// SitePreview 获取公司官网摘要
// @Router /v1/sites/preview [get]
func (h *LeadHandler) SitePreview(c *gin.Context) {
	preview, err := h.svc.SitePreview(c.Request.Context(), c.Query("url"))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, preview)
}
