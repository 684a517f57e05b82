package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/application/user"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/infrastructure/leadsource"
	"leadgen-api/internal/interfaces/http/dto"
)

// UserService 用户用例
type UserService interface {
	Get(ctx context.Context, p *principal.Principal, id string) (*entity.User, error)
	Me(ctx context.Context, p *principal.Principal) (*entity.User, error)
	UpdateProfile(ctx context.Context, p *principal.Principal, profile *entity.UserProfile) (*entity.User, error)
	ProfileFromURL(ctx context.Context, p *principal.Principal, site string, apply bool) (*user.Generated, error)
	ProfileFromFiles(ctx context.Context, p *principal.Principal, files []leadsource.Upload, apply bool) (*user.Generated, error)
}

// UserHandler 用户处理器
type UserHandler struct {
	svc     UserService
	uploads UploadLimits
}

// NewUserHandler 创建用户处理器
func NewUserHandler(svc UserService, uploads UploadLimits) *UserHandler {
	return &UserHandler{svc: svc, uploads: uploads}
}

// GetMe 获取当前用户信息
// @Summary 获取当前用户信息
// @Tags Users
// @Produce json
// @Success 200 {object} dto.Response[dto.UserResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	u, err := h.svc.Me(c.Request.Context(), p)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ToUserResponse(u))
}

// UpdateMe 更新当前用户资料
// @Summary 更新当前用户资料
// @Tags Users
// @Accept json
// @Produce json
// @Param body body entity.UserProfile true "资料，未提供的字段不修改"
// @Success 200 {object} dto.Response[dto.UserResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req entity.UserProfile
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), p, &req)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ToUserResponse(u))
}

// GetByID 获取用户，只能读取自己
// @Router /v1/users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ToUserResponse(u))
}

// ProfileFromURL 根据公司网站生成资料
// @Router /v1/users/me/profile/url [post]
func (h *UserHandler) ProfileFromURL(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req dto.ProfileURLRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.svc.ProfileFromURL(c.Request.Context(), p, req.URL, req.Apply)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, toGeneratedResponse(out))
}

// ProfileFromFiles 根据上传文件生成资料，表单字段 apply=true 时直接保存
// @Router /v1/users/me/profile/files [post]
func (h *UserHandler) ProfileFromFiles(c *gin.Context) {
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
	apply, _ := strconv.ParseBool(c.PostForm("apply"))

	out, err := h.svc.ProfileFromFiles(c.Request.Context(), p, files, apply)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, toGeneratedResponse(out))
}

func toGeneratedResponse(g *user.Generated) *dto.GeneratedProfileResponse {
	return &dto.GeneratedProfileResponse{
		Profile: g.Profile,
		User:    dto.ToUserResponse(g.User),
	}
}
