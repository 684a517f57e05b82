// Package handler 提供 HTTP 请求处理器
package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/infrastructure/leadsource"
	"leadgen-api/internal/interfaces/http/dto"
	"leadgen-api/internal/interfaces/http/middleware"
	"leadgen-api/pkg/errors"
)

const (
	defaultMaxUploadFiles = 5
	defaultMaxUploadBytes = 10 << 20
)

// UploadLimits 文件上传限制
type UploadLimits struct {
	MaxFiles int
	MaxBytes int64
}

func (l UploadLimits) normalize() UploadLimits {
	if l.MaxFiles <= 0 {
		l.MaxFiles = defaultMaxUploadFiles
	}
	if l.MaxBytes <= 0 {
		l.MaxBytes = defaultMaxUploadBytes
	}
	return l
}

// mustPrincipal 读取调用方，路由未挂认证中间件时返回 401
func mustPrincipal(c *gin.Context) (*principal.Principal, bool) {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		dto.FromError(c, errors.ErrUnauthorized)
		return nil, false
	}
	return p, true
}

// bindJSON 绑定请求体，失败时写入 400
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// readUploads 读取 multipart 表单中的 files 字段，返回的 closer 需在使用后调用
func readUploads(c *gin.Context, limits UploadLimits) ([]leadsource.Upload, func(), error) {
	limits = limits.normalize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limits.MaxBytes*int64(limits.MaxFiles)+1<<20)

	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, errors.ErrInvalidParam.WithDetail("invalid multipart form: " + err.Error())
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return nil, func() {}, errors.ErrValidationFailed.WithDetail("at least one file is required")
	}
	if len(headers) > limits.MaxFiles {
		return nil, func() {}, errors.ErrValidationFailed.WithDetail(fmt.Sprintf("at most %d files are allowed", limits.MaxFiles))
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	uploads := make([]leadsource.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > limits.MaxBytes {
			closeAll()
			return nil, func() {}, errors.New(errors.CodePayloadTooLarge, "file too large").
				WithDetail(fh.Filename + " exceeds " + strconv.FormatInt(limits.MaxBytes, 10) + " bytes")
		}
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, errors.ErrInvalidParam.WithDetail("failed to read " + fh.Filename)
		}
		opened = append(opened, f)
		uploads = append(uploads, leadsource.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        f,
		})
	}
	return uploads, closeAll, nil
}
