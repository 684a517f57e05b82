package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"leadgen-api/internal/application/auth"
	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/interfaces/http/dto"
	"leadgen-api/internal/interfaces/http/middleware"
	"leadgen-api/pkg/errors"
	"leadgen-api/pkg/logger"
)

const (
	// ExpoRedirectCookie 移动端登录回跳地址 Cookie
	ExpoRedirectCookie = "__leadgen-expo-redirect-state"
	expoCookieMaxAge   = 600

	callbackPath = "/v1/auth/google/callback"
)

// AuthService 认证用例
type AuthService interface {
	MobileRedirectAllowed(uri string) bool
	Start(ctx context.Context, redirectURI, returnTo string) (string, error)
	Callback(ctx context.Context, state, code, mobileRedirect string) (*auth.SignIn, error)
	Session(ctx context.Context, p *principal.Principal) (*auth.SessionView, error)
	SignOut(ctx context.Context, p *principal.Principal) error
}

// AuthHandlerConfig 登录相关的 HTTP 配置
type AuthHandlerConfig struct {
	CookieName        string
	CookieDomain      string
	PostLoginRedirect string
	// Development 为 true 时回调地址取自请求 Host，Cookie 不加 Secure
	Development bool
}

// AuthHandler 认证处理器
type AuthHandler struct {
	svc AuthService
	cfg AuthHandlerConfig
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc AuthService, cfg AuthHandlerConfig) *AuthHandler {
	if cfg.CookieName == "" {
		cfg.CookieName = "leadgen.session-token"
	}
	if cfg.PostLoginRedirect == "" {
		cfg.PostLoginRedirect = "/"
	}
	return &AuthHandler{svc: svc, cfg: cfg}
}

// GoogleStart 发起 Google 登录
// @Summary 发起 Google 登录
// @Tags Auth
// @Param expo-redirect query string false "移动端回跳地址"
// @Param redirect query string false "登录后跳转的站内路径"
// @Success 302
// @Router /v1/auth/google [get]
func (h *AuthHandler) GoogleStart(c *gin.Context) {
	if expo := c.Query("expo-redirect"); expo != "" {
		if !h.svc.MobileRedirectAllowed(expo) {
			dto.FromError(c, errors.ErrInvalidParam.WithDetail("expo-redirect is not allowed"))
			return
		}
		h.setCookie(c, ExpoRedirectCookie, expo, expoCookieMaxAge)
	}

	target, err := h.svc.Start(c.Request.Context(), h.redirectURI(c), c.Query("redirect"))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// GoogleCallback 处理 Google 回调
// @Summary Google 登录回调
// @Tags Auth
// @Success 302
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	ctx := c.Request.Context()
	if reason := c.Query("error"); reason != "" {
		dto.FromError(c, errors.ErrOAuthFailed.WithDetail(reason))
		return
	}

	mobile, _ := c.Cookie(ExpoRedirectCookie)
	if mobile != "" {
		h.setCookie(c, ExpoRedirectCookie, "", -1)
		if !h.svc.MobileRedirectAllowed(mobile) {
			logger.Warn(ctx, "dropping disallowed mobile redirect")
			mobile = ""
		}
	}

	result, err := h.svc.Callback(ctx, c.Query("state"), c.Query("code"), mobile)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	if result.MobileRedirect != "" {
		target, err := withQuery(result.MobileRedirect, "session_token", result.Token)
		if err != nil {
			dto.FromError(c, errors.ErrInvalidParam.WithDetail("invalid mobile redirect"))
			return
		}
		c.Redirect(http.StatusFound, target)
		return
	}

	maxAge := int(time.Until(result.Session.Expires).Seconds())
	h.setCookie(c, h.cfg.CookieName, result.Token, maxAge)
	c.Redirect(http.StatusFound, h.postLoginTarget(result.ReturnTo))
}

// GetSession 获取当前会话，未登录时 data 为空
// @Summary 获取当前会话
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Router /v1/auth/session [get]
func (h *AuthHandler) GetSession(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		dto.Success[*dto.SessionResponse](c, nil)
		return
	}
	view, err := h.svc.Session(c.Request.Context(), p)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, &dto.SessionResponse{User: dto.ToUserResponse(view.User), Expires: view.Expires})
}

// SignOut 登出
// @Summary 登出
// @Tags Auth
// @Success 204
// @Router /v1/auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	if err := h.svc.SignOut(c.Request.Context(), p); err != nil {
		dto.FromError(c, err)
		return
	}
	h.setCookie(c, h.cfg.CookieName, "", -1)
	dto.NoContent(c)
}

// Secret 登录探针
func (h *AuthHandler) Secret(c *gin.Context) {
	dto.Success(c, &dto.SecretResponse{Message: auth.SecretMessage})
}

// redirectURI 开发模式下按请求 Host 拼出回调地址，生产环境使用配置值
func (h *AuthHandler) redirectURI(c *gin.Context) string {
	if !h.cfg.Development {
		return ""
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	if host == "" {
		return ""
	}
	scheme := c.GetHeader("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
	}
	return scheme + "://" + host + callbackPath
}

func (h *AuthHandler) postLoginTarget(returnTo string) string {
	if returnTo == "" {
		return h.cfg.PostLoginRedirect
	}
	base, err := url.Parse(h.cfg.PostLoginRedirect)
	if err != nil {
		return h.cfg.PostLoginRedirect
	}
	ref, err := url.Parse(returnTo)
	if err != nil {
		return h.cfg.PostLoginRedirect
	}
	return base.ResolveReference(ref).String()
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", h.cfg.CookieDomain, !h.cfg.Development, true)
}

func withQuery(raw, key, value string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
