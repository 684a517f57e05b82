// Package oauth 封装 Google OAuth2 登录流程
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"leadgen-api/internal/config"
	pkgtracer "leadgen-api/pkg/tracer"
)

var tracer = otel.Tracer("oauth")

// ProviderGoogle 账号提供方标识
const ProviderGoogle = "google"

const defaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// UserInfo OpenID userinfo 响应
type UserInfo struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Google Google OAuth2 客户端
type Google struct {
	base        oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// GoogleOption 配置项
type GoogleOption func(*Google)

// WithEndpoint 替换授权端点
func WithEndpoint(endpoint oauth2.Endpoint, userInfoURL string) GoogleOption {
	return func(g *Google) {
		g.base.Endpoint = endpoint
		g.userInfoURL = userInfoURL
	}
}

// NewGoogle 创建 Google OAuth2 客户端
func NewGoogle(cfg *config.GoogleOAuthConfig, opts ...GoogleOption) *Google {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}
	g := &Google{
		base: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: pkgtracer.HTTPTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Configured 是否配置了客户端凭据
func (g *Google) Configured() bool {
	return g.base.ClientID != "" && g.base.ClientSecret != ""
}

// RedirectURL 配置的回调地址
func (g *Google) RedirectURL() string {
	return g.base.RedirectURL
}

// config 返回指定回调地址的配置副本
func (g *Google) config(redirectURI string) *oauth2.Config {
	cfg := g.base
	if redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}
	return &cfg
}

// NewVerifier 生成 PKCE verifier
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthCodeURL 构造授权跳转地址
func (g *Google) AuthCodeURL(state, verifier, redirectURI string) string {
	return g.config(redirectURI).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Exchange 用授权码换取令牌
func (g *Google) Exchange(ctx context.Context, code, verifier, redirectURI string) (*oauth2.Token, error) {
	ctx, span := tracer.Start(ctx, "oauth.Google.Exchange")
	defer span.End()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	token, err := g.config(redirectURI).Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// UserInfo 获取用户信息
func (g *Google) UserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	ctx, span := tracer.Start(ctx, "oauth.Google.UserInfo")
	defer span.End()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	client := g.base.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("userinfo returned status %d", resp.StatusCode)
		span.RecordError(err)
		return nil, err
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("userinfo has no email")
	}
	return &info, nil
}

// IDToken 提取令牌中的 id_token
func IDToken(token *oauth2.Token) string {
	if token == nil {
		return ""
	}
	if v, ok := token.Extra("id_token").(string); ok {
		return v
	}
	return ""
}

// Scope 提取令牌中的 scope
func Scope(token *oauth2.Token) string {
	if token == nil {
		return ""
	}
	if v, ok := token.Extra("scope").(string); ok {
		return v
	}
	return ""
}
