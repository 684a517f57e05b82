// Package principal 描述当前请求的登录用户
package principal

import (
	"context"
	"time"
)

type ctxKey struct{}

// Principal 已认证的调用方
type Principal struct {
	UserID    string
	Email     string
	SessionID string
	Client    string
	Expires   time.Time
}

// WithPrincipal 写入上下文
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext 从上下文读取
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}

// 上游 user 参数的取值方式
const (
	IdentityEmail = "email"
	IdentityID    = "id"
)

// Identity 计算传给上游服务的用户标识
type Identity func(p *Principal) string

// NewIdentity 根据配置创建 Identity，缺省使用邮箱，邮箱为空时退回用户 ID
func NewIdentity(mode string) Identity {
	if mode == IdentityID {
		return func(p *Principal) string { return p.UserID }
	}
	return func(p *Principal) string {
		if p.Email != "" {
			return p.Email
		}
		return p.UserID
	}
}
