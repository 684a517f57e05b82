// Package utils 提供通用工具函数
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// 会话令牌的客户端类型
const (
	ClientWeb    = "web"
	ClientMobile = "mobile"
)

// SessionClaims 会话令牌声明
// ID (jti) 即数据库中 session 行的 session_token
type SessionClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
	Client string `json:"client"`
	jwt.RegisteredClaims
}

// SessionID 返回令牌对应的会话 ID
func (c *SessionClaims) SessionID() string {
	return c.ID
}

// JWTManager JWT 管理器
type JWTManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTManager 创建 JWT 管理器
func NewJWTManager(secret, issuer string) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// IssueSessionToken 为会话签发令牌，过期时间与会话一致
func (m *JWTManager) IssueSessionToken(sessionID, userID, email, client string, expires time.Time) (string, error) {
	now := m.now()
	claims := SessionClaims{
		UserID: userID,
		Email:  email,
		Client: client,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseSessionToken 解析并验证令牌
func (m *JWTManager) ParseSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.ID == "" || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
