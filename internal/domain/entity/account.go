package entity

import (
	"time"
)

// AccountType 账号类型
type AccountType string

const (
	AccountTypeOAuth AccountType = "oauth"
	AccountTypeOIDC  AccountType = "oidc"
)

// Account 第三方登录账号，(provider, provider_account_id) 唯一
type Account struct {
	Provider          string      `json:"provider" gorm:"type:varchar(64);primaryKey"`
	ProviderAccountID string      `json:"provider_account_id" gorm:"type:varchar(255);primaryKey"`
	UserID            string      `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Type              AccountType `json:"type" gorm:"type:varchar(32);not null"`
	AccessToken       string      `json:"-" gorm:"type:text"`
	RefreshToken      string      `json:"-" gorm:"type:text"`
	ExpiresAt         int64       `json:"expires_at,omitempty"`
	IDToken           string      `json:"-" gorm:"type:text"`
	Scope             string      `json:"scope,omitempty" gorm:"type:text"`
	TokenType         string      `json:"token_type,omitempty" gorm:"type:varchar(32)"`
	SessionState      string      `json:"session_state,omitempty" gorm:"type:text"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}

// Session 登录会话
type Session struct {
	SessionToken string    `json:"-" gorm:"type:varchar(128);primaryKey"`
	UserID       string    `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Client       string    `json:"client" gorm:"type:varchar(16);default:'web'"`
	Expires      time.Time `json:"expires" gorm:"index;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName 指定表名
func (Session) TableName() string {
	return "sessions"
}

// NewSession 创建会话
func NewSession(token, userID, client string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		SessionToken: token,
		UserID:       userID,
		Client:       client,
		Expires:      now.Add(ttl),
		CreatedAt:    now,
	}
}

// IsExpired 会话是否过期
func (s *Session) IsExpired() bool {
	return !time.Now().Before(s.Expires)
}
