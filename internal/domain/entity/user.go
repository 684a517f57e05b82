// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Address 地址
type Address struct {
	Country string `json:"country" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

// Product 产品
type Product struct {
	Description string `json:"description"`
	Name        string `json:"name" validate:"required"`
}

// SocialMedia 社交账号
type SocialMedia struct {
	Platform string `json:"platform" validate:"required"`
	URL      string `json:"url" validate:"required,url"`
}

// User 用户实体
type User struct {
	ID            string        `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email         string        `json:"email" gorm:"type:varchar(320);uniqueIndex;not null"`
	EmailVerified *time.Time    `json:"email_verified,omitempty"`
	Name          string        `json:"name" gorm:"type:varchar(255)"`
	Image         string        `json:"image,omitempty" gorm:"type:text"`
	Company       string        `json:"company" gorm:"type:varchar(255);default:''"`
	Description   string        `json:"description" gorm:"type:text;default:''"`
	Job           string        `json:"job" gorm:"type:varchar(255);default:''"`
	Addresses     []Address     `json:"addresses" gorm:"type:text;serializer:json"`
	Industries    []string      `json:"industries" gorm:"type:text;serializer:json"`
	Mails         []string      `json:"mails" gorm:"type:text;serializer:json"`
	Phones        []string      `json:"phones" gorm:"type:text;serializer:json"`
	Products      []Product     `json:"products" gorm:"type:text;serializer:json"`
	Socials       []SocialMedia `json:"socials" gorm:"type:text;serializer:json"`
	Targets       []string      `json:"targets" gorm:"type:text;serializer:json"`
	Websites      []string      `json:"websites" gorm:"type:text;serializer:json"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// NewUser 创建新用户
func NewUser(email, name, image string) *User {
	now := time.Now()
	return &User{
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Name:       name,
		Image:      image,
		Addresses:  []Address{},
		Industries: []string{},
		Mails:      []string{},
		Phones:     []string{},
		Products:   []Product{},
		Socials:    []SocialMedia{},
		Targets:    []string{},
		Websites:   []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// MarkEmailVerified 标记邮箱已验证
func (u *User) MarkEmailVerified(at time.Time) {
	if u.EmailVerified == nil {
		u.EmailVerified = &at
	}
}

// UserProfile 用户可编辑资料，nil 字段表示不修改
type UserProfile struct {
	Name        *string       `json:"name,omitempty"`
	Job         *string       `json:"job,omitempty"`
	Company     *string       `json:"company,omitempty"`
	Description *string       `json:"description,omitempty"`
	Addresses   []Address     `json:"addresses,omitempty" validate:"omitempty,dive"`
	Industries  []string      `json:"industries,omitempty" validate:"omitempty,dive,required"`
	Mails       []string      `json:"mails,omitempty" validate:"omitempty,dive,email"`
	Phones      []string      `json:"phones,omitempty" validate:"omitempty,dive,required"`
	Products    []Product     `json:"products,omitempty" validate:"omitempty,dive"`
	Socials     []SocialMedia `json:"socials,omitempty" validate:"omitempty,dive"`
	Targets     []string      `json:"targets,omitempty" validate:"omitempty,dive,required"`
	Websites    []string      `json:"websites,omitempty" validate:"omitempty,dive,url"`
}

// Validate 校验资料字段
func (p *UserProfile) Validate() error {
	return validate.Struct(p)
}

// Sanitize 丢弃不合法的条目，用于合并外部生成的资料
func (p *UserProfile) Sanitize() {
	p.Addresses = keepValid(p.Addresses)
	p.Products = keepValid(p.Products)
	p.Socials = keepValid(p.Socials)
	p.Industries = keepNonEmpty(p.Industries)
	p.Phones = keepNonEmpty(p.Phones)
	p.Targets = keepNonEmpty(p.Targets)
	p.Mails = keepVar(p.Mails, "email")
	p.Websites = keepVar(p.Websites, "url")
}

// ApplyProfile 将资料写入用户，返回是否有变更
func (u *User) ApplyProfile(p *UserProfile) bool {
	changed := false
	setString := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	setString(&u.Name, p.Name)
	setString(&u.Job, p.Job)
	setString(&u.Company, p.Company)
	setString(&u.Description, p.Description)

	if p.Addresses != nil {
		u.Addresses, changed = p.Addresses, true
	}
	if p.Industries != nil {
		u.Industries, changed = p.Industries, true
	}
	if p.Mails != nil {
		u.Mails, changed = p.Mails, true
	}
	if p.Phones != nil {
		u.Phones, changed = p.Phones, true
	}
	if p.Products != nil {
		u.Products, changed = p.Products, true
	}
	if p.Socials != nil {
		u.Socials, changed = p.Socials, true
	}
	if p.Targets != nil {
		u.Targets, changed = p.Targets, true
	}
	if p.Websites != nil {
		u.Websites, changed = p.Websites, true
	}
	if changed {
		u.UpdatedAt = time.Now()
	}
	return changed
}

func keepValid[T any](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if validate.Struct(item) == nil {
			out = append(out, item)
		}
	}
	return out
}

func keepNonEmpty(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func keepVar(items []string, tag string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if validate.Var(item, "required,"+tag) == nil {
			out = append(out, item)
		}
	}
	return out
}
