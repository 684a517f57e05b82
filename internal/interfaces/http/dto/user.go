package dto

import (
	"time"

	"leadgen-api/internal/domain/entity"
)

// UserResponse 用户响应
type UserResponse struct {
	ID            string               `json:"id"`
	Email         string               `json:"email"`
	EmailVerified *time.Time           `json:"email_verified,omitempty"`
	Name          string               `json:"name"`
	Image         string               `json:"image,omitempty"`
	Company       string               `json:"company"`
	Description   string               `json:"description"`
	Job           string               `json:"job"`
	Addresses     []entity.Address     `json:"addresses"`
	Industries    []string             `json:"industries"`
	Mails         []string             `json:"mails"`
	Phones        []string             `json:"phones"`
	Products      []entity.Product     `json:"products"`
	Socials       []entity.SocialMedia `json:"socials"`
	Targets       []string             `json:"targets"`
	Websites      []string             `json:"websites"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// ToUserResponse 实体转换为响应
func ToUserResponse(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Name:          u.Name,
		Image:         u.Image,
		Company:       u.Company,
		Description:   u.Description,
		Job:           u.Job,
		Addresses:     orEmpty(u.Addresses),
		Industries:    orEmpty(u.Industries),
		Mails:         orEmpty(u.Mails),
		Phones:        orEmpty(u.Phones),
		Products:      orEmpty(u.Products),
		Socials:       orEmpty(u.Socials),
		Targets:       orEmpty(u.Targets),
		Websites:      orEmpty(u.Websites),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// ProfileURLRequest 根据网站生成资料
type ProfileURLRequest struct {
	URL   string `json:"url" binding:"required"`
	Apply bool   `json:"apply"`
}

// GeneratedProfileResponse 生成资料响应，apply 时附带更新后的用户
type GeneratedProfileResponse struct {
	Profile *entity.GeneratedProfile `json:"profile"`
	User    *UserResponse            `json:"user,omitempty"`
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
