package dto

import (
	"time"

	"leadgen-api/internal/domain/entity"
	"leadgen-api/pkg/utils"
)

// SearchCompaniesRequest 公司搜索请求
type SearchCompaniesRequest struct {
	Query  string `json:"query" binding:"required"`
	Source string `json:"source" binding:"required"`
}

// CompanyResponse 公司响应，附带国家代码与国旗
type CompanyResponse struct {
	entity.Company
	CountryCode string `json:"country_code,omitempty"`
	Flag        string `json:"flag,omitempty"`
}

// ToCompanyResponse 实体转换为响应
func ToCompanyResponse(c entity.Company) *CompanyResponse {
	code := c.CountryCode()
	return &CompanyResponse{
		Company:     c,
		CountryCode: code,
		Flag:        utils.ISOToFlag(code),
	}
}

// ToCompanyListResponse 实体列表转换为响应
func ToCompanyListResponse(items []entity.Company) []*CompanyResponse {
	out := make([]*CompanyResponse, 0, len(items))
	for _, c := range items {
		out = append(out, ToCompanyResponse(c))
	}
	return out
}

// SearchCompaniesResponse 公司搜索响应
type SearchCompaniesResponse struct {
	Data []*CompanyResponse `json:"data"`
	ID   string             `json:"id"`
}

// UnlockContactRequest 解锁联系方式请求
type UnlockContactRequest struct {
	CompanyID string `json:"company_id"`
}

// UnlockedContactResponse 已解锁联系方式
type UnlockedContactResponse struct {
	EmployeeID string `json:"employee_id"`
	CompanyID  string `json:"company_id,omitempty"`
	entity.Contact
	CreatedAt time.Time `json:"created_at"`
}

// ToUnlockedContactResponse 实体转换为响应
func ToUnlockedContactResponse(u *entity.UnlockedContact) *UnlockedContactResponse {
	return &UnlockedContactResponse{
		EmployeeID: u.EmployeeID,
		CompanyID:  u.CompanyID,
		Contact:    *u.Contact(),
		CreatedAt:  u.CreatedAt,
	}
}

// KeywordsResponse 关键词响应
type KeywordsResponse struct {
	Keywords []string `json:"keywords"`
}
