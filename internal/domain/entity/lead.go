package entity

import (
	"strings"

	"leadgen-api/pkg/utils"
)

// 以下类型对应上游线索服务的 JSON 结构

// BaseInfo 公司和员工共有字段
type BaseInfo struct {
	Ava  string `json:"ava,omitempty"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Contact 联系方式，解锁前为空
type Contact struct {
	Industry string `json:"industry"`
	Location string `json:"location"`
	Mail     string `json:"mail"`
	Phone    string `json:"phone"`
	Verified bool   `json:"verified"`
	Work     bool   `json:"work"`
}

// Employee 员工
type Employee struct {
	BaseInfo
	Industry string `json:"industry,omitempty"`
	Location string `json:"location,omitempty"`
	Mail     string `json:"mail,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Verified *bool  `json:"verified,omitempty"`
	Work     *bool  `json:"work,omitempty"`
	Company  string `json:"company"`
	LinkedIn string `json:"linkedin"`
	Star     bool   `json:"star,omitempty"`
	Title    string `json:"title"`
}

// Unlocked 员工联系方式是否已可见
func (e *Employee) Unlocked() bool {
	return e.Mail != "" || e.Phone != ""
}

// MergeContact 合并已解锁的联系方式
func (e *Employee) MergeContact(c *Contact) {
	e.Industry = c.Industry
	e.Location = c.Location
	e.Mail = c.Mail
	e.Phone = c.Phone
	e.Verified = &c.Verified
	e.Work = &c.Work
}

// Company 公司
type Company struct {
	BaseInfo
	Address       string   `json:"address,omitempty"`
	Country       string   `json:"country,omitempty"`
	Description   string   `json:"description,omitempty"`
	EmployeeCount int      `json:"employeeCount,omitempty"`
	Industry      string   `json:"industry,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	SearchQueries []string `json:"searchQueries,omitempty"`
	Unlocked      bool     `json:"unlocked,omitempty"`
	URL           string   `json:"url,omitempty"`
}

// CountryCode 国家 ISO 代码
func (c *Company) CountryCode() string {
	return utils.CountryToISO(c.Country)
}

// CompanyInfo 公司详细信息
type CompanyInfo struct {
	BuyingProducts           []string      `json:"buyingProducts,omitempty"`
	CompanyDescription       string        `json:"companyDescription,omitempty"`
	Emails                   []string      `json:"emails,omitempty"`
	ImportPotential          *float64      `json:"importPotential,omitempty"`
	ImportPotentialReasoning string        `json:"importPotentialReasoning,omitempty"`
	Industries               []string      `json:"industries,omitempty"`
	InternationalTrade       []string      `json:"internationalTrade,omitempty"`
	Phones                   []string      `json:"phones,omitempty"`
	SellingProducts          []Product     `json:"sellingProducts,omitempty"`
	SocialMedia              []SocialMedia `json:"socialMedia,omitempty"`
	StoresBranchesOffices    []Address     `json:"storesBranchesOffices,omitempty"`
	TargetCustomers          []string      `json:"targetCustomers,omitempty"`
	TargetSuppliers          []string      `json:"targetSuppliers,omitempty"`
}

// GeneratedMail 生成的双语邮件
type GeneratedMail struct {
	EN string `json:"en"`
	VI string `json:"vi"`
}

// GeneratedProfile 上游根据网站或文件生成的用户资料
type GeneratedProfile struct {
	Addresses   []Address     `json:"addresses,omitempty"`
	Company     string        `json:"company,omitempty"`
	Description string        `json:"description,omitempty"`
	Industries  []string      `json:"industries,omitempty"`
	Mails       []string      `json:"mails,omitempty"`
	Phones      []string      `json:"phones,omitempty"`
	Products    []Product     `json:"products,omitempty"`
	Socials     []SocialMedia `json:"socials,omitempty"`
	Targets     []string      `json:"targets,omitempty"`
	Websites    []string      `json:"websites,omitempty"`
}

// ToProfile 转换为可应用的资料，空字段不覆盖
func (g *GeneratedProfile) ToProfile() *UserProfile {
	p := &UserProfile{
		Addresses:  g.Addresses,
		Industries: g.Industries,
		Mails:      g.Mails,
		Phones:     g.Phones,
		Products:   g.Products,
		Socials:    g.Socials,
		Targets:    g.Targets,
		Websites:   g.Websites,
	}
	if s := strings.TrimSpace(g.Company); s != "" {
		p.Company = &s
	}
	if s := strings.TrimSpace(g.Description); s != "" {
		p.Description = &s
	}
	p.Sanitize()
	p.Addresses = nilIfEmpty(p.Addresses)
	p.Industries = nilIfEmpty(p.Industries)
	p.Mails = nilIfEmpty(p.Mails)
	p.Phones = nilIfEmpty(p.Phones)
	p.Products = nilIfEmpty(p.Products)
	p.Socials = nilIfEmpty(p.Socials)
	p.Targets = nilIfEmpty(p.Targets)
	p.Websites = nilIfEmpty(p.Websites)
	return p
}

func nilIfEmpty[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	return items
}

// SearchResult 公司搜索结果，ID 为上游的搜索 ID
type SearchResult struct {
	Data []Company `json:"data"`
	ID   string    `json:"id"`
}

// MailDraft 邮件生成参数
type MailDraft struct {
	Company  string `json:"company"`
	Employee string `json:"employee,omitempty"`
	Notes    string `json:"notes,omitempty"`
}
