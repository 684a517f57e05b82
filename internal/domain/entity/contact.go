package entity

import (
	"time"
)

// UnlockedContact 用户已解锁的员工联系方式，(user_id, employee_id) 唯一
type UnlockedContact struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID     string    `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_unlock_user_employee"`
	EmployeeID string    `json:"employee_id" gorm:"type:varchar(128);not null;uniqueIndex:idx_unlock_user_employee"`
	CompanyID  string    `json:"company_id,omitempty" gorm:"type:varchar(128);index"`
	Industry   string    `json:"industry" gorm:"type:varchar(255)"`
	Location   string    `json:"location" gorm:"type:varchar(255)"`
	Mail       string    `json:"mail" gorm:"type:varchar(320)"`
	Phone      string    `json:"phone" gorm:"type:varchar(64)"`
	Verified   bool      `json:"verified"`
	Work       bool      `json:"work"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

// TableName 指定表名
func (UnlockedContact) TableName() string {
	return "unlocked_contacts"
}

// NewUnlockedContact 根据上游返回的联系方式创建解锁记录
func NewUnlockedContact(userID, employeeID, companyID string, c *Contact) *UnlockedContact {
	return &UnlockedContact{
		UserID:     userID,
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Industry:   c.Industry,
		Location:   c.Location,
		Mail:       c.Mail,
		Phone:      c.Phone,
		Verified:   c.Verified,
		Work:       c.Work,
		CreatedAt:  time.Now(),
	}
}

// Contact 转换为联系方式值对象
func (u *UnlockedContact) Contact() *Contact {
	return &Contact{
		Industry: u.Industry,
		Location: u.Location,
		Mail:     u.Mail,
		Phone:    u.Phone,
		Verified: u.Verified,
		Work:     u.Work,
	}
}
