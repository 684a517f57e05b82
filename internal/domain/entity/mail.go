package entity

import (
	"time"
)

// MailStatus 外发邮件状态
type MailStatus string

const (
	MailStatusPending MailStatus = "pending"
	MailStatusSending MailStatus = "sending"
	MailStatusSent    MailStatus = "sent"
	MailStatusFailed  MailStatus = "failed"
	// MailStatusRejected 服务端永久拒收，不再重试
	MailStatusRejected MailStatus = "rejected"
)

// OutboundMail 外发邮件任务
type OutboundMail struct {
	ID           string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID       string     `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Sender       string     `json:"sender" gorm:"type:varchar(320)"`
	Recipients   []string   `json:"recipients" gorm:"type:text;serializer:json;not null"`
	Subject      string     `json:"subject" gorm:"type:varchar(998)"`
	Body         string     `json:"body" gorm:"type:text"`
	Status       MailStatus `json:"status" gorm:"type:varchar(16);index;default:'pending'"`
	ErrorMessage string     `json:"error_message,omitempty" gorm:"type:text"`
	Attempts     int        `json:"attempts"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
}

// TableName 指定表名
func (OutboundMail) TableName() string {
	return "outbound_mails"
}

// NewOutboundMail 创建外发邮件
func NewOutboundMail(userID, sender string, recipients []string, subject, body string) *OutboundMail {
	now := time.Now()
	return &OutboundMail{
		UserID:     userID,
		Sender:     sender,
		Recipients: dedup(nil, recipients),
		Subject:    subject,
		Body:       body,
		Status:     MailStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Start 开始发送
func (m *OutboundMail) Start() {
	m.Status = MailStatusSending
	m.Attempts++
	m.UpdatedAt = time.Now()
}

// MarkSent 发送成功
func (m *OutboundMail) MarkSent() {
	now := time.Now()
	m.Status = MailStatusSent
	m.ErrorMessage = ""
	m.SentAt = &now
	m.UpdatedAt = now
}

// Fail 发送失败
func (m *OutboundMail) Fail(errMsg string) {
	m.Status = MailStatusFailed
	m.ErrorMessage = errMsg
	m.UpdatedAt = time.Now()
}

// Reject 永久失败
func (m *OutboundMail) Reject(errMsg string) {
	m.Status = MailStatusRejected
	m.ErrorMessage = errMsg
	m.UpdatedAt = time.Now()
}

// IsTerminal 是否为终态
func (m *OutboundMail) IsTerminal() bool {
	return m.Status == MailStatusSent || m.Status == MailStatusRejected
}

// CanRetry 是否可重试
func (m *OutboundMail) CanRetry(maxAttempts int) bool {
	return !m.IsTerminal() && m.Attempts < maxAttempts
}
