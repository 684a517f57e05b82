package dto

import (
	"time"

	"leadgen-api/internal/domain/entity"
)

// GenerateMailRequest 邮件生成请求
type GenerateMailRequest struct {
	Company  string `json:"company" binding:"required"`
	Employee string `json:"employee"`
	Notes    string `json:"notes"`
}

// SendMailsRequest 发送邮件请求
type SendMailsRequest struct {
	Mails   []string `json:"mails" binding:"required,min=1"`
	Subject string   `json:"subject" binding:"required"`
	Message string   `json:"message" binding:"required"`
}

// MailResponse 外发邮件响应
type MailResponse struct {
	ID         string     `json:"id"`
	Recipients []string   `json:"recipients"`
	Subject    string     `json:"subject"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	Attempts   int        `json:"attempts"`
	CreatedAt  time.Time  `json:"created_at"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
}

// ToMailResponse 实体转换为响应
func ToMailResponse(m *entity.OutboundMail) *MailResponse {
	return &MailResponse{
		ID:         m.ID,
		Recipients: orEmpty(m.Recipients),
		Subject:    m.Subject,
		Status:     string(m.Status),
		Error:      m.ErrorMessage,
		Attempts:   m.Attempts,
		CreatedAt:  m.CreatedAt,
		SentAt:     m.SentAt,
	}
}
