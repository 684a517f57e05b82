// Package outreach 提供外联邮件生成与发送用例
package outreach

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/domain/repository"
	"leadgen-api/internal/infrastructure/leadsource"
	"leadgen-api/pkg/errors"
	"leadgen-api/pkg/logger"
	"leadgen-api/pkg/metrics"
)

const (
	defaultMaxRecipients = 50
	maxSubjectLength     = 998
)

var validate = validator.New()

// Generator 上游邮件生成接口
type Generator interface {
	GenerateMail(ctx context.Context, user string, draft entity.MailDraft) (*entity.GeneratedMail, error)
}

// Publisher 发送任务发布接口
type Publisher interface {
	PublishMailSend(ctx context.Context, mailID, userID string) (string, error)
}

// SendInput 发送请求
type SendInput struct {
	Mails   []string
	Subject string
	Message string
}

// Service 外联邮件服务
type Service struct {
	generator     Generator
	mails         repository.MailRepository
	publisher     Publisher
	identity      principal.Identity
	maxRecipients int
}

// NewService 创建外联邮件服务
func NewService(generator Generator, mails repository.MailRepository, publisher Publisher, identity principal.Identity, maxRecipients int) *Service {
	if maxRecipients <= 0 {
		maxRecipients = defaultMaxRecipients
	}
	return &Service{
		generator:     generator,
		mails:         mails,
		publisher:     publisher,
		identity:      identity,
		maxRecipients: maxRecipients,
	}
}

// GenerateMail 生成中英文外联邮件草稿
func (s *Service) GenerateMail(ctx context.Context, p *principal.Principal, draft entity.MailDraft) (*entity.GeneratedMail, error) {
	draft.Company = strings.TrimSpace(draft.Company)
	if draft.Company == "" {
		return nil, errors.ErrValidationFailed.WithDetail("company is required")
	}
	draft.Employee = strings.TrimSpace(draft.Employee)
	draft.Notes = strings.TrimSpace(draft.Notes)

	mail, err := s.generator.GenerateMail(ctx, s.identity(p), draft)
	if err != nil {
		return nil, leadsource.AsAppError(err, errors.New(errors.CodeGenerationFailed, "mail generation failed"))
	}
	return mail, nil
}

// SendMails 创建外发邮件并投递到发送队列，返回待发送的邮件
func (s *Service) SendMails(ctx context.Context, p *principal.Principal, in SendInput) (*entity.OutboundMail, error) {
	recipients, err := s.recipients(in.Mails)
	if err != nil {
		return nil, err
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, errors.ErrValidationFailed.WithDetail("subject is required")
	}
	if len(subject) > maxSubjectLength {
		return nil, errors.ErrValidationFailed.WithDetail("subject is too long")
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, errors.ErrValidationFailed.WithDetail("message is required")
	}

	mail := entity.NewOutboundMail(p.UserID, p.Email, recipients, subject, in.Message)
	if err := s.mails.Create(ctx, mail); err != nil {
		logger.Error(ctx, "failed to create outbound mail", err)
		return nil, errors.ErrDatabase.WithError(err)
	}

	if _, err := s.publisher.PublishMailSend(ctx, mail.ID, p.UserID); err != nil {
		logger.Error(ctx, "failed to enqueue outbound mail", err, "mail_id", mail.ID)
		metrics.MailsTotal.WithLabelValues("enqueue_failed").Inc()
		return nil, errors.ErrMailEnqueue.WithError(err)
	}
	metrics.MailsTotal.WithLabelValues("queued").Inc()
	logger.Info(ctx, "outbound mail queued", "mail_id", mail.ID, "recipients", len(recipients))
	return mail, nil
}

func (s *Service) recipients(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if err := validate.Var(addr, "email"); err != nil {
			return nil, errors.ErrValidationFailed.WithDetail("invalid email: " + addr)
		}
		out = append(out, addr)
	}
	if len(out) == 0 {
		return nil, errors.ErrValidationFailed.WithDetail("at least one recipient is required")
	}
	if len(out) > s.maxRecipients {
		return nil, errors.ErrValidationFailed.WithDetail("too many recipients")
	}
	return out, nil
}

// MailStatus 获取调用者的外发邮件
func (s *Service) MailStatus(ctx context.Context, userID, id string) (*entity.OutboundMail, error) {
	mail, err := s.mails.GetByID(ctx, id)
	if err != nil {
		logger.Error(ctx, "failed to get outbound mail", err, "mail_id", id)
		return nil, errors.ErrDatabase.WithError(err)
	}
	if mail == nil || mail.UserID != userID {
		return nil, errors.ErrMailNotFound
	}
	return mail, nil
}
