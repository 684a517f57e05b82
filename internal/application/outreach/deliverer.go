package outreach

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/domain/repository"
	"leadgen-api/internal/infrastructure/mailer"
	"leadgen-api/internal/infrastructure/messaging"
	"leadgen-api/pkg/logger"
	"leadgen-api/pkg/metrics"
)

// errMailMissing 邮件记录不存在
var errMailMissing = stderrors.New("outbound mail not found")

// Deliverer 消费发送任务并通过 SMTP 投递
type Deliverer struct {
	mails       repository.MailRepository
	sender      mailer.Sender
	publisher   Publisher
	maxAttempts int
}

// NewDeliverer 创建投递器
func NewDeliverer(mails repository.MailRepository, sender mailer.Sender, publisher Publisher, maxAttempts int) *Deliverer {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Deliverer{mails: mails, sender: sender, publisher: publisher, maxAttempts: maxAttempts}
}

// Handle 处理 mail.send 消息，返回 messaging.Permanent 的错误不会重试
func (d *Deliverer) Handle(ctx context.Context, msg *messaging.Message) error {
	var payload messaging.MailSendMessage
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return messaging.Permanent(fmt.Errorf("invalid payload: %w", err))
	}
	ctx = logger.WithContext(ctx, logger.UserIDKey, payload.UserID)
	ctx = logger.WithContext(ctx, logger.MailIDKey, payload.MailID)
	return d.Deliver(ctx, payload.MailID)
}

// Deliver 投递一封邮件，已发送的邮件直接跳过
func (d *Deliverer) Deliver(ctx context.Context, mailID string) error {
	mail, err := d.mails.GetByID(ctx, mailID)
	if err != nil {
		return fmt.Errorf("failed to load mail: %w", err)
	}
	if mail == nil {
		return messaging.Permanent(errMailMissing)
	}
	if mail.IsTerminal() {
		logger.Debug(ctx, "mail already finalized", "mail_id", mailID, "status", string(mail.Status))
		return nil
	}
	if !mail.CanRetry(d.maxAttempts) {
		return messaging.Permanent(fmt.Errorf("mail %s exceeded %d attempts", mailID, d.maxAttempts))
	}

	mail.Start()
	if err := d.mails.Update(ctx, mail); err != nil {
		return fmt.Errorf("failed to mark mail sending: %w", err)
	}

	start := time.Now()
	err = d.sender.Send(ctx, &mailer.Message{
		ReplyTo: mail.Sender,
		To:      mail.Recipients,
		Subject: mail.Subject,
		Body:    mail.Body,
	})
	metrics.MailSendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		temporary := mailer.IsTemporary(err)
		if temporary {
			mail.Fail(err.Error())
		} else {
			mail.Reject(err.Error())
		}
		if uerr := d.mails.Update(ctx, mail); uerr != nil {
			logger.Error(ctx, "failed to record mail failure", uerr, "mail_id", mailID)
		}
		metrics.MailsTotal.WithLabelValues(string(mail.Status)).Inc()
		logger.Warn(ctx, "mail delivery failed", "mail_id", mailID, "attempt", mail.Attempts, "status", string(mail.Status), "error", err.Error())
		if !temporary || !mail.CanRetry(d.maxAttempts) {
			return messaging.Permanent(err)
		}
		return err
	}

	mail.MarkSent()
	if err := d.mails.Update(ctx, mail); err != nil {
		logger.Error(ctx, "failed to mark mail sent", err, "mail_id", mailID)
	}
	metrics.MailsTotal.WithLabelValues(string(entity.MailStatusSent)).Inc()
	logger.Info(ctx, "mail delivered", "mail_id", mailID, "recipients", len(mail.Recipients))
	return nil
}

// Requeue 重新发布未发送且可重试的邮件，返回发布数量
func (d *Deliverer) Requeue(ctx context.Context, limit int) (int, error) {
	pending, err := d.mails.ListRetryable(ctx, d.maxAttempts, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list retryable mails: %w", err)
	}
	n := 0
	for _, mail := range pending {
		if _, err := d.publisher.PublishMailSend(ctx, mail.ID, mail.UserID); err != nil {
			return n, fmt.Errorf("failed to requeue mail %s: %w", mail.ID, err)
		}
		n++
	}
	return n, nil
}
