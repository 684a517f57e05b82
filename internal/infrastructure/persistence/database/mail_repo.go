package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leadgen-api/internal/domain/entity"
)

// MailRepository 外发邮件仓储实现
type MailRepository struct {
	client *Client
}

// NewMailRepository 创建外发邮件仓储
func NewMailRepository(client *Client) *MailRepository {
	return &MailRepository{client: client}
}

// Create 创建邮件
func (r *MailRepository) Create(ctx context.Context, mail *entity.OutboundMail) error {
	ctx, span := tracer.Start(ctx, "database.MailRepository.Create")
	defer span.End()

	if mail.ID == "" {
		mail.ID = uuid.NewString()
	}
	db := getDB(ctx, r.client.db)
	if err := db.Create(mail).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create mail: %w", err)
	}
	return nil
}

// GetByID 获取邮件
func (r *MailRepository) GetByID(ctx context.Context, id string) (*entity.OutboundMail, error) {
	ctx, span := tracer.Start(ctx, "database.MailRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var mail entity.OutboundMail
	if err := db.First(&mail, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get mail: %w", err)
	}
	return &mail, nil
}

// Update 更新邮件
func (r *MailRepository) Update(ctx context.Context, mail *entity.OutboundMail) error {
	ctx, span := tracer.Start(ctx, "database.MailRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(mail).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update mail: %w", err)
	}
	return nil
}

// ListRetryable 获取未发送且未超过重试次数的邮件
func (r *MailRepository) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.OutboundMail, error) {
	ctx, span := tracer.Start(ctx, "database.MailRepository.ListRetryable")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var mails []*entity.OutboundMail
	if err := db.Where("status IN ? AND attempts < ?",
		[]entity.MailStatus{entity.MailStatusPending, entity.MailStatusFailed}, maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&mails).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list retryable mails: %w", err)
	}
	return mails, nil
}
