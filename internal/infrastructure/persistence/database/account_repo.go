package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"leadgen-api/internal/domain/entity"
)

// AccountRepository 第三方账号仓储实现
type AccountRepository struct {
	client *Client
}

// NewAccountRepository 创建账号仓储
func NewAccountRepository(client *Client) *AccountRepository {
	return &AccountRepository{client: client}
}

// Upsert 插入或更新账号令牌
func (r *AccountRepository) Upsert(ctx context.Context, account *entity.Account) error {
	ctx, span := tracer.Start(ctx, "database.AccountRepository.Upsert")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "provider_account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "access_token", "refresh_token", "expires_at",
			"id_token", "scope", "token_type", "session_state", "updated_at",
		}),
	}).Create(account).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}

// Get 获取账号
func (r *AccountRepository) Get(ctx context.Context, provider, providerAccountID string) (*entity.Account, error) {
	ctx, span := tracer.Start(ctx, "database.AccountRepository.Get")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var account entity.Account
	err := db.First(&account, "provider = ? AND provider_account_id = ?", provider, providerAccountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// ListByUser 获取用户绑定的账号
func (r *AccountRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Account, error) {
	ctx, span := tracer.Start(ctx, "database.AccountRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var accounts []*entity.Account
	if err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}
