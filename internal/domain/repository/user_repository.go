// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"leadgen-api/internal/domain/entity"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户
	Create(ctx context.Context, user *entity.User) error

	// GetByID 根据 ID 获取用户
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// GetByEmail 根据邮箱获取用户
	GetByEmail(ctx context.Context, email string) (*entity.User, error)

	// Update 更新用户
	Update(ctx context.Context, user *entity.User) error

	// Delete 删除用户
	Delete(ctx context.Context, id string) error
}

// AccountRepository 第三方账号仓储接口
type AccountRepository interface {
	// Upsert 按 (provider, provider_account_id) 插入或更新
	Upsert(ctx context.Context, account *entity.Account) error

	// Get 获取账号
	Get(ctx context.Context, provider, providerAccountID string) (*entity.Account, error)

	// ListByUser 获取用户绑定的账号
	ListByUser(ctx context.Context, userID string) ([]*entity.Account, error)
}

// SessionRepository 会话仓储接口
type SessionRepository interface {
	// Create 创建会话
	Create(ctx context.Context, session *entity.Session) error

	// Get 根据 token 获取会话
	Get(ctx context.Context, token string) (*entity.Session, error)

	// Delete 删除会话
	Delete(ctx context.Context, token string) error

	// DeleteByUser 删除用户全部会话
	DeleteByUser(ctx context.Context, userID string) (int64, error)

	// DeleteExpired 删除过期会话
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
