package repository

import (
	"context"

	"leadgen-api/internal/domain/entity"
)

// CollectionRepository 收藏夹仓储接口，所有查询按用户隔离
type CollectionRepository interface {
	// Create 创建收藏夹
	Create(ctx context.Context, collection *entity.Collection) error

	// GetByID 获取用户的收藏夹
	GetByID(ctx context.Context, userID, id string) (*entity.Collection, error)

	// GetForUpdate 在事务中获取并锁定用户的收藏夹
	GetForUpdate(ctx context.Context, userID, id string) (*entity.Collection, error)

	// ListByUser 获取用户全部收藏夹
	ListByUser(ctx context.Context, userID string) ([]*entity.Collection, error)

	// ListPage 按更新时间倒序分页
	ListPage(ctx context.Context, userID string, cursor Cursor) (*CursorPage[*entity.Collection], error)

	// Update 更新收藏夹
	Update(ctx context.Context, collection *entity.Collection) error

	// DeleteByIDs 删除用户的收藏夹，返回删除数量
	DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error)
}

// HistoryRepository 搜索历史仓储接口
type HistoryRepository interface {
	// Upsert 按 (id, user_id) 插入或更新
	Upsert(ctx context.Context, history *entity.SearchHistory) error

	// GetByID 获取用户的一条历史
	GetByID(ctx context.Context, userID, id string) (*entity.SearchHistory, error)

	// ListPage 按日期倒序分页
	ListPage(ctx context.Context, userID string, cursor Cursor) (*CursorPage[*entity.SearchHistory], error)

	// DeleteByIDs 删除用户的历史，返回删除数量
	DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error)
}

// UnlockRepository 已解锁联系方式仓储接口
type UnlockRepository interface {
	// Create 保存解锁记录，(user_id, employee_id) 冲突时忽略
	Create(ctx context.Context, contact *entity.UnlockedContact) error

	// Get 获取用户对某员工的解锁记录
	Get(ctx context.Context, userID, employeeID string) (*entity.UnlockedContact, error)

	// ListByEmployees 批量获取用户已解锁的员工
	ListByEmployees(ctx context.Context, userID string, employeeIDs []string) ([]*entity.UnlockedContact, error)

	// ListPage 按解锁时间倒序分页
	ListPage(ctx context.Context, userID string, cursor Cursor) (*CursorPage[*entity.UnlockedContact], error)
}

// MailRepository 外发邮件仓储接口
type MailRepository interface {
	// Create 创建邮件
	Create(ctx context.Context, mail *entity.OutboundMail) error

	// GetByID 获取邮件
	GetByID(ctx context.Context, id string) (*entity.OutboundMail, error)

	// Update 更新邮件
	Update(ctx context.Context, mail *entity.OutboundMail) error

	// ListRetryable 获取未发送且未超过重试次数的邮件
	ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.OutboundMail, error)
}
