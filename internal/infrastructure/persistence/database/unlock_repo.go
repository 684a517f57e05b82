package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/domain/repository"
)

// UnlockRepository 已解锁联系方式仓储实现
type UnlockRepository struct {
	client *Client
}

// NewUnlockRepository 创建解锁仓储
func NewUnlockRepository(client *Client) *UnlockRepository {
	return &UnlockRepository{client: client}
}

// Create 保存解锁记录，重复解锁时忽略
func (r *UnlockRepository) Create(ctx context.Context, contact *entity.UnlockedContact) error {
	ctx, span := tracer.Start(ctx, "database.UnlockRepository.Create")
	defer span.End()

	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	db := getDB(ctx, r.client.db)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "employee_id"}},
		DoNothing: true,
	}).Create(contact).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create unlocked contact: %w", err)
	}
	return nil
}

// Get 获取用户对某员工的解锁记录
func (r *UnlockRepository) Get(ctx context.Context, userID, employeeID string) (*entity.UnlockedContact, error) {
	ctx, span := tracer.Start(ctx, "database.UnlockRepository.Get")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var contact entity.UnlockedContact
	if err := db.First(&contact, "user_id = ? AND employee_id = ?", userID, employeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get unlocked contact: %w", err)
	}
	return &contact, nil
}

// ListByEmployees 批量获取用户已解锁的员工
func (r *UnlockRepository) ListByEmployees(ctx context.Context, userID string, employeeIDs []string) ([]*entity.UnlockedContact, error) {
	ctx, span := tracer.Start(ctx, "database.UnlockRepository.ListByEmployees")
	defer span.End()

	if len(employeeIDs) == 0 {
		return nil, nil
	}
	db := getDB(ctx, r.client.db)
	var contacts []*entity.UnlockedContact
	if err := db.Where("user_id = ? AND employee_id IN ?", userID, employeeIDs).Find(&contacts).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list unlocked contacts: %w", err)
	}
	return contacts, nil
}

// ListPage 按解锁时间倒序分页
func (r *UnlockRepository) ListPage(ctx context.Context, userID string, cursor repository.Cursor) (*repository.CursorPage[*entity.UnlockedContact], error) {
	ctx, span := tracer.Start(ctx, "database.UnlockRepository.ListPage")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var contacts []*entity.UnlockedContact
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id").
		Offset(cursor.Offset).
		Limit(cursor.Limit).
		Find(&contacts).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list unlocked contacts: %w", err)
	}
	return repository.NewCursorPage(contacts, cursor), nil
}
