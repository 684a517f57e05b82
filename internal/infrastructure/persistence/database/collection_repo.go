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

// CollectionRepository 收藏夹仓储实现
type CollectionRepository struct {
	client *Client
}

// NewCollectionRepository 创建收藏夹仓储
func NewCollectionRepository(client *Client) *CollectionRepository {
	return &CollectionRepository{client: client}
}

// Create 创建收藏夹
func (r *CollectionRepository) Create(ctx context.Context, collection *entity.Collection) error {
	ctx, span := tracer.Start(ctx, "database.CollectionRepository.Create")
	defer span.End()

	if collection.ID == "" {
		collection.ID = uuid.NewString()
	}
	if collection.Items == nil {
		collection.Items = []string{}
	}
	db := getDB(ctx, r.client.db)
	if err := db.Create(collection).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// GetByID 获取用户的收藏夹
func (r *CollectionRepository) GetByID(ctx context.Context, userID, id string) (*entity.Collection, error) {
	ctx, span := tracer.Start(ctx, "database.CollectionRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var collection entity.Collection
	if err := db.First(&collection, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return &collection, nil
}

// GetForUpdate 以 SELECT ... FOR UPDATE 获取收藏夹，需在事务中调用
func (r *CollectionRepository) GetForUpdate(ctx context.Context, userID, id string) (*entity.Collection, error) {
	ctx, span := tracer.Start(ctx, "database.CollectionRepository.GetForUpdate")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var collection entity.Collection
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&collection, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to lock collection: %w", err)
	}
	return &collection, nil
}

// ListByUser 获取用户全部收藏夹
func (r *CollectionRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Collection, error) {
	ctx, span := tracer.Start(ctx, "database.CollectionRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var collections []*entity.Collection
	if err := db.Where("user_id = ?", userID).
		Order("updated_at DESC").Order("id").
		Find(&collections).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return collections, nil
}

// ListPage 按更新时间倒序分页
func (r *CollectionRepository) ListPage(ctx context.Context, userID string, cursor repository.Cursor) (*repository.CursorPage[*entity.Collection], error) {
	ctx, span := tracer.Start(ctx, "database.CollectionRepository.ListPage")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var collections []*entity.Collection
	if err := db.Where("user_id = ?", userID).
		Order("updated_at DESC").Order("id").
		Offset(cursor.Offset).
		Limit(cursor.Limit).
		Find(&collections).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return repository.NewCursorPage(collections, cursor), nil
}

// Update 更新收藏夹
func (r *CollectionRepository) Update(ctx context.Context, collection *entity.Collection) error {
	ctx, span := tracer.Start(ctx, "database.CollectionRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	res := db.Model(collection).
		Where("user_id = ?", collection.UserID).
		Select("name", "items", "updated_at").
		Updates(collection)
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to update collection: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to update collection: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

// DeleteByIDs 删除用户的收藏夹
func (r *CollectionRepository) DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error) {
	ctx, span := tracer.Start(ctx, "database.CollectionRepository.DeleteByIDs")
	defer span.End()

	if len(ids) == 0 {
		return 0, nil
	}
	db := getDB(ctx, r.client.db)
	res := db.Delete(&entity.Collection{}, "user_id = ? AND id IN ?", userID, ids)
	if res.Error != nil {
		span.RecordError(res.Error)
		return 0, fmt.Errorf("failed to delete collections: %w", res.Error)
	}
	return res.RowsAffected, nil
}
