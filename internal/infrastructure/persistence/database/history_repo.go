package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/domain/repository"
)

// HistoryRepository 搜索历史仓储实现
type HistoryRepository struct {
	client *Client
}

// NewHistoryRepository 创建搜索历史仓储
func NewHistoryRepository(client *Client) *HistoryRepository {
	return &HistoryRepository{client: client}
}

// Upsert 插入或更新搜索历史
func (r *HistoryRepository) Upsert(ctx context.Context, history *entity.SearchHistory) error {
	ctx, span := tracer.Start(ctx, "database.HistoryRepository.Upsert")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"query", "source", "date"}),
	}).Create(history).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert history: %w", err)
	}
	return nil
}

// GetByID 获取用户的一条历史
func (r *HistoryRepository) GetByID(ctx context.Context, userID, id string) (*entity.SearchHistory, error) {
	ctx, span := tracer.Start(ctx, "database.HistoryRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var history entity.SearchHistory
	if err := db.First(&history, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return &history, nil
}

// ListPage 按日期倒序分页
func (r *HistoryRepository) ListPage(ctx context.Context, userID string, cursor repository.Cursor) (*repository.CursorPage[*entity.SearchHistory], error) {
	ctx, span := tracer.Start(ctx, "database.HistoryRepository.ListPage")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var items []*entity.SearchHistory
	if err := db.Where("user_id = ?", userID).
		Order("date DESC").Order("id").
		Offset(cursor.Offset).
		Limit(cursor.Limit).
		Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return repository.NewCursorPage(items, cursor), nil
}

// DeleteByIDs 删除用户的历史
func (r *HistoryRepository) DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error) {
	ctx, span := tracer.Start(ctx, "database.HistoryRepository.DeleteByIDs")
	defer span.End()

	if len(ids) == 0 {
		return 0, nil
	}
	db := getDB(ctx, r.client.db)
	res := db.Delete(&entity.SearchHistory{}, "user_id = ? AND id IN ?", userID, ids)
	if res.Error != nil {
		span.RecordError(res.Error)
		return 0, fmt.Errorf("failed to delete history: %w", res.Error)
	}
	return res.RowsAffected, nil
}
