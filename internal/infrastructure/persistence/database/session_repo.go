package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"leadgen-api/internal/domain/entity"
)

// SessionRepository 会话仓储实现
type SessionRepository struct {
	client *Client
}

// NewSessionRepository 创建会话仓储
func NewSessionRepository(client *Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Create 创建会话
func (r *SessionRepository) Create(ctx context.Context, session *entity.Session) error {
	ctx, span := tracer.Start(ctx, "database.SessionRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(session).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get 根据 token 获取会话
func (r *SessionRepository) Get(ctx context.Context, token string) (*entity.Session, error) {
	ctx, span := tracer.Start(ctx, "database.SessionRepository.Get")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var session entity.Session
	if err := db.First(&session, "session_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// Delete 删除会话
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "database.SessionRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Session{}, "session_token = ?", token).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUser 删除用户全部会话
func (r *SessionRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "database.SessionRepository.DeleteByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	res := db.Delete(&entity.Session{}, "user_id = ?", userID)
	if res.Error != nil {
		span.RecordError(res.Error)
		return 0, fmt.Errorf("failed to delete user sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteExpired 删除过期会话
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "database.SessionRepository.DeleteExpired")
	defer span.End()

	db := getDB(ctx, r.client.db)
	res := db.Delete(&entity.Session{}, "expires <= ?", before)
	if res.Error != nil {
		span.RecordError(res.Error)
		return 0, fmt.Errorf("failed to delete expired sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
