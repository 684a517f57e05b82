// Package history 提供搜索历史用例
package history

import (
	"context"
	"strings"
	"time"

	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/domain/repository"
	"leadgen-api/internal/infrastructure/leadsource"
	"leadgen-api/internal/infrastructure/persistence/redis"
	"leadgen-api/pkg/errors"
	"leadgen-api/pkg/logger"
)

// Backend 搜索历史相关的上游接口
type Backend interface {
	History(ctx context.Context, user, searchID string) ([]entity.Company, error)
	DeleteHistory(ctx context.Context, user string, ids []string) error
}

// Service 搜索历史服务
type Service struct {
	repo      repository.HistoryRepository
	backend   Backend
	cache     *redis.Cache
	identity  principal.Identity
	replayTTL time.Duration
}

// NewService 创建搜索历史服务
func NewService(repo repository.HistoryRepository, backend Backend, cache *redis.Cache, identity principal.Identity, replayTTL time.Duration) *Service {
	return &Service{
		repo:      repo,
		backend:   backend,
		cache:     cache,
		identity:  identity,
		replayTTL: replayTTL,
	}
}

// Record 记录一次搜索，同一 ID 重复记录时覆盖查询和时间
func (s *Service) Record(ctx context.Context, userID, id, query string, source entity.Source) (*entity.SearchHistory, error) {
	id = strings.TrimSpace(id)
	query = strings.TrimSpace(query)
	if id == "" || query == "" {
		return nil, errors.ErrValidationFailed.WithDetail("id and query are required")
	}
	if !source.Valid() {
		return nil, errors.ErrValidationFailed.WithDetail("unknown source")
	}

	h := entity.NewSearchHistory(id, userID, query, source)
	if err := s.repo.Upsert(ctx, h); err != nil {
		logger.Error(ctx, "failed to record search history", err, "history_id", id)
		return nil, errors.ErrDatabase.WithError(err)
	}
	return h, nil
}

// Page 按日期倒序分页
func (s *Service) Page(ctx context.Context, userID string, cursor repository.Cursor) (*repository.CursorPage[*entity.SearchHistory], error) {
	page, err := s.repo.ListPage(ctx, userID, cursor)
	if err != nil {
		logger.Error(ctx, "failed to page search history", err)
		return nil, errors.ErrDatabase.WithError(err)
	}
	return page, nil
}

// Delete 删除历史并通知上游，上游失败只记录日志
func (s *Service) Delete(ctx context.Context, p *principal.Principal, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, errors.ErrValidationFailed.WithDetail("ids must not be empty")
	}
	n, err := s.repo.DeleteByIDs(ctx, p.UserID, ids)
	if err != nil {
		logger.Error(ctx, "failed to delete search history", err)
		return 0, errors.ErrDatabase.WithError(err)
	}

	if err := s.cache.InvalidateSearch(ctx, p.UserID, ids...); err != nil {
		logger.Warn(ctx, "failed to invalidate search replay cache", "error", err.Error())
	}
	if err := s.backend.DeleteHistory(ctx, s.identity(p), ids); err != nil {
		logger.Warn(ctx, "upstream history delete failed", "error", err.Error(), "count", len(ids))
	}
	return n, nil
}

// Replay 回放某次搜索的公司结果
func (s *Service) Replay(ctx context.Context, p *principal.Principal, id string) ([]entity.Company, error) {
	h, err := s.repo.GetByID(ctx, p.UserID, id)
	if err != nil {
		logger.Error(ctx, "failed to get search history", err, "history_id", id)
		return nil, errors.ErrDatabase.WithError(err)
	}
	if h == nil {
		return nil, errors.ErrHistoryNotFound
	}

	companies, err := redis.Load(ctx, s.cache, redis.SearchReplayKey(p.UserID, id), s.replayTTL, func() ([]entity.Company, error) {
		return s.backend.History(ctx, s.identity(p), id)
	})
	if err != nil {
		return nil, leadsource.AsAppError(err, nil)
	}
	return companies, nil
}
