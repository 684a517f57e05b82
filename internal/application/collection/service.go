// Package collection 提供收藏夹用例
package collection

import (
	"context"
	"strings"

	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/domain/repository"
	"leadgen-api/pkg/errors"
	"leadgen-api/pkg/logger"
)

const maxNameLength = 255

// UpdateInput 更新参数，nil 字段表示不修改
type UpdateInput struct {
	Name  *string
	Items []string
}

// Service 收藏夹服务，所有操作限定在调用方自己的数据内
type Service struct {
	repo repository.CollectionRepository
	tx   repository.Transactor
}

// NewService 创建收藏夹服务
func NewService(repo repository.CollectionRepository, tx repository.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

// All 获取全部收藏夹
func (s *Service) All(ctx context.Context, userID string) ([]*entity.Collection, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, dbError(ctx, "failed to list collections", err)
	}
	if items == nil {
		items = []*entity.Collection{}
	}
	return items, nil
}

// Get 获取单个收藏夹
func (s *Service) Get(ctx context.Context, userID, id string) (*entity.Collection, error) {
	c, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, dbError(ctx, "failed to get collection", err)
	}
	if c == nil {
		return nil, errors.ErrCollectionNotFound
	}
	return c, nil
}

// Create 创建收藏夹
func (s *Service) Create(ctx context.Context, userID, name string) (*entity.Collection, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	c := entity.NewCollection(userID, name)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, dbError(ctx, "failed to create collection", err)
	}
	logger.Info(ctx, "collection created", "collection_id", c.ID)
	return c, nil
}

// Delete 批量删除，返回删除数量
func (s *Service) Delete(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, errors.ErrValidationFailed.WithDetail("ids must not be empty")
	}
	n, err := s.repo.DeleteByIDs(ctx, userID, ids)
	if err != nil {
		return 0, dbError(ctx, "failed to delete collections", err)
	}
	return n, nil
}

// Page 按更新时间倒序分页
func (s *Service) Page(ctx context.Context, userID string, cursor repository.Cursor) (*repository.CursorPage[*entity.Collection], error) {
	page, err := s.repo.ListPage(ctx, userID, cursor)
	if err != nil {
		return nil, dbError(ctx, "failed to page collections", err)
	}
	return page, nil
}

// Update 更新名称或条目
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (*entity.Collection, error) {
	if in.Name != nil {
		if err := validateName(*in.Name); err != nil {
			return nil, err
		}
	}
	return s.mutate(ctx, userID, id, func(c *entity.Collection) {
		if in.Name != nil {
			c.Rename(*in.Name)
		}
		if in.Items != nil {
			c.SetItems(in.Items)
		}
	})
}

// AddItems 追加公司
func (s *Service) AddItems(ctx context.Context, userID, id string, items []string) (*entity.Collection, error) {
	return s.mutate(ctx, userID, id, func(c *entity.Collection) {
		c.AddItems(items...)
	})
}

// RemoveItems 移除公司
func (s *Service) RemoveItems(ctx context.Context, userID, id string, items []string) (*entity.Collection, error) {
	return s.mutate(ctx, userID, id, func(c *entity.Collection) {
		c.RemoveItems(items...)
	})
}

// mutate 在事务内锁定收藏夹后读改写
func (s *Service) mutate(ctx context.Context, userID, id string, fn func(*entity.Collection)) (*entity.Collection, error) {
	var c *entity.Collection
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.repo.GetForUpdate(ctx, userID, id)
		if err != nil {
			return dbError(ctx, "failed to lock collection", err)
		}
		if locked == nil {
			return errors.ErrCollectionNotFound
		}
		fn(locked)
		// 即使没有字段变化也刷新 updated_at
		if err := s.repo.Update(ctx, locked); err != nil {
			return dbError(ctx, "failed to update collection", err)
		}
		c = locked
		return nil
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, dbError(ctx, "collection transaction failed", err)
	}
	return c, nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.ErrValidationFailed.WithDetail("name is required")
	}
	if len(name) > maxNameLength {
		return errors.ErrValidationFailed.WithDetail("name is too long")
	}
	return nil
}

func dbError(ctx context.Context, msg string, err error) error {
	logger.Error(ctx, msg, err)
	return errors.ErrDatabase.WithError(err)
}
