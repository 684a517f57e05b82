// Package user 提供用户资料用例
package user

import (
	"context"
	"strings"

	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/domain/repository"
	"leadgen-api/internal/infrastructure/leadsource"
	"leadgen-api/pkg/errors"
	"leadgen-api/pkg/logger"
)

// Backend 资料生成相关的上游接口
type Backend interface {
	ProfileFromURL(ctx context.Context, user, site string) (*entity.GeneratedProfile, error)
	ProfileFromFiles(ctx context.Context, user string, files []leadsource.Upload) (*entity.GeneratedProfile, error)
}

// Generated 资料生成结果，Apply 时 User 为合并后的用户
type Generated struct {
	Profile *entity.GeneratedProfile `json:"profile"`
	User    *entity.User             `json:"user,omitempty"`
}

// Service 用户服务
type Service struct {
	repo     repository.UserRepository
	backend  Backend
	identity principal.Identity
}

// NewService 创建用户服务
func NewService(repo repository.UserRepository, backend Backend, identity principal.Identity) *Service {
	return &Service{repo: repo, backend: backend, identity: identity}
}

// Get 获取用户，只允许读取自己
func (s *Service) Get(ctx context.Context, p *principal.Principal, id string) (*entity.User, error) {
	if id != p.UserID {
		return nil, errors.ErrForbidden.WithDetail("cannot read another user")
	}
	return s.load(ctx, id)
}

// Me 获取当前用户
func (s *Service) Me(ctx context.Context, p *principal.Principal) (*entity.User, error) {
	return s.load(ctx, p.UserID)
}

// UpdateProfile 校验并更新资料
func (s *Service) UpdateProfile(ctx context.Context, p *principal.Principal, profile *entity.UserProfile) (*entity.User, error) {
	if err := profile.Validate(); err != nil {
		return nil, errors.ErrValidationFailed.WithDetail(err.Error())
	}
	u, err := s.load(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if !u.ApplyProfile(profile) {
		return u, nil
	}
	if err := s.repo.Update(ctx, u); err != nil {
		logger.Error(ctx, "failed to update user profile", err)
		return nil, errors.ErrDatabase.WithError(err)
	}
	logger.Info(ctx, "user profile updated")
	return u, nil
}

// ProfileFromURL 根据网站生成资料，apply 为 true 时合并到用户
func (s *Service) ProfileFromURL(ctx context.Context, p *principal.Principal, site string, apply bool) (*Generated, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return nil, errors.ErrValidationFailed.WithDetail("url is required")
	}
	profile, err := s.backend.ProfileFromURL(ctx, s.identity(p), site)
	if err != nil {
		return nil, leadsource.AsAppError(err, nil)
	}
	return s.finish(ctx, p, profile, apply)
}

// ProfileFromFiles 根据上传文件生成资料
func (s *Service) ProfileFromFiles(ctx context.Context, p *principal.Principal, files []leadsource.Upload, apply bool) (*Generated, error) {
	if len(files) == 0 {
		return nil, errors.ErrValidationFailed.WithDetail("at least one file is required")
	}
	profile, err := s.backend.ProfileFromFiles(ctx, s.identity(p), files)
	if err != nil {
		return nil, leadsource.AsAppError(err, nil)
	}
	return s.finish(ctx, p, profile, apply)
}

func (s *Service) finish(ctx context.Context, p *principal.Principal, profile *entity.GeneratedProfile, apply bool) (*Generated, error) {
	out := &Generated{Profile: profile}
	if !apply {
		return out, nil
	}
	u, err := s.UpdateProfile(ctx, p, profile.ToProfile())
	if err != nil {
		return nil, err
	}
	out.User = u
	return out, nil
}

func (s *Service) load(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		logger.Error(ctx, "failed to get user", err)
		return nil, errors.ErrDatabase.WithError(err)
	}
	if u == nil {
		return nil, errors.ErrUserNotFound
	}
	return u, nil
}
