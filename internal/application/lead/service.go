// Package lead 提供公司搜索、员工查询与联系方式解锁用例
package lead

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/domain/repository"
	"leadgen-api/internal/infrastructure/leadsource"
	"leadgen-api/internal/infrastructure/persistence/redis"
	"leadgen-api/internal/infrastructure/sitemeta"
	"leadgen-api/pkg/errors"
	"leadgen-api/pkg/logger"
	"leadgen-api/pkg/metrics"
)

// Backend 线索相关的上游接口
type Backend interface {
	SearchCompanies(ctx context.Context, user, query string, source entity.Source) (*entity.SearchResult, error)
	CompanyInfo(ctx context.Context, user, companyID string) (*entity.CompanyInfo, error)
	Employees(ctx context.Context, user string, companyIDs []string) (map[string][]entity.Employee, error)
	Contact(ctx context.Context, user, employeeID string) (*entity.Contact, error)
	KeywordsFromURL(ctx context.Context, user, site string) ([]string, error)
	KeywordsFromFiles(ctx context.Context, user string, files []leadsource.Upload) ([]string, error)
}

// HistoryRecorder 记录搜索历史
type HistoryRecorder interface {
	Record(ctx context.Context, userID, id, query string, source entity.Source) (*entity.SearchHistory, error)
}

// SitePreviewer 抓取网站摘要
type SitePreviewer interface {
	Fetch(ctx context.Context, raw string) (*sitemeta.Preview, error)
}

// CacheTTL 各类上游数据的缓存时间
type CacheTTL struct {
	CompanyInfo time.Duration
	Employees   time.Duration
	SitePreview time.Duration
}

// maxEmployeeCompanies 单次员工查询的公司上限
const maxEmployeeCompanies = 100

// Service 线索服务
type Service struct {
	backend  Backend
	unlocks  repository.UnlockRepository
	history  HistoryRecorder
	cache    *redis.Cache
	previews SitePreviewer
	identity principal.Identity
	ttl      CacheTTL
}

// NewService 创建线索服务
func NewService(
	backend Backend,
	unlocks repository.UnlockRepository,
	history HistoryRecorder,
	cache *redis.Cache,
	previews SitePreviewer,
	identity principal.Identity,
	ttl CacheTTL,
) *Service {
	return &Service{
		backend:  backend,
		unlocks:  unlocks,
		history:  history,
		cache:    cache,
		previews: previews,
		identity: identity,
		ttl:      ttl,
	}
}

// SearchCompanies 搜索公司并记录历史，历史写入失败不影响结果
func (s *Service) SearchCompanies(ctx context.Context, p *principal.Principal, query string, source entity.Source) (*entity.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.ErrValidationFailed.WithDetail("query is required")
	}
	if !source.Valid() {
		return nil, errors.ErrValidationFailed.WithDetail("unknown source")
	}

	result, err := s.backend.SearchCompanies(ctx, s.identity(p), query, source)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues(source.String(), "error").Inc()
		return nil, leadsource.AsAppError(err, nil)
	}
	metrics.SearchesTotal.WithLabelValues(source.String(), "ok").Inc()

	if result.ID != "" {
		if _, err := s.history.Record(ctx, p.UserID, result.ID, query, source); err != nil {
			logger.Warn(ctx, "failed to record search history", "error", err.Error(), "search_id", result.ID)
		}
	}
	logger.Info(ctx, "companies searched", "source", source.String(), "results", len(result.Data))
	return result, nil
}

// CompanyInfo 获取公司详情
func (s *Service) CompanyInfo(ctx context.Context, p *principal.Principal, companyID string) (*entity.CompanyInfo, error) {
	if strings.TrimSpace(companyID) == "" {
		return nil, errors.ErrValidationFailed.WithDetail("company id is required")
	}
	info, err := redis.Load(ctx, s.cache, redis.CompanyInfoKey(p.UserID, companyID), s.ttl.CompanyInfo, func() (*entity.CompanyInfo, error) {
		return s.backend.CompanyInfo(ctx, s.identity(p), companyID)
	})
	if err != nil {
		return nil, leadsource.AsAppError(err, nil)
	}
	return info, nil
}

// Employees 批量获取公司员工，命中缓存的公司不再请求上游，已解锁的联系方式会合并进结果
func (s *Service) Employees(ctx context.Context, p *principal.Principal, companyIDs []string) (map[string][]entity.Employee, error) {
	ids := uniqueNonEmpty(companyIDs)
	if len(ids) == 0 {
		return nil, errors.ErrValidationFailed.WithDetail("ids must not be empty")
	}
	if len(ids) > maxEmployeeCompanies {
		return nil, errors.ErrValidationFailed.WithDetail("too many company ids")
	}

	out := make(map[string][]entity.Employee, len(ids))
	var missing []string
	for _, id := range ids {
		raw, err := s.cache.Get(ctx, redis.EmployeesKey(p.UserID, id))
		if err != nil {
			if !redis.IsNil(err) {
				logger.Warn(ctx, "employee cache read failed", "error", err.Error())
			}
			missing = append(missing, id)
			continue
		}
		var employees []entity.Employee
		if err := json.Unmarshal(raw, &employees); err != nil {
			missing = append(missing, id)
			continue
		}
		out[id] = employees
	}

	if len(missing) > 0 {
		fetched, err := s.backend.Employees(ctx, s.identity(p), missing)
		if err != nil {
			return nil, leadsource.AsAppError(err, nil)
		}
		for id, employees := range fetched {
			out[id] = employees
			if err := s.cache.Set(ctx, redis.EmployeesKey(p.UserID, id), employees, s.ttl.Employees); err != nil {
				logger.Warn(ctx, "employee cache write failed", "error", err.Error())
			}
		}
	}

	if err := s.mergeUnlocked(ctx, p.UserID, out); err != nil {
		logger.Warn(ctx, "failed to merge unlocked contacts", "error", err.Error())
	}
	return out, nil
}

func (s *Service) mergeUnlocked(ctx context.Context, userID string, byCompany map[string][]entity.Employee) error {
	var employeeIDs []string
	for _, employees := range byCompany {
		for i := range employees {
			if !employees[i].Unlocked() {
				employeeIDs = append(employeeIDs, employees[i].ID)
			}
		}
	}
	if len(employeeIDs) == 0 {
		return nil
	}

	unlocked, err := s.unlocks.ListByEmployees(ctx, userID, employeeIDs)
	if err != nil {
		return err
	}
	contacts := make(map[string]*entity.Contact, len(unlocked))
	for _, u := range unlocked {
		contacts[u.EmployeeID] = u.Contact()
	}
	for _, employees := range byCompany {
		for i := range employees {
			if c, ok := contacts[employees[i].ID]; ok {
				employees[i].MergeContact(c)
			}
		}
	}
	return nil
}

// UnlockContact 解锁员工联系方式，已解锁过的直接返回保存的结果
func (s *Service) UnlockContact(ctx context.Context, p *principal.Principal, employeeID, companyID string) (*entity.Contact, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, errors.ErrValidationFailed.WithDetail("employee id is required")
	}

	existing, err := s.unlocks.Get(ctx, p.UserID, employeeID)
	if err != nil {
		logger.Error(ctx, "failed to get unlocked contact", err, "employee_id", employeeID)
		return nil, errors.ErrDatabase.WithError(err)
	}
	if existing != nil {
		metrics.UnlocksTotal.WithLabelValues("reused").Inc()
		return existing.Contact(), nil
	}

	contact, err := s.backend.Contact(ctx, s.identity(p), employeeID)
	if err != nil {
		metrics.UnlocksTotal.WithLabelValues("failed").Inc()
		return nil, leadsource.AsAppError(err, errors.ErrUnlockFailed)
	}
	metrics.UnlocksTotal.WithLabelValues("fresh").Inc()

	// 上游已完成解锁，保存失败只记录日志
	record := entity.NewUnlockedContact(p.UserID, employeeID, companyID, contact)
	if err := s.unlocks.Create(ctx, record); err != nil {
		logger.Error(ctx, "failed to persist unlocked contact", err, "employee_id", employeeID)
	}
	logger.Info(ctx, "contact unlocked", "employee_id", employeeID, "company_id", companyID)
	return contact, nil
}

// ListUnlocked 分页获取已解锁联系方式
func (s *Service) ListUnlocked(ctx context.Context, userID string, cursor repository.Cursor) (*repository.CursorPage[*entity.UnlockedContact], error) {
	page, err := s.unlocks.ListPage(ctx, userID, cursor)
	if err != nil {
		logger.Error(ctx, "failed to list unlocked contacts", err)
		return nil, errors.ErrDatabase.WithError(err)
	}
	return page, nil
}

// KeywordsFromURL 根据网站生成搜索关键词
func (s *Service) KeywordsFromURL(ctx context.Context, p *principal.Principal, site string) ([]string, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return nil, errors.ErrValidationFailed.WithDetail("url is required")
	}
	keywords, err := s.backend.KeywordsFromURL(ctx, s.identity(p), site)
	if err != nil {
		return nil, leadsource.AsAppError(err, nil)
	}
	return keywords, nil
}

// KeywordsFromFiles 根据上传文件生成搜索关键词
func (s *Service) KeywordsFromFiles(ctx context.Context, p *principal.Principal, files []leadsource.Upload) ([]string, error) {
	if len(files) == 0 {
		return nil, errors.ErrValidationFailed.WithDetail("at least one file is required")
	}
	keywords, err := s.backend.KeywordsFromFiles(ctx, s.identity(p), files)
	if err != nil {
		return nil, leadsource.AsAppError(err, nil)
	}
	return keywords, nil
}

// SitePreview 获取公司官网摘要
func (s *Service) SitePreview(ctx context.Context, site string) (*sitemeta.Preview, error) {
	u, err := sitemeta.Normalize(site)
	if err != nil {
		return nil, errors.ErrValidationFailed.WithDetail(err.Error())
	}
	key := redis.SitePreviewKey(u.String())
	preview, err := redis.Load(ctx, s.cache, key, s.ttl.SitePreview, func() (*sitemeta.Preview, error) {
		return s.previews.Fetch(ctx, u.String())
	})
	if err != nil {
		if stderrors.Is(err, sitemeta.ErrBlockedAddress) || stderrors.Is(err, sitemeta.ErrInvalidURL) {
			return nil, errors.ErrValidationFailed.WithDetail(err.Error())
		}
		return nil, errors.ErrUpstreamFailed.WithDetail(err.Error()).WithError(err)
	}
	return preview, nil
}

func uniqueNonEmpty(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
