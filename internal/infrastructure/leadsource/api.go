package leadsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"leadgen-api/internal/domain/entity"
)

// Upload 上传给上游的文件
type Upload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// SearchCompanies 按关键词搜索公司
func (c *Client) SearchCompanies(ctx context.Context, user, query string, source entity.Source) (*entity.SearchResult, error) {
	var result entity.SearchResult
	err := c.get(ctx, "/company", url.Values{
		"query":  {query},
		"source": {source.String()},
		"user":   {user},
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Data == nil {
		result.Data = []entity.Company{}
	}
	return &result, nil
}

// CompanyInfo 获取公司详细信息
func (c *Client) CompanyInfo(ctx context.Context, user, companyID string) (*entity.CompanyInfo, error) {
	var info entity.CompanyInfo
	if err := c.get(ctx, "/moreinfo", url.Values{"id": {companyID}, "user": {user}}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Employees 批量获取公司员工，按批并发请求后合并
func (c *Client) Employees(ctx context.Context, user string, companyIDs []string) (map[string][]entity.Employee, error) {
	out := make(map[string][]entity.Employee, len(companyIDs))
	if len(companyIDs) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrency)

	for _, batch := range chunk(companyIDs, c.batchSize) {
		g.Go(func() error {
			var part map[string][]entity.Employee
			err := c.get(gctx, "/employee", url.Values{
				"ids":  {strings.Join(batch, ",")},
				"user": {user},
			}, &part)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for id, employees := range part {
				out[id] = employees
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 上游未返回的公司视为没有员工
	for _, id := range companyIDs {
		if _, ok := out[id]; !ok {
			out[id] = []entity.Employee{}
		}
	}
	return out, nil
}

// Contact 解锁员工联系方式
func (c *Client) Contact(ctx context.Context, user, employeeID string) (*entity.Contact, error) {
	var contact entity.Contact
	if err := c.get(ctx, "/contact", url.Values{"id": {employeeID}, "user": {user}}, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// History 回放某次搜索的结果
func (c *Client) History(ctx context.Context, user, searchID string) ([]entity.Company, error) {
	var companies []entity.Company
	if err := c.get(ctx, "/history", url.Values{"id": {searchID}, "user": {user}}, &companies); err != nil {
		return nil, err
	}
	if companies == nil {
		companies = []entity.Company{}
	}
	return companies, nil
}

// DeleteHistory 通知上游删除搜索记录
func (c *Client) DeleteHistory(ctx context.Context, user string, ids []string) error {
	payload := struct {
		User string   `json:"user"`
		IDs  []string `json:"ids"`
	}{User: user, IDs: ids}
	return c.postJSON(ctx, "/delete", payload, nil)
}

// GenerateMail 生成外联邮件
func (c *Client) GenerateMail(ctx context.Context, user string, draft entity.MailDraft) (*entity.GeneratedMail, error) {
	query := url.Values{"company": {draft.Company}, "user": {user}}
	if draft.Employee != "" {
		query.Set("employee", draft.Employee)
	}
	if draft.Notes != "" {
		query.Set("notes", draft.Notes)
	}
	var mail entity.GeneratedMail
	if err := c.get(ctx, "/genmail", query, &mail); err != nil {
		return nil, err
	}
	return &mail, nil
}

// KeywordsFromURL 根据网站生成搜索关键词
func (c *Client) KeywordsFromURL(ctx context.Context, user, site string) ([]string, error) {
	var keywords []string
	if err := c.get(ctx, "/url2keyword", url.Values{"url": {site}, "user": {user}}, &keywords); err != nil {
		return nil, err
	}
	return nonNil(keywords), nil
}

// KeywordsFromFiles 根据上传文件生成搜索关键词
func (c *Client) KeywordsFromFiles(ctx context.Context, user string, files []Upload) ([]string, error) {
	var keywords []string
	if err := c.postFiles(ctx, "/file2keyword", user, files, &keywords); err != nil {
		return nil, err
	}
	return nonNil(keywords), nil
}

// ProfileFromURL 根据网站生成用户资料
func (c *Client) ProfileFromURL(ctx context.Context, user, site string) (*entity.GeneratedProfile, error) {
	var profile entity.GeneratedProfile
	if err := c.get(ctx, "/url2profile", url.Values{"url": {site}, "user": {user}}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileFromFiles 根据上传文件生成用户资料
func (c *Client) ProfileFromFiles(ctx context.Context, user string, files []Upload) (*entity.GeneratedProfile, error) {
	var profile entity.GeneratedProfile
	if err := c.postFiles(ctx, "/file2profile", user, files, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// postFiles 以 multipart 表单上传文件，字段 files 可重复
func (c *Client) postFiles(ctx context.Context, endpoint, user string, files []Upload, result any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Filename))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return fmt.Errorf("creating form part: %w", err)
		}
		if _, err := io.Copy(part, f.Data); err != nil {
			return fmt.Errorf("copying %s: %w", f.Filename, err)
		}
	}
	if err := w.WriteField("user", user); err != nil {
		return fmt.Errorf("writing user field: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing form: %w", err)
	}

	return c.do(ctx, request{
		method:      http.MethodPost,
		endpoint:    endpoint,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, result)
}

func chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
