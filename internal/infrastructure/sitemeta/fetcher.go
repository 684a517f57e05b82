// Package sitemeta 抓取公司官网的标题、描述和图标
package sitemeta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("sitemeta")

const defaultMaxBytes = 512 << 10

var (
	// ErrInvalidURL 非 http(s) 地址
	ErrInvalidURL = errors.New("invalid site url")
	// ErrBlockedAddress 目标解析到内网地址
	ErrBlockedAddress = errors.New("site resolves to a private address")
	// ErrNotHTML 响应不是 HTML
	ErrNotHTML = errors.New("site did not return html")
)

// Preview 网站摘要
type Preview struct {
	URL         string `json:"url"`
	SiteName    string `json:"site_name,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
}

// Fetcher 网站摘要抓取器
type Fetcher struct {
	httpClient   *http.Client
	maxBytes     int64
	allowPrivate bool
}

// Option 配置项
type Option func(*Fetcher)

// WithMaxBytes 限制读取的正文大小
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithAllowPrivate 允许访问内网地址
func WithAllowPrivate(allow bool) Option {
	return func(f *Fetcher) {
		f.allowPrivate = allow
	}
}

// New 创建抓取器
func New(timeout time.Duration, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	f := &Fetcher{maxBytes: defaultMaxBytes}
	for _, opt := range opts {
		opt(f)
	}

	dialer := &net.Dialer{Timeout: timeout}
	if !f.allowPrivate {
		dialer.Control = denyPrivate
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext

	f.httpClient = &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
	return f
}

// denyPrivate 拒绝连接回环、内网和链路本地地址
func denyPrivate(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return ErrBlockedAddress
	}
	return nil
}

// Normalize 补全协议并校验地址
func Normalize(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// Fetch 抓取网站摘要
func (f *Fetcher) Fetch(ctx context.Context, raw string) (*Preview, error) {
	ctx, span := tracer.Start(ctx, "sitemeta.Fetcher.Fetch")
	defer span.End()

	u, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("site.host", u.Host))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", "leadgen-preview/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrBlockedAddress) {
			return nil, ErrBlockedAddress
		}
		return nil, fmt.Errorf("fetching %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetching %s: status %d", u.Host, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, _ := mime.ParseMediaType(ct)
		if mediaType != "text/html" && mediaType != "application/xhtml+xml" {
			return nil, ErrNotHTML
		}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return extract(doc, resp.Request.URL), nil
}

// extract 从文档中提取摘要，优先使用 Open Graph 标签
func extract(doc *goquery.Document, base *url.URL) *Preview {
	p := &Preview{URL: base.String()}

	p.SiteName = meta(doc, "og:site_name")
	p.Title = firstNonEmpty(meta(doc, "og:title"), meta(doc, "twitter:title"), cleanText(doc.Find("title").First().Text()))
	p.Description = firstNonEmpty(meta(doc, "og:description"), meta(doc, "description"), meta(doc, "twitter:description"))
	p.Image = resolve(base, firstNonEmpty(meta(doc, "og:image"), meta(doc, "twitter:image")))

	doc.Find("link[rel][href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		for _, r := range strings.Fields(rel) {
			if r == "icon" || r == "apple-touch-icon" {
				p.Favicon = resolve(base, s.AttrOr("href", ""))
				return false
			}
		}
		return true
	})
	if p.Favicon == "" {
		p.Favicon = resolve(base, "/favicon.ico")
	}
	return p
}

// meta 按 property 或 name 查找 meta 内容
func meta(doc *goquery.Document, key string) string {
	var out string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name := s.AttrOr("property", s.AttrOr("name", ""))
		if strings.EqualFold(name, key) {
			out = cleanText(s.AttrOr("content", ""))
			return out == ""
		}
		return true
	})
	return out
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	return u.String()
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
