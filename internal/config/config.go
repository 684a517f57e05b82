// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Database      DatabaseConfig      `yaml:"database" mapstructure:"database"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Upstream      UpstreamConfig      `yaml:"upstream" mapstructure:"upstream"`
	Messaging     MessagingConfig     `yaml:"messaging" mapstructure:"messaging"`
	Mail          MailConfig          `yaml:"mail" mapstructure:"mail"`
	Auth          AuthConfig          `yaml:"auth" mapstructure:"auth"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// IsProduction 是否为生产环境
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// IsDevelopment 是否为开发环境
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "" || a.Env == "development"
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// MaxMultipartMemory 上传文件时内存中保留的最大字节数
	MaxMultipartMemory int64 `yaml:"max_multipart_memory" mapstructure:"max_multipart_memory"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Driver 取值 postgres / sqlite
	Driver      string         `yaml:"driver" mapstructure:"driver"`
	AutoMigrate bool           `yaml:"auto_migrate" mapstructure:"auto_migrate"`
	LogLevel    string         `yaml:"log_level" mapstructure:"log_level"`
	SlowQuery   time.Duration  `yaml:"slow_query" mapstructure:"slow_query"`
	Postgres    PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
	SQLite      SQLiteConfig   `yaml:"sqlite" mapstructure:"sqlite"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	// DSN 非空时优先使用
	DSN             string        `yaml:"dsn" mapstructure:"dsn"`
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Database        string        `yaml:"database" mapstructure:"database"`
	SSLMode         string        `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// SQLiteConfig SQLite 配置
type SQLiteConfig struct {
	Path        string        `yaml:"path" mapstructure:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout" mapstructure:"busy_timeout"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig      `yaml:"redis" mapstructure:"redis"`
	TTL   CacheTTLConfig   `yaml:"ttl" mapstructure:"ttl"`
	Local LocalCacheConfig `yaml:"local" mapstructure:"local"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// CacheTTLConfig 各类缓存过期时间
type CacheTTLConfig struct {
	CompanyInfo  time.Duration `yaml:"company_info" mapstructure:"company_info"`
	Employees    time.Duration `yaml:"employees" mapstructure:"employees"`
	SearchReplay time.Duration `yaml:"search_replay" mapstructure:"search_replay"`
	SitePreview  time.Duration `yaml:"site_preview" mapstructure:"site_preview"`
}

// LocalCacheConfig 进程内会话缓存配置
type LocalCacheConfig struct {
	Size int           `yaml:"size" mapstructure:"size"`
	TTL  time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// UpstreamConfig 外部线索数据服务配置
type UpstreamConfig struct {
	Endpoint          string        `yaml:"endpoint" mapstructure:"endpoint"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	EmployeeBatchSize int           `yaml:"employee_batch_size" mapstructure:"employee_batch_size"`
	MaxConcurrency    int           `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	MaxUploadFiles    int           `yaml:"max_upload_files" mapstructure:"max_upload_files"`
	SitePreviewBytes  int64         `yaml:"site_preview_bytes" mapstructure:"site_preview_bytes"`
	// UserIdentity 传给上游的用户标识，取值 email / id
	UserIdentity string `yaml:"user_identity" mapstructure:"user_identity"`
}

// MessagingConfig 消息队列配置
type MessagingConfig struct {
	RedisStream RedisStreamConfig `yaml:"redis_stream" mapstructure:"redis_stream"`
}

// RedisStreamConfig Redis Stream 配置
type RedisStreamConfig struct {
	MaxLen            int           `yaml:"max_len" mapstructure:"max_len"`
	BlockTimeout      time.Duration `yaml:"block_timeout" mapstructure:"block_timeout"`
	ClaimInterval     time.Duration `yaml:"claim_interval" mapstructure:"claim_interval"`
	RetryLimit        int           `yaml:"retry_limit" mapstructure:"retry_limit"`
	RetryBackoff      BackoffConfig `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	DLQAlertThreshold int64         `yaml:"dlq_alert_threshold" mapstructure:"dlq_alert_threshold"`
}

// BackoffConfig 退避配置
type BackoffConfig struct {
	Initial    time.Duration `yaml:"initial" mapstructure:"initial"`
	Max        time.Duration `yaml:"max" mapstructure:"max"`
	Multiplier float64       `yaml:"multiplier" mapstructure:"multiplier"`
}

// MailConfig 外发邮件配置
type MailConfig struct {
	SMTP SMTPConfig `yaml:"smtp" mapstructure:"smtp"`
	// MaxRecipients 单次发送的最大收件人数
	MaxRecipients int `yaml:"max_recipients" mapstructure:"max_recipients"`
}

// SMTPConfig SMTP 配置
type SMTPConfig struct {
	Host     string        `yaml:"host" mapstructure:"host"`
	Port     int           `yaml:"port" mapstructure:"port"`
	Username string        `yaml:"username" mapstructure:"username"`
	Password string        `yaml:"password" mapstructure:"password"`
	From     string        `yaml:"from" mapstructure:"from"`
	FromName string        `yaml:"from_name" mapstructure:"from_name"`
	StartTLS bool          `yaml:"starttls" mapstructure:"starttls"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// AuthConfig 登录与会话配置
type AuthConfig struct {
	Google                  GoogleOAuthConfig `yaml:"google" mapstructure:"google"`
	PostLoginRedirect       string            `yaml:"post_login_redirect" mapstructure:"post_login_redirect"`
	SessionTTL              time.Duration     `yaml:"session_ttl" mapstructure:"session_ttl"`
	StateTTL                time.Duration     `yaml:"state_ttl" mapstructure:"state_ttl"`
	CookieName              string            `yaml:"cookie_name" mapstructure:"cookie_name"`
	CookieDomain            string            `yaml:"cookie_domain" mapstructure:"cookie_domain"`
	MobileRedirectAllowlist []string          `yaml:"mobile_redirect_allowlist" mapstructure:"mobile_redirect_allowlist"`
}

// GoogleOAuthConfig Google OAuth 客户端配置
type GoogleOAuthConfig struct {
	ClientID     string   `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string   `yaml:"client_secret" mapstructure:"client_secret"`
	RedirectURL  string   `yaml:"redirect_url" mapstructure:"redirect_url"`
	Scopes       []string `yaml:"scopes" mapstructure:"scopes"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	Output     string `yaml:"output" mapstructure:"output"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Exporter   string  `yaml:"exporter" mapstructure:"exporter"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	JWT       JWTConfig       `yaml:"jwt" mapstructure:"jwt"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	Secret string `yaml:"secret" mapstructure:"secret"`
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	// UpstreamPerMinute 每个用户每分钟可触发的上游调用次数
	UpstreamPerMinute int `yaml:"upstream_per_minute" mapstructure:"upstream_per_minute"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}
