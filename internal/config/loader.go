// Package config 提供配置加载功能
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// envPlaceholder 匹配 ${VAR} 或 ${VAR:default}
var envPlaceholder = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// legacyEnv 兼容部署环境中沿用的扁平环境变量名
var legacyEnv = map[string]string{
	"auth.google.client_id":          "AUTH_GOOGLE_ID",
	"auth.google.client_secret":      "AUTH_GOOGLE_SECRET",
	"security.jwt.secret":            "AUTH_SECRET",
	"upstream.endpoint":              "ENDPOINT",
	"database.postgres.dsn":          "DATABASE_URL",
	"auth.post_login_redirect":       "AUTH_URL",
	"mail.smtp.password":             "SMTP_PASSWORD",
	"observability.tracing.endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// Load 加载配置文件
// 按优先级加载：默认配置 -> 环境配置 -> 环境变量
func Load() (*Config, error) {
	return LoadFrom("configs")
}

// LoadFrom 从指定目录加载配置
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 加载默认配置
	if err := loadConfigFile(v, dir+"/config.yaml", false); err != nil {
		return nil, err
	}

	// 2. 加载环境特定配置
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	envFile := fmt.Sprintf("%s/config.%s.yaml", dir, env)
	if err := loadConfigFile(v, envFile, true); err != nil {
		return nil, err
	}

	// 3. 绑定环境变量 (直接覆盖)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, name := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), name); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", name, err)
		}
	}

	// 设置默认值 (兜底)
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Upstream.Endpoint == "" {
		return fmt.Errorf("upstream.endpoint is required")
	}
	if c.App.IsProduction() && c.Security.JWT.Secret == "" {
		return fmt.Errorf("security.jwt.secret is required in production")
	}
	return nil
}

// loadConfigFile 读取文件，执行环境变量替换，并加载到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	reader := strings.NewReader(expandEnv(string(content)))
	if v.ConfigFileUsed() == "" {
		if err := v.ReadConfig(reader); err != nil {
			return fmt.Errorf("failed to read processed config %s: %w", path, err)
		}
		// 手动标记已加载文件，防止后续 ReadInConfig 报错
		v.SetConfigFile(path)
	} else {
		if err := v.MergeConfig(reader); err != nil {
			return fmt.Errorf("failed to merge processed config %s: %w", path, err)
		}
	}

	return nil
}

// expandEnv 替换字符串中的 ${VAR:default} 占位符
func expandEnv(s string) string {
	return envPlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envPlaceholder.FindStringSubmatch(match)
		key := submatch[1]
		hasDefault := submatch[2] != ""
		defVal := submatch[3]

		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		if hasDefault {
			return defVal
		}
		// 保留原样以便识别未定义的变量
		return match
	})
}

// MustLoad 加载配置，失败时 panic
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "leadgen-api")
	v.SetDefault("app.version", "v0.0.0")
	v.SetDefault("app.env", "development")

	// HTTP 服务器默认值
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "60s")
	v.SetDefault("server.http.idle_timeout", "120s")
	v.SetDefault("server.http.max_multipart_memory", 8<<20)

	// 数据库默认值
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_query", "200ms")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.database", "leadgen")
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 50)
	v.SetDefault("database.postgres.max_idle_conns", 10)
	v.SetDefault("database.postgres.conn_max_lifetime", "30m")
	v.SetDefault("database.postgres.conn_max_idle_time", "5m")
	v.SetDefault("database.sqlite.path", "data/leadgen.db")
	v.SetDefault("database.sqlite.busy_timeout", "5s")

	// Redis 默认值
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 100)
	v.SetDefault("cache.redis.min_idle_conns", 10)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")
	v.SetDefault("cache.ttl.company_info", "30m")
	v.SetDefault("cache.ttl.employees", "30m")
	v.SetDefault("cache.ttl.search_replay", "10m")
	v.SetDefault("cache.ttl.site_preview", "6h")
	v.SetDefault("cache.local.size", 10000)
	v.SetDefault("cache.local.ttl", "1m")

	// 上游服务默认值
	v.SetDefault("upstream.timeout", "30s")
	v.SetDefault("upstream.requests_per_second", 20.0)
	v.SetDefault("upstream.burst", 40)
	v.SetDefault("upstream.employee_batch_size", 10)
	v.SetDefault("upstream.max_concurrency", 4)
	v.SetDefault("upstream.max_upload_bytes", 10<<20)
	v.SetDefault("upstream.max_upload_files", 5)
	v.SetDefault("upstream.site_preview_bytes", 1<<20)
	v.SetDefault("upstream.user_identity", "email")

	// 消息队列默认值
	v.SetDefault("messaging.redis_stream.max_len", 100000)
	v.SetDefault("messaging.redis_stream.block_timeout", "5s")
	v.SetDefault("messaging.redis_stream.claim_interval", "30s")
	v.SetDefault("messaging.redis_stream.retry_limit", 5)
	v.SetDefault("messaging.redis_stream.retry_backoff.initial", "2s")
	v.SetDefault("messaging.redis_stream.retry_backoff.max", "2m")
	v.SetDefault("messaging.redis_stream.retry_backoff.multiplier", 2.0)
	v.SetDefault("messaging.redis_stream.dlq_alert_threshold", 100)

	// 邮件默认值
	v.SetDefault("mail.smtp.port", 587)
	v.SetDefault("mail.smtp.starttls", true)
	v.SetDefault("mail.smtp.timeout", "15s")
	v.SetDefault("mail.max_recipients", 50)

	// 登录默认值
	v.SetDefault("auth.google.scopes", []string{"openid", "email", "profile"})
	v.SetDefault("auth.post_login_redirect", "/")
	v.SetDefault("auth.session_ttl", "720h")
	v.SetDefault("auth.state_ttl", "10m")
	v.SetDefault("auth.cookie_name", "leadgen.session-token")
	v.SetDefault("auth.mobile_redirect_allowlist", []string{"exp://", "leadgen://"})

	// 可观测性默认值
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.logging.output", "stdout")
	v.SetDefault("observability.logging.max_size_mb", 100)
	v.SetDefault("observability.logging.max_backups", 5)
	v.SetDefault("observability.logging.max_age_days", 14)
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.exporter", "otlp")
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	// 安全默认值
	v.SetDefault("security.jwt.issuer", "leadgen-api")
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.requests_per_second", 50)
	v.SetDefault("security.rate_limit.upstream_per_minute", 120)
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"Authorization", "Content-Type", "X-Request-ID"})
}
