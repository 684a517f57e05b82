// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"
	"os"

	"leadgen-api/internal/application/auth"
	"leadgen-api/internal/application/history"
	"leadgen-api/internal/application/lead"
	"leadgen-api/internal/application/outreach"
	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/config"
	"leadgen-api/internal/domain/repository"
	"leadgen-api/internal/infrastructure/leadsource"
	"leadgen-api/internal/infrastructure/mailer"
	"leadgen-api/internal/infrastructure/messaging"
	"leadgen-api/internal/infrastructure/oauth"
	"leadgen-api/internal/infrastructure/persistence/database"
	"leadgen-api/internal/infrastructure/persistence/redis"
	"leadgen-api/internal/infrastructure/sitemeta"
	"leadgen-api/internal/interfaces/http/handler"
	"leadgen-api/internal/interfaces/http/router"
	"leadgen-api/pkg/logger"
	"leadgen-api/pkg/utils"
)

// DataLayer 数据层依赖容器（用于 bootstrap）
type DataLayer struct {
	DB          *database.Client
	TxManager   *database.TxManager
	UserRepo    *database.UserRepository
	SessionRepo *database.SessionRepository
}

// App API 网关依赖
type App struct {
	Router *router.Router
	Auth   *auth.Service
}

// Worker 邮件发送进程依赖
type Worker struct {
	Consumer  *messaging.Consumer
	Deliverer *outreach.Deliverer
	Config    *config.Config
}

// ProvideDatabaseClient 提供数据库客户端，按配置执行自动迁移
func ProvideDatabaseClient(ctx context.Context, cfg *config.Config) (*database.Client, func(), error) {
	client, err := database.NewClient(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := client.Migrate(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), int64(maxLen))
}

// ProvideStateStore 提供 OAuth state 存储
func ProvideStateStore(redisClient *redis.Client, cfg *config.Config) *redis.StateStore {
	return redis.NewStateStore(redisClient, cfg.Auth.StateTTL)
}

// ProvideLeadSource 提供上游线索服务客户端
func ProvideLeadSource(cfg *config.Config) *leadsource.Client {
	return leadsource.NewFromConfig(&cfg.Upstream)
}

// ProvideGoogle 提供 Google OAuth 客户端
func ProvideGoogle(cfg *config.Config) *oauth.Google {
	return oauth.NewGoogle(&cfg.Auth.Google)
}

// ProvideJWTManager 提供会话令牌签发器
func ProvideJWTManager(cfg *config.Config) *utils.JWTManager {
	return utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer)
}

// ProvideIdentity 提供上游用户标识规则
func ProvideIdentity(cfg *config.Config) principal.Identity {
	return principal.NewIdentity(cfg.Upstream.UserIdentity)
}

// ProvideSiteFetcher 提供网站摘要抓取器
func ProvideSiteFetcher(cfg *config.Config) *sitemeta.Fetcher {
	return sitemeta.New(cfg.Upstream.Timeout, sitemeta.WithMaxBytes(cfg.Upstream.SitePreviewBytes))
}

// ProvideMailer 提供 SMTP 发信客户端
func ProvideMailer(cfg *config.Config) *mailer.SMTPMailer {
	return mailer.NewSMTPMailer(&cfg.Mail.SMTP)
}

// ProvideAuthService 提供认证服务
func ProvideAuthService(
	cfg *config.Config,
	provider auth.Provider,
	states auth.StateStore,
	users repository.UserRepository,
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	tx repository.Transactor,
	jwt *utils.JWTManager,
	cache *redis.Cache,
) *auth.Service {
	return auth.NewService(provider, states, users, accounts, sessions, tx, jwt, cache, auth.Options{
		SessionTTL:      cfg.Auth.SessionTTL,
		MobileAllowlist: cfg.Auth.MobileRedirectAllowlist,
		CacheSize:       cfg.Cache.Local.Size,
		CacheTTL:        cfg.Cache.Local.TTL,
	})
}

// ProvideHistoryService 提供搜索历史服务
func ProvideHistoryService(cfg *config.Config, repo repository.HistoryRepository, backend history.Backend, cache *redis.Cache, identity principal.Identity) *history.Service {
	return history.NewService(repo, backend, cache, identity, cfg.Cache.TTL.SearchReplay)
}

// ProvideLeadService 提供线索服务
func ProvideLeadService(
	cfg *config.Config,
	backend lead.Backend,
	unlocks repository.UnlockRepository,
	recorder lead.HistoryRecorder,
	cache *redis.Cache,
	previews lead.SitePreviewer,
	identity principal.Identity,
) *lead.Service {
	return lead.NewService(backend, unlocks, recorder, cache, previews, identity, lead.CacheTTL{
		CompanyInfo: cfg.Cache.TTL.CompanyInfo,
		Employees:   cfg.Cache.TTL.Employees,
		SitePreview: cfg.Cache.TTL.SitePreview,
	})
}

// ProvideOutreachService 提供外联邮件服务
func ProvideOutreachService(cfg *config.Config, generator outreach.Generator, mails repository.MailRepository, publisher outreach.Publisher, identity principal.Identity) *outreach.Service {
	return outreach.NewService(generator, mails, publisher, identity, cfg.Mail.MaxRecipients)
}

// ProvideDeliverer 提供邮件投递器
func ProvideDeliverer(cfg *config.Config, mails repository.MailRepository, sender mailer.Sender, publisher outreach.Publisher) *outreach.Deliverer {
	return outreach.NewDeliverer(mails, sender, publisher, cfg.Messaging.RedisStream.RetryLimit)
}

// ProvideConsumer 提供邮件队列消费者
func ProvideConsumer(redisClient *redis.Client, cfg *config.Config) *messaging.Consumer {
	rs := cfg.Messaging.RedisStream
	return messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamMailOutbound,
		Group:         messaging.ConsumerGroupMailSender,
		ConsumerName:  consumerName(),
		BlockTimeout:  rs.BlockTimeout,
		ClaimInterval: rs.ClaimInterval,
		RetryLimit:    rs.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    rs.RetryBackoff.Initial,
			Max:        rs.RetryBackoff.Max,
			Multiplier: rs.RetryBackoff.Multiplier,
		},
	})
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "mail-worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// ProvideUploadLimits 提供上传限制
func ProvideUploadLimits(cfg *config.Config) handler.UploadLimits {
	return handler.UploadLimits{
		MaxFiles: cfg.Upstream.MaxUploadFiles,
		MaxBytes: cfg.Upstream.MaxUploadBytes,
	}
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, db *database.Client, redisClient *redis.Client, upstream *leadsource.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(db, redisClient, upstream, cfg.App.Version)
}

// ProvideAuthHandler 提供认证处理器
func ProvideAuthHandler(cfg *config.Config, svc handler.AuthService) *handler.AuthHandler {
	return handler.NewAuthHandler(svc, handler.AuthHandlerConfig{
		CookieName:        cfg.Auth.CookieName,
		CookieDomain:      cfg.Auth.CookieDomain,
		PostLoginRedirect: cfg.Auth.PostLoginRedirect,
		Development:       cfg.App.IsDevelopment(),
	})
}

// ProvideRouter 提供 HTTP 路由器
func ProvideRouter(ctx context.Context, cfg *config.Config, handlers *router.Handlers, authSvc *auth.Service, limiter *redis.RateLimiter, google *oauth.Google) *router.Router {
	if !google.Configured() {
		logger.Warn(ctx, "google oauth is not configured, sign-in disabled")
	}
	return router.New(cfg, handlers, authSvc, limiter)
}
