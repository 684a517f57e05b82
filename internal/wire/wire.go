//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"leadgen-api/internal/application/auth"
	"leadgen-api/internal/application/collection"
	"leadgen-api/internal/application/history"
	"leadgen-api/internal/application/lead"
	"leadgen-api/internal/application/outreach"
	"leadgen-api/internal/application/user"
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
)

// InitializeDataLayer 初始化数据层（用于 bootstrap）
func InitializeDataLayer(ctx context.Context, cfg *config.Config) (*DataLayer, func(), error) {
	wire.Build(
		ProvideDatabaseClient,
		database.NewTxManager,
		database.NewUserRepository,
		database.NewSessionRepository,
		wire.Struct(new(DataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化邮件发送进程
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		MailerSet,
		ProvideConsumer,
		ProvideDeliverer,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		UpstreamSet,
		ServiceSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// DatabaseSet 数据库提供者集合
var DatabaseSet = wire.NewSet(
	ProvideDatabaseClient,
	database.NewTxManager,
	database.NewUserRepository,
	database.NewAccountRepository,
	database.NewSessionRepository,
	database.NewCollectionRepository,
	database.NewHistoryRepository,
	database.NewUnlockRepository,
	database.NewMailRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	DatabaseSet,
	wire.Bind(new(repository.Transactor), new(*database.TxManager)),
	wire.Bind(new(repository.UserRepository), new(*database.UserRepository)),
	wire.Bind(new(repository.AccountRepository), new(*database.AccountRepository)),
	wire.Bind(new(repository.SessionRepository), new(*database.SessionRepository)),
	wire.Bind(new(repository.CollectionRepository), new(*database.CollectionRepository)),
	wire.Bind(new(repository.HistoryRepository), new(*database.HistoryRepository)),
	wire.Bind(new(repository.UnlockRepository), new(*database.UnlockRepository)),
	wire.Bind(new(repository.MailRepository), new(*database.MailRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	ProvideStateStore,
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
	wire.Bind(new(outreach.Publisher), new(*messaging.Producer)),
)

// MailerSet 发信提供者集合
var MailerSet = wire.NewSet(
	ProvideMailer,
	wire.Bind(new(mailer.Sender), new(*mailer.SMTPMailer)),
)

// UpstreamSet 外部服务提供者集合
var UpstreamSet = wire.NewSet(
	ProvideLeadSource,
	ProvideGoogle,
	ProvideSiteFetcher,
	ProvideJWTManager,
	ProvideIdentity,
	wire.Bind(new(lead.Backend), new(*leadsource.Client)),
	wire.Bind(new(history.Backend), new(*leadsource.Client)),
	wire.Bind(new(user.Backend), new(*leadsource.Client)),
	wire.Bind(new(outreach.Generator), new(*leadsource.Client)),
	wire.Bind(new(lead.SitePreviewer), new(*sitemeta.Fetcher)),
	wire.Bind(new(auth.Provider), new(*oauth.Google)),
	wire.Bind(new(auth.StateStore), new(*redis.StateStore)),
)

// ServiceSet 应用服务提供者集合
var ServiceSet = wire.NewSet(
	ProvideAuthService,
	ProvideHistoryService,
	ProvideLeadService,
	ProvideOutreachService,
	collection.NewService,
	user.NewService,
	wire.Bind(new(lead.HistoryRecorder), new(*history.Service)),
)

// RouterSet 路由提供者集合
var RouterSet = wire.NewSet(
	ProvideUploadLimits,
	ProvideHealthHandler,
	ProvideAuthHandler,
	handler.NewUserHandler,
	handler.NewCollectionHandler,
	handler.NewHistoryHandler,
	handler.NewLeadHandler,
	handler.NewMailHandler,
	wire.Bind(new(handler.AuthService), new(*auth.Service)),
	wire.Bind(new(handler.UserService), new(*user.Service)),
	wire.Bind(new(handler.CollectionService), new(*collection.Service)),
	wire.Bind(new(handler.HistoryService), new(*history.Service)),
	wire.Bind(new(handler.LeadService), new(*lead.Service)),
	wire.Bind(new(handler.MailService), new(*outreach.Service)),
	wire.Struct(new(router.Handlers), "*"),
	ProvideRouter,
)
