// Package auth 提供 Google 登录、会话校验与登出用例
package auth

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/oauth2"

	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/domain/repository"
	"leadgen-api/internal/infrastructure/oauth"
	"leadgen-api/internal/infrastructure/persistence/redis"
	"leadgen-api/pkg/errors"
	"leadgen-api/pkg/logger"
	"leadgen-api/pkg/metrics"
	"leadgen-api/pkg/utils"
)

// SecretMessage 登录探针返回的固定内容
const SecretMessage = "you can see this secret message!"

const sessionTokenBytes = 32

// Provider OAuth 身份提供方
type Provider interface {
	Configured() bool
	AuthCodeURL(state, verifier, redirectURI string) string
	Exchange(ctx context.Context, code, verifier, redirectURI string) (*oauth2.Token, error)
	UserInfo(ctx context.Context, token *oauth2.Token) (*oauth.UserInfo, error)
}

// StateStore OAuth state 存储
type StateStore interface {
	Save(ctx context.Context, state string, data *redis.OAuthState) error
	Consume(ctx context.Context, state string) (*redis.OAuthState, error)
}

// UserCache 用户维度的缓存清理
type UserCache interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// Options 认证服务参数
type Options struct {
	SessionTTL      time.Duration
	MobileAllowlist []string
	CacheSize       int
	CacheTTL        time.Duration
}

// SignIn 登录结果
type SignIn struct {
	Token   string
	User    *entity.User
	Session *entity.Session
	// MobileRedirect 非空时需要把令牌回传给移动端
	MobileRedirect string
	// ReturnTo 发起登录时指定的站内路径
	ReturnTo string
}

// SessionView 当前会话
type SessionView struct {
	User    *entity.User
	Expires time.Time
}

// Service 认证服务
type Service struct {
	provider Provider
	states   StateStore
	users    repository.UserRepository
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	tx       repository.Transactor
	jwt      *utils.JWTManager
	leads    UserCache
	cache    *expirable.LRU[string, *entity.Session]
	opts     Options
	now      func() time.Time
}

// NewService 创建认证服务
func NewService(
	provider Provider,
	states StateStore,
	users repository.UserRepository,
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	tx repository.Transactor,
	jwt *utils.JWTManager,
	leads UserCache,
	opts Options,
) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 10000
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	return &Service{
		provider: provider,
		states:   states,
		users:    users,
		accounts: accounts,
		sessions: sessions,
		tx:       tx,
		jwt:      jwt,
		leads:    leads,
		cache:    expirable.NewLRU[string, *entity.Session](opts.CacheSize, nil, opts.CacheTTL),
		opts:     opts,
		now:      time.Now,
	}
}

// MobileRedirectAllowed 移动端回跳地址须匹配白名单前缀，白名单为空时全部拒绝
func (s *Service) MobileRedirectAllowed(uri string) bool {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return false
	}
	for _, allowed := range s.opts.MobileAllowlist {
		allowed = strings.TrimSpace(allowed)
		if allowed != "" && strings.HasPrefix(uri, allowed) {
			return true
		}
	}
	return false
}

// Start 创建 state 并返回 Google 授权地址，returnTo 只接受站内路径
func (s *Service) Start(ctx context.Context, redirectURI, returnTo string) (string, error) {
	if !s.provider.Configured() {
		return "", errors.ErrServiceUnavailable.WithDetail("google sign-in is not configured")
	}
	state, err := utils.RandomToken(32)
	if err != nil {
		return "", errors.ErrInternalError.WithError(err)
	}
	verifier := oauth.NewVerifier()
	if err := s.states.Save(ctx, state, &redis.OAuthState{
		Verifier:    verifier,
		RedirectURI: redirectURI,
		ReturnTo:    localPath(returnTo),
		CreatedAt:   s.now(),
	}); err != nil {
		logger.Error(ctx, "failed to save oauth state", err)
		return "", errors.New(errors.CodeCacheError, "failed to start sign-in").WithError(err)
	}
	return s.provider.AuthCodeURL(state, verifier, redirectURI), nil
}

// Callback 校验 state、换取令牌并创建会话
// mobileRedirect 非空表示移动端登录，会话 client 记为 mobile
func (s *Service) Callback(ctx context.Context, state, code, mobileRedirect string) (*SignIn, error) {
	client := utils.ClientWeb
	if mobileRedirect != "" {
		client = utils.ClientMobile
	}
	result, err := s.callback(ctx, state, code, client)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues(oauth.ProviderGoogle, client, "failed").Inc()
		return nil, err
	}
	metrics.SignInsTotal.WithLabelValues(oauth.ProviderGoogle, client, "success").Inc()
	result.MobileRedirect = mobileRedirect
	logger.Info(ctx, "user signed in", "user_id", result.User.ID, "client", client)
	return result, nil
}

func (s *Service) callback(ctx context.Context, state, code, client string) (*SignIn, error) {
	if state == "" || code == "" {
		return nil, errors.ErrOAuthFailed.WithDetail("missing state or code")
	}
	st, err := s.states.Consume(ctx, state)
	if err != nil {
		logger.Error(ctx, "failed to consume oauth state", err)
		return nil, errors.ErrOAuthFailed.WithError(err)
	}
	if st == nil {
		return nil, errors.ErrOAuthFailed.WithDetail("invalid or expired state")
	}

	token, err := s.provider.Exchange(ctx, code, st.Verifier, st.RedirectURI)
	if err != nil {
		logger.Warn(ctx, "oauth code exchange failed", "error", err.Error())
		return nil, errors.ErrOAuthFailed.WithDetail("code exchange failed").WithError(err)
	}
	info, err := s.provider.UserInfo(ctx, token)
	if err != nil {
		logger.Warn(ctx, "oauth userinfo failed", "error", err.Error())
		return nil, errors.ErrOAuthFailed.WithDetail("failed to fetch user info").WithError(err)
	}

	sessionToken, err := utils.RandomToken(sessionTokenBytes)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	out := &SignIn{ReturnTo: st.ReturnTo}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		user, err := s.findOrCreateUser(ctx, info)
		if err != nil {
			return err
		}
		if err := s.accounts.Upsert(ctx, newAccount(user.ID, info, token)); err != nil {
			return err
		}
		session := entity.NewSession(sessionToken, user.ID, client, s.opts.SessionTTL)
		if err := s.sessions.Create(ctx, session); err != nil {
			return err
		}
		out.User = user
		out.Session = session
		return nil
	})
	if err != nil {
		logger.Error(ctx, "failed to persist sign-in", err)
		return nil, errors.ErrDatabase.WithError(err)
	}

	out.Token, err = s.jwt.IssueSessionToken(sessionToken, out.User.ID, out.User.Email, client, out.Session.Expires)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return out, nil
}

func localPath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return ""
	}
	return p
}

func (s *Service) findOrCreateUser(ctx context.Context, info *oauth.UserInfo) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(info.Email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = entity.NewUser(email, info.Name, info.Picture)
		if info.EmailVerified {
			user.MarkEmailVerified(s.now())
		}
		return user, s.users.Create(ctx, user)
	}

	changed := false
	if info.EmailVerified && user.EmailVerified == nil {
		user.MarkEmailVerified(s.now())
		changed = true
	}
	if user.Name == "" && info.Name != "" {
		user.Name = info.Name
		changed = true
	}
	if user.Image == "" && info.Picture != "" {
		user.Image = info.Picture
		changed = true
	}
	if changed {
		return user, s.users.Update(ctx, user)
	}
	return user, nil
}

func newAccount(userID string, info *oauth.UserInfo, token *oauth2.Token) *entity.Account {
	account := &entity.Account{
		Provider:          oauth.ProviderGoogle,
		ProviderAccountID: info.Subject,
		UserID:            userID,
		Type:              entity.AccountTypeOIDC,
		AccessToken:       token.AccessToken,
		RefreshToken:      token.RefreshToken,
		IDToken:           oauth.IDToken(token),
		Scope:             oauth.Scope(token),
		TokenType:         token.Type(),
	}
	if !token.Expiry.IsZero() {
		account.ExpiresAt = token.Expiry.Unix()
	}
	return account
}

// Authenticate 校验会话令牌并返回调用方
func (s *Service) Authenticate(ctx context.Context, raw string) (*principal.Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.ErrTokenMissing
	}
	claims, err := s.jwt.ParseSessionToken(raw)
	if err != nil {
		if stderrors.Is(err, utils.ErrExpiredToken) {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenInvalid
	}

	session, err := s.session(ctx, claims.SessionID())
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, errors.ErrTokenInvalid
	}
	return &principal.Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		SessionID: session.SessionToken,
		Client:    session.Client,
		Expires:   session.Expires,
	}, nil
}

func (s *Service) session(ctx context.Context, id string) (*entity.Session, error) {
	if session, ok := s.cache.Get(id); ok && !session.IsExpired() {
		return session, nil
	}
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		logger.Error(ctx, "failed to load session", err)
		return nil, errors.ErrDatabase.WithError(err)
	}
	if session == nil || session.IsExpired() {
		s.cache.Remove(id)
		return nil, errors.ErrSessionExpired
	}
	s.cache.Add(id, session)
	return session, nil
}

// Session 返回当前会话的用户与过期时间
func (s *Service) Session(ctx context.Context, p *principal.Principal) (*SessionView, error) {
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		logger.Error(ctx, "failed to load session user", err)
		return nil, errors.ErrDatabase.WithError(err)
	}
	if user == nil {
		return nil, errors.ErrUserNotFound
	}
	return &SessionView{User: user, Expires: p.Expires}, nil
}

// SignOut 删除会话并清除本地缓存
func (s *Service) SignOut(ctx context.Context, p *principal.Principal) error {
	s.cache.Remove(p.SessionID)
	if err := s.sessions.Delete(ctx, p.SessionID); err != nil {
		logger.Error(ctx, "failed to delete session", err)
		return errors.ErrDatabase.WithError(err)
	}
	if s.leads != nil {
		if err := s.leads.InvalidateUser(ctx, p.UserID); err != nil {
			logger.Warn(ctx, "failed to clear user lead cache", "error", err.Error())
		}
	}
	logger.Info(ctx, "user signed out", "user_id", p.UserID)
	return nil
}

// PurgeExpired 删除已过期会话
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	s.cache.Purge()
	return s.sessions.DeleteExpired(ctx, s.now())
}
