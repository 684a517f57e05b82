package auth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"leadgen-api/internal/infrastructure/oauth"
	"leadgen-api/internal/infrastructure/persistence/database"
	"leadgen-api/internal/infrastructure/persistence/database/dbtest"
	"leadgen-api/internal/infrastructure/persistence/redis"
	apperrors "leadgen-api/pkg/errors"
	"leadgen-api/pkg/utils"
)

type fakeProvider struct {
	configured  bool
	exchangeErr error
	info        *oauth.UserInfo
	verifier    string
	redirectURI string
}

func (p *fakeProvider) Configured() bool { return p.configured }

func (p *fakeProvider) AuthCodeURL(state, verifier, redirectURI string) string {
	return "https://accounts.example/auth?" + url.Values{"state": {state}, "redirect_uri": {redirectURI}}.Encode()
}

func (p *fakeProvider) Exchange(_ context.Context, code, verifier, redirectURI string) (*oauth2.Token, error) {
	p.verifier = verifier
	p.redirectURI = redirectURI
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{AccessToken: "at-" + code, TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
}

func (p *fakeProvider) UserInfo(context.Context, *oauth2.Token) (*oauth.UserInfo, error) {
	return p.info, nil
}

type fixture struct {
	svc      *Service
	provider *fakeProvider
	db       *database.Client
	cache    *redis.Cache
	mr       *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	provider := &fakeProvider{
		configured: true,
		info:       &oauth.UserInfo{Subject: "g-1", Email: "Ada@Example.com", EmailVerified: true, Name: "Ada", Picture: "https://img/ada.png"},
	}
	client := redis.NewClientFromRedis(rdb)
	cache := redis.NewCache(client)
	svc := NewService(
		provider,
		redis.NewStateStore(client, time.Minute),
		database.NewUserRepository(db),
		database.NewAccountRepository(db),
		database.NewSessionRepository(db),
		database.NewTxManager(db),
		utils.NewJWTManager("test-secret", "leadgen-test"),
		cache,
		Options{SessionTTL: time.Hour, MobileAllowlist: []string{"exp://", "leadgen://auth"}},
	)
	return &fixture{svc: svc, provider: provider, db: db, cache: cache, mr: mr}
}

func (f *fixture) signIn(t *testing.T, mobile string) *SignIn {
	t.Helper()
	ctx := context.Background()
	authURL, err := f.svc.Start(ctx, "http://localhost:8080/v1/auth/google/callback", "/collections")
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)

	result, err := f.svc.Callback(ctx, u.Query().Get("state"), "code-1", mobile)
	require.NoError(t, err)
	return result
}

func TestSignInFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result := f.signIn(t, "")
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.NotNil(t, result.User.EmailVerified)
	assert.Equal(t, utils.ClientWeb, result.Session.Client)
	assert.Equal(t, "/collections", result.ReturnTo)
	assert.NotEmpty(t, f.provider.verifier)
	assert.Equal(t, "http://localhost:8080/v1/auth/google/callback", f.provider.redirectURI)

	p, err := f.svc.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, p.UserID)
	assert.Equal(t, result.Session.SessionToken, p.SessionID)

	view, err := f.svc.Session(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "Ada", view.User.Name)

	accounts, err := database.NewAccountRepository(f.db).ListByUser(ctx, result.User.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "at-code-1", accounts[0].AccessToken)

	// 同一邮箱再次登录复用用户
	again := f.signIn(t, "exp://192.168.1.5:8081")
	assert.Equal(t, result.User.ID, again.User.ID)
	assert.Equal(t, utils.ClientMobile, again.Session.Client)
	assert.Equal(t, "exp://192.168.1.5:8081", again.MobileRedirect)
}

func TestSignOut_InvalidatesCachedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	result := f.signIn(t, "")

	p, err := f.svc.Authenticate(ctx, result.Token)
	require.NoError(t, err)

	infoKey := redis.CompanyInfoKey(p.UserID, "c1")
	otherKey := redis.CompanyInfoKey("someone-else", "c1")
	require.NoError(t, f.cache.Set(ctx, infoKey, "cached", time.Minute))
	require.NoError(t, f.cache.Set(ctx, otherKey, "cached", time.Minute))

	require.NoError(t, f.svc.SignOut(ctx, p))

	_, err = f.svc.Authenticate(ctx, result.Token)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSessionExpired))
	assert.False(t, f.mr.Exists(infoKey))
	assert.True(t, f.mr.Exists(otherKey))
}

func TestCallback_StateConsumedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	authURL, err := f.svc.Start(ctx, "http://localhost/cb", "")
	require.NoError(t, err)
	u, _ := url.Parse(authURL)
	state := u.Query().Get("state")

	_, err = f.svc.Callback(ctx, state, "code", "")
	require.NoError(t, err)
	_, err = f.svc.Callback(ctx, state, "code", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeOAuthFailed))

	_, err = f.svc.Callback(ctx, "", "code", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeOAuthFailed))
}

func TestCallback_ExchangeFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.provider.exchangeErr = errors.New("invalid_grant")

	authURL, err := f.svc.Start(ctx, "http://localhost/cb", "")
	require.NoError(t, err)
	u, _ := url.Parse(authURL)

	_, err = f.svc.Callback(ctx, u.Query().Get("state"), "code", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeOAuthFailed))
}

func TestStart_NotConfigured(t *testing.T) {
	f := newFixture(t)
	f.provider.configured = false

	_, err := f.svc.Start(context.Background(), "http://localhost/cb", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeServiceUnavailable))
}

func TestAuthenticate_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Authenticate(ctx, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTokenMissing))

	_, err = f.svc.Authenticate(ctx, "garbage")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTokenInvalid))

	other := utils.NewJWTManager("other-secret", "leadgen-test")
	forged, err := other.IssueSessionToken("s1", "u1", "x@y.z", utils.ClientWeb, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, forged)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTokenInvalid))

	// 签名有效但会话不存在
	valid := utils.NewJWTManager("test-secret", "leadgen-test")
	orphan, err := valid.IssueSessionToken("missing", "u1", "x@y.z", utils.ClientWeb, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, orphan)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSessionExpired))
}

func TestMobileRedirectAllowed(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.svc.MobileRedirectAllowed("exp://10.0.0.2:8081/--/home"))
	assert.True(t, f.svc.MobileRedirectAllowed("leadgen://auth/callback"))
	assert.False(t, f.svc.MobileRedirectAllowed("https://evil.example"))
	assert.False(t, f.svc.MobileRedirectAllowed(""))
}

func TestLocalPath(t *testing.T) {
	assert.Equal(t, "/history", localPath("/history"))
	assert.Empty(t, localPath("//evil.example"))
	assert.Empty(t, localPath("https://evil.example"))
	assert.Empty(t, localPath(""))
}

func TestPurgeExpired(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, "")
	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	n, err := f.svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
