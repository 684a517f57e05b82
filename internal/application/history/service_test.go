package history

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/domain/repository"
	"leadgen-api/internal/infrastructure/leadsource"
	"leadgen-api/internal/infrastructure/persistence/database"
	"leadgen-api/internal/infrastructure/persistence/database/dbtest"
	"leadgen-api/internal/infrastructure/persistence/redis"
	apperrors "leadgen-api/pkg/errors"
)

type fakeBackend struct {
	historyCalls atomic.Int32
	deleted      []string
	deleteUser   string
	deleteErr    error
	historyErr   error
}

func (f *fakeBackend) History(_ context.Context, user, id string) ([]entity.Company, error) {
	f.historyCalls.Add(1)
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return []entity.Company{{BaseInfo: entity.BaseInfo{ID: "c-" + id, Name: "Acme"}}}, nil
}

func (f *fakeBackend) DeleteHistory(_ context.Context, user string, ids []string) error {
	f.deleteUser = user
	f.deleted = append(f.deleted, ids...)
	return f.deleteErr
}

func newService(t *testing.T) (*Service, *fakeBackend, *principal.Principal) {
	t.Helper()
	db := dbtest.New(t)
	user := dbtest.SeedUser(t, db, "ada@example.com")

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := redis.NewCache(redis.NewClientFromRedis(rdb))

	backend := &fakeBackend{}
	svc := NewService(database.NewHistoryRepository(db), backend, cache, principal.NewIdentity("email"), time.Minute)
	return svc, backend, &principal.Principal{UserID: user.ID, Email: user.Email}
}

func TestRecordAndPage(t *testing.T) {
	svc, _, p := newService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, p.UserID, "s1", "coffee", entity.SourceKompass)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = svc.Record(ctx, p.UserID, "s2", "tea", entity.SourceLinkedIn)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = svc.Record(ctx, p.UserID, "s1", "coffee beans", entity.SourceKompass)
	require.NoError(t, err)

	page, err := svc.Page(ctx, p.UserID, repository.NewCursor(nil, 10))
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "s1", page.Items[0].ID)
	assert.Equal(t, "coffee beans", page.Items[0].Query)
	assert.Nil(t, page.Next)
}

func TestRecord_Validation(t *testing.T) {
	svc, _, p := newService(t)
	_, err := svc.Record(context.Background(), p.UserID, "", "q", entity.SourceKompass)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	_, err = svc.Record(context.Background(), p.UserID, "s1", "q", entity.Source("yellowpages"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestReplay_CachesAndScopes(t *testing.T) {
	svc, backend, p := newService(t)
	ctx := context.Background()

	_, err := svc.Replay(ctx, p, "s1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeHistoryNotFound))

	_, err = svc.Record(ctx, p.UserID, "s1", "coffee", entity.SourceEuropages)
	require.NoError(t, err)

	for range 2 {
		companies, err := svc.Replay(ctx, p, "s1")
		require.NoError(t, err)
		require.Len(t, companies, 1)
		assert.Equal(t, "c-s1", companies[0].ID)
	}
	assert.EqualValues(t, 1, backend.historyCalls.Load())

	other := &principal.Principal{UserID: "someone-else"}
	_, err = svc.Replay(ctx, other, "s1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeHistoryNotFound))
}

func TestReplay_UpstreamUnavailable(t *testing.T) {
	svc, backend, p := newService(t)
	ctx := context.Background()
	backend.historyErr = &leadsource.APIError{StatusCode: 502, Endpoint: "/history"}

	_, err := svc.Record(ctx, p.UserID, "s9", "q", entity.SourceKompass)
	require.NoError(t, err)
	_, err = svc.Replay(ctx, p, "s9")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstreamUnavailable))
}

func TestDelete_BestEffortUpstream(t *testing.T) {
	svc, backend, p := newService(t)
	ctx := context.Background()
	backend.deleteErr = errors.New("upstream down")

	_, err := svc.Record(ctx, p.UserID, "s1", "coffee", entity.SourceKompass)
	require.NoError(t, err)
	_, err = svc.Replay(ctx, p, "s1")
	require.NoError(t, err)

	n, err := svc.Delete(ctx, p, []string{"s1", "missing"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, "ada@example.com", backend.deleteUser)
	assert.Equal(t, []string{"s1", "missing"}, backend.deleted)

	_, err = svc.Replay(ctx, p, "s1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeHistoryNotFound))

	_, err = svc.Delete(ctx, p, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}
