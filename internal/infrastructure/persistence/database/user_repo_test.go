package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgen-api/internal/domain/entity"
)

func TestUserRepository_CRUD(t *testing.T) {
	client := newTestClient(t)
	repo := NewUserRepository(client)
	ctx := context.Background()

	user := seedUser(t, client, "Alice@Example.com")
	require.NotEmpty(t, user.ID)

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)

	company := "Acme"
	got.ApplyProfile(&entity.UserProfile{
		Company:   &company,
		Addresses: []entity.Address{{Country: "Germany", Name: "Berlin"}},
		Websites:  []string{"https://acme.io"},
	})
	require.NoError(t, repo.Update(ctx, got))

	reloaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", reloaded.Company)
	assert.Equal(t, []entity.Address{{Country: "Germany", Name: "Berlin"}}, reloaded.Addresses)
	assert.Equal(t, []string{"https://acme.io"}, reloaded.Websites)
	assert.Equal(t, []string{}, reloaded.Mails)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	user := seedUser(t, client, "bob@example.com")

	require.NoError(t, NewCollectionRepository(client).Create(ctx, entity.NewCollection(user.ID, "Leads")))
	require.NoError(t, NewSessionRepository(client).Create(ctx, entity.NewSession("tok", user.ID, "web", time.Hour)))

	require.NoError(t, NewUserRepository(client).Delete(ctx, user.ID))

	cols, err := NewCollectionRepository(client).ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cols)
	sess, err := NewSessionRepository(client).Get(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestAccountRepository_Upsert(t *testing.T) {
	client := newTestClient(t)
	repo := NewAccountRepository(client)
	ctx := context.Background()
	user := seedUser(t, client, "carol@example.com")

	acc := &entity.Account{Provider: "google", ProviderAccountID: "g-1", UserID: user.ID, Type: entity.AccountTypeOIDC, AccessToken: "a1"}
	require.NoError(t, repo.Upsert(ctx, acc))

	acc2 := &entity.Account{Provider: "google", ProviderAccountID: "g-1", UserID: user.ID, Type: entity.AccountTypeOIDC, AccessToken: "a2"}
	require.NoError(t, repo.Upsert(ctx, acc2))

	got, err := repo.Get(ctx, "google", "g-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a2", got.AccessToken)

	list, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSessionRepository_Expiry(t *testing.T) {
	client := newTestClient(t)
	repo := NewSessionRepository(client)
	ctx := context.Background()
	user := seedUser(t, client, "dan@example.com")

	require.NoError(t, repo.Create(ctx, entity.NewSession("live", user.ID, "web", time.Hour)))
	require.NoError(t, repo.Create(ctx, entity.NewSession("dead", user.ID, "mobile", -time.Hour)))

	n, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	live, err := repo.Get(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.False(t, live.IsExpired())

	require.NoError(t, repo.Delete(ctx, "live"))
	gone, err := repo.Get(ctx, "live")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestTxManager_Rollback(t *testing.T) {
	client := newTestClient(t)
	tx := NewTxManager(client)
	users := NewUserRepository(client)
	ctx := context.Background()

	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := users.Create(ctx, entity.NewUser("tx@example.com", "Tx", "")); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	got, err := users.GetByEmail(ctx, "tx@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}
