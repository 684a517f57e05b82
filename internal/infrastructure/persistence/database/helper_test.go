package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"leadgen-api/internal/config"
	"leadgen-api/internal/domain/entity"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(&config.DatabaseConfig{
		Driver:   "sqlite",
		LogLevel: "silent",
		SQLite:   config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(context.Background()))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func seedUser(t *testing.T, client *Client, email string) *entity.User {
	t.Helper()
	user := entity.NewUser(email, "Test", "")
	require.NoError(t, NewUserRepository(client).Create(context.Background(), user))
	return user
}
