// Package dbtest 提供基于临时 SQLite 的测试数据库
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"leadgen-api/internal/config"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/infrastructure/persistence/database"
)

// New 创建已迁移的测试数据库，测试结束自动关闭
func New(t testing.TB) *database.Client {
	t.Helper()
	client, err := database.NewClient(&config.DatabaseConfig{
		Driver:   "sqlite",
		LogLevel: "silent",
		SQLite:   config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(context.Background()))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// SeedUser 创建测试用户
func SeedUser(t testing.TB, client *database.Client, email string) *entity.User {
	t.Helper()
	user := entity.NewUser(email, "Test User", "")
	require.NoError(t, database.NewUserRepository(client).Create(context.Background(), user))
	return user
}
