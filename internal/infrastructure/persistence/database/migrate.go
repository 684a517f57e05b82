package database

import (
	"context"
	"fmt"

	"leadgen-api/internal/domain/entity"
)

// Models 需要迁移的全部模型
func Models() []interface{} {
	return []interface{}{
		&entity.User{},
		&entity.Account{},
		&entity.Session{},
		&entity.Collection{},
		&entity.SearchHistory{},
		&entity.UnlockedContact{},
		&entity.OutboundMail{},
	}
}

// Migrate 自动迁移表结构
func (c *Client) Migrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "database.Migrate")
	defer span.End()

	if err := c.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
