// Package main 运维命令入口：迁移、清理会话、重投邮件、创建调试用户
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"leadgen-api/internal/config"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/wire"
	"leadgen-api/pkg/logger"
	"leadgen-api/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "bootstrap",
		Short:         "Maintenance commands for leadgen-api",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger.Init(logger.Options{
				Level:  cfg.Observability.Logging.Level,
				Format: cfg.Observability.Logging.Format,
			})
			return nil
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update database tables",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDataLayer(cmd.Context(), cfg, func(ctx context.Context, dl *wire.DataLayer) error {
					if err := dl.DB.Migrate(ctx); err != nil {
						return err
					}
					cmd.Println("migration completed")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "purge-sessions",
			Short: "Delete expired sessions",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDataLayer(cmd.Context(), cfg, func(ctx context.Context, dl *wire.DataLayer) error {
					n, err := dl.SessionRepo.DeleteExpired(ctx, time.Now())
					if err != nil {
						return err
					}
					cmd.Printf("deleted %d expired sessions\n", n)
					return nil
				})
			},
		},
		newRequeueCmd(&cfg),
		newSeedUserCmd(&cfg),
	)
	return root
}

func newRequeueCmd(cfg **config.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "requeue-mails",
		Short: "Publish pending or retryable outbound mails again",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			worker, cleanup, err := wire.InitializeWorker(ctx, *cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize worker: %w", err)
			}
			defer cleanup()

			n, err := worker.Deliverer.Requeue(ctx, limit)
			if err != nil {
				return err
			}
			cmd.Printf("requeued %d mails\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 500, "maximum number of mails to requeue")
	return cmd
}

// newSeedUserCmd 创建用户并签发会话令牌，便于在没有 Google 凭据时调试接口
func newSeedUserCmd(cfg **config.Config) *cobra.Command {
	var (
		email string
		name  string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "seed-user",
		Short: "Create a user and print a session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			c := *cfg
			return withDataLayer(cmd.Context(), c, func(ctx context.Context, dl *wire.DataLayer) error {
				token, err := utils.RandomToken(32)
				if err != nil {
					return err
				}

				var user *entity.User
				var session *entity.Session
				err = dl.TxManager.WithTransaction(ctx, func(ctx context.Context) error {
					user, err = dl.UserRepo.GetByEmail(ctx, email)
					if err != nil {
						return err
					}
					if user == nil {
						user = entity.NewUser(email, name, "")
						user.MarkEmailVerified(time.Now())
						if err := dl.UserRepo.Create(ctx, user); err != nil {
							return err
						}
					}
					session = entity.NewSession(token, user.ID, utils.ClientWeb, ttl)
					return dl.SessionRepo.Create(ctx, session)
				})
				if err != nil {
					return err
				}

				jwt := utils.NewJWTManager(c.Security.JWT.Secret, c.Security.JWT.Issuer)
				signed, err := jwt.IssueSessionToken(token, user.ID, user.Email, utils.ClientWeb, session.Expires)
				if err != nil {
					return err
				}
				cmd.Printf("user_id: %s\n", user.ID)
				cmd.Printf("expires: %s\n", session.Expires.Format(time.RFC3339))
				cmd.Printf("token:   %s\n", signed)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "session lifetime")
	return cmd
}

func withDataLayer(ctx context.Context, cfg *config.Config, fn func(context.Context, *wire.DataLayer) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	dl, cleanup, err := wire.InitializeDataLayer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize data layer: %w", err)
	}
	defer cleanup()
	return fn(ctx, dl)
}
