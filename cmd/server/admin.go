package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"yatube-backend/internal/config"
	"yatube-backend/internal/data"
	"yatube-backend/internal/service"
)

var (
	groupTitle       string
	groupSlug        string
	groupDescription string
	userPassword     string
	userStaff        bool
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage post groups",
}

var groupAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a group and invalidate the cached group list",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(ctx context.Context, services *service.Registry, log *zap.Logger) error {
			group, err := services.Group.Create(ctx, groupTitle, groupSlug, groupDescription)
			if err != nil {
				return err
			}
			log.Info("group created", zap.Int64("groupId", group.ID), zap.String("slug", group.Slug))
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", group.ID, group.Slug)
			return nil
		})
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create an account, optionally with staff rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(ctx context.Context, services *service.Registry, log *zap.Logger) error {
			user, err := services.User.Create(ctx, args[0], userPassword, userStaff)
			if err != nil {
				return err
			}
			log.Info("user created", zap.Int64("userId", user.ID), zap.Bool("staff", user.IsStaff))
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", user.ID, user.Username)
			return nil
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <username>",
	Short: "Print an access/refresh token pair for an existing user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(ctx context.Context, services *service.Registry, _ *zap.Logger) error {
			user, err := services.User.FindByUsername(ctx, args[0])
			if err != nil {
				return fmt.Errorf("find %s: %w", args[0], err)
			}
			pair, err := services.Token.IssuePair(user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "access:  %s\nrefresh: %s\n", pair.Access, pair.Refresh)
			return nil
		})
	},
}

func init() {
	groupAddCmd.Flags().StringVar(&groupTitle, "title", "", "group title")
	groupAddCmd.Flags().StringVar(&groupSlug, "slug", "", "unique slug")
	groupAddCmd.Flags().StringVar(&groupDescription, "description", "", "group description")
	_ = groupAddCmd.MarkFlagRequired("title")
	_ = groupAddCmd.MarkFlagRequired("slug")
	groupCmd.AddCommand(groupAddCmd)

	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "account password")
	userCreateCmd.Flags().BoolVar(&userStaff, "staff", false, "grant staff rights")
	_ = userCreateCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userCreateCmd)
}

// withServices opens the stores the admin commands need, without kafka.
func withServices(ctx context.Context, fn func(context.Context, *service.Registry, *zap.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()
	db, err := data.NewMySQL(cfg.MySQL, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	rdb := data.NewRedis(cfg.Redis)
	defer rdb.Close()
	return fn(ctx, adminRegistry(db, rdb, cfg, log), log)
}

func adminRegistry(db *gorm.DB, rdb *redis.Client, cfg *config.Config, log *zap.Logger) *service.Registry {
	return service.NewRegistry(service.Deps{
		DB:    db,
		Redis: rdb,
		JWT:   cfg.JWT,
		App:   cfg.App,
		Log:   log,
	})
}

// redactDSN keeps only the address part of a MySQL DSN for logging.
func redactDSN(dsn string) string {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		if i := strings.LastIndex(dsn, "@"); i >= 0 {
			return dsn[i+1:]
		}
		return ""
	}
	return parsed.Net + "(" + parsed.Addr + ")/" + parsed.DBName
}
