// seed prepares a Postgres database for the ticket service: it applies
// migrations, upserts the category catalogue and makes sure an admin
// account exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/facility-tickets/internal/config"
	"github.com/spec-kit/facility-tickets/internal/domain"
	"github.com/spec-kit/facility-tickets/internal/observability"
	"github.com/spec-kit/facility-tickets/internal/persistence"
	"github.com/spec-kit/facility-tickets/internal/repository"
	"github.com/spec-kit/facility-tickets/internal/seed"
	"github.com/spec-kit/facility-tickets/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var categoriesPath string
	var skipMigrations bool
	admin := cfg.Bootstrap

	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVarP(&categoriesPath, "categories", "c", "", "YAML file with categories (default: built-in catalogue)")
	flagSet.BoolVar(&skipMigrations, "skip-migrations", false, "do not apply schema migrations first")
	flagSet.StringVar(&admin.AdminName, "admin-name", admin.AdminName, "display name of the bootstrap admin")
	flagSet.StringVar(&admin.AdminEmail, "admin-email", admin.AdminEmail, "email of the bootstrap admin (empty skips it)")
	flagSet.StringVar(&admin.AdminPassword, "admin-password", admin.AdminPassword, "password of the bootstrap admin")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if cfg.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN is required for seeding")
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if !skipMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	pool := pg.PoolHandle()

	categories := service.DefaultCategories
	if categoriesPath != "" {
		if categories, err = seed.LoadCategoriesFile(categoriesPath); err != nil {
			return err
		}
	}
	written, err := service.NewCategoryService(repository.NewCategoryRepository(pool)).Seed(ctx, categories)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	logger.Info("categories seeded", zap.Int("count", written))

	if admin.AdminEmail == "" {
		return nil
	}
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   repository.NewUserRepository(pool),
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	user, created, err := authService.EnsureAdmin(ctx, admin.AdminName, admin.AdminEmail, admin.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	logger.Info("admin ready",
		zap.String("user_id", user.ID),
		zap.String("role", domain.RoleAdmin.String()),
		zap.Bool("created", created),
	)
	return nil
}
