package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/correspondence-management/internal/app"
	"github.com/frahmantamala/correspondence-management/internal/auth"
	"github.com/frahmantamala/correspondence-management/internal/core/database"
	coreuser "github.com/frahmantamala/correspondence-management/internal/core/user"
	"github.com/frahmantamala/correspondence-management/internal/user"
	"github.com/frahmantamala/correspondence-management/pkg/logger"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the permission catalog, default roles and the bootstrap admin",
	Long:  `Seed permission groups, permissions and default roles, then create the bootstrap admin account when it does not exist. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger.Init(cfg.Env, cfg.Logging.Level)
		log := logger.LoggerWrapper()

		handles, err := database.Open(cfg.Database, log)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		application := app.New(cfg, handles, log)
		defer application.Close()

		return seed(cmd.Context(), application)
	},
}

var seedActor = &coreuser.Principal{Username: "seed", LegacyRole: coreuser.LegacyRoleAdmin, IsActive: true}

func seed(ctx context.Context, a *app.App) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := a.Logger

	if err := a.Services.Access.SeedCatalog(ctx); err != nil {
		return fmt.Errorf("failed to seed permission catalog: %w", err)
	}

	bootstrap := a.Config.Bootstrap
	if bootstrap.AdminPassword == "" {
		log.Warn("bootstrap.admin_password is empty; skipping admin account")
		return nil
	}

	roles, err := a.Services.Access.Roles(ctx)
	if err != nil {
		return err
	}
	var adminRoleID *int64
	for _, r := range roles {
		if r.Name == auth.RoleAdmin {
			id := r.ID
			adminRoleID = &id
			break
		}
	}

	created, err := a.Services.User.Create(ctx, seedActor, user.CreateUserDTO{
		Username: bootstrap.AdminUsername,
		Email:    bootstrap.AdminEmail,
		Password: bootstrap.AdminPassword,
		FullName: "Administrator",
		Role:     coreuser.LegacyRoleAdmin,
		RoleID:   adminRoleID,
	})
	switch {
	case errors.Is(err, user.ErrUsernameTaken), errors.Is(err, user.ErrEmailTaken):
		log.Info("bootstrap admin already exists", "username", bootstrap.AdminUsername)
		return nil
	case err != nil:
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	log.Info("bootstrap admin created", "user_id", created.ID, "username", created.Username)
	return nil
}
