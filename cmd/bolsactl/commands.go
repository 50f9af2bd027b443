package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bolsafeucn/database"
	"bolsafeucn/internal/app"
	"bolsafeucn/internal/config"
	"bolsafeucn/internal/logger"
	"bolsafeucn/internal/services"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	infoColor = color.New(color.FgCyan)
)

type env struct {
	cfg *config.Config
	db  *gorm.DB
	sc  *services.ServiceContainer
}

func loadConfig(path string) (*config.Config, error) {
	_ = godotenv.Load()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Server.Env)
	return cfg, nil
}

// openEnv - конфиг, БД и сервисы без websocket и метрик
func openEnv(path string) (*env, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	emailProvider, err := app.NewEmailProvider(cfg)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg: cfg,
		db:  db,
		sc:  services.NewServiceContainer(services.PolicyFromConfig(cfg), emailProvider, nil, nil),
	}, nil
}

func (e *env) close() {
	e.sc.NotificationService.Wait()
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			// SQL-миграции написаны под Postgres, остальные драйверы идут через AutoMigrate
			if cfg.Database.Driver != "postgres" {
				db, err := database.Open(cfg)
				if err != nil {
					return err
				}
				if err := database.AutoMigrate(db); err != nil {
					return err
				}
				okColor.Printf("✓ auto-migrated schema (%s)\n", cfg.Database.Driver)
				return nil
			}

			if err := database.MigrateUp(cfg.Database.DSN); err != nil {
				return err
			}
			okColor.Println("✓ migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				return fmt.Errorf("migrate down is only supported for postgres, got %q", cfg.Database.Driver)
			}
			if steps <= 0 {
				return errors.New("--steps must be positive")
			}

			if err := database.MigrateDown(cfg.Database.DSN, steps); err != nil {
				return err
			}
			okColor.Printf("✓ rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func seedAdminCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the first admin from FIRST_ADMIN_EMAIL / FIRST_ADMIN_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.close()

			if e.cfg.FirstAdminEmail == "" || e.cfg.FirstAdminPassword == "" {
				warnColor.Println("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set, nothing to do")
				return nil
			}
			if err := app.SeedFirstAdmin(cmd.Context(), e.db, e.cfg, e.sc.AuthService); err != nil {
				return err
			}
			okColor.Printf("✓ admin %s is present\n", e.cfg.FirstAdminEmail)
			return nil
		},
	}
}

func closeExpiredCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "close-expired",
		Short: "Close published offers whose end date has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			worker := app.NewPublicationWorker(e.db, e.cfg, e.sc, nil)
			closed, err := worker.CloseExpired(ctx)
			if err != nil {
				return err
			}

			if closed == 0 {
				infoColor.Println("no expired offers")
				return nil
			}
			okColor.Printf("✓ closed %d expired offer(s)\n", closed)
			return nil
		},
	}
}

func pendingReviewsCmd(configPath *string) *cobra.Command {
	var userID uint

	cmd := &cobra.Command{
		Use:   "pending-reviews",
		Short: "Show how many reviews a user still owes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 {
				return errors.New("--user is required")
			}

			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.close()

			status, err := e.sc.ReviewService.GetPendingStatus(cmd.Context(), e.db, userID)
			if err != nil {
				return err
			}

			fmt.Printf("user %d: %s pending review(s), threshold %d\n",
				userID, infoColor.Sprint(status.Count), status.Threshold)
			if status.Blocked {
				warnColor.Println("⚠ blocked: cannot publish or apply until reviews are completed")
			} else {
				okColor.Println("✓ not blocked")
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "user id")
	return cmd
}
