package database

import (
	"embed"
	"errors"
	"fmt"

	"bolsafeucn/internal/models"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Models - все таблицы приложения, в порядке зависимостей.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.StudentProfile{},
		&models.CompanyProfile{},
		&models.IndividualProfile{},
		&models.AdminProfile{},
		&models.Publication{},
		&models.Offer{},
		&models.BuySell{},
		&models.JobApplication{},
		&models.Review{},
		&models.Notification{},
	}
}

// AutoMigrate выполняет миграцию всех моделей через GORM.
// Используется для SQLite/MySQL и в тестах.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}
	return nil
}

func newMigrator(dsn string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("cannot open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot create a new migrate instance: %w", err)
	}
	return m, nil
}

// MigrateUp применяет SQL-миграции (Postgres).
func MigrateUp(dsn string) error {
	m, err := newMigrator(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrate up: %w", err)
	}
	return nil
}

// MigrateDown откатывает steps миграций.
func MigrateDown(dsn string, steps int) error {
	m, err := newMigrator(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrate down: %w", err)
	}
	return nil
}
