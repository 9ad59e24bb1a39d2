// Package migrations applies the embedded PostgreSQL schema with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Migrator applies schema migrations.
type Migrator struct {
	migrate *migrate.Migrate
	logger  *slog.Logger
}

// New creates a Migrator for a postgres:// or postgresql:// URL.
func New(databaseURL string, logger *slog.Logger) (*Migrator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	source, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, driverURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return &Migrator{migrate: m, logger: logger}, nil
}

// driverURL rewrites the scheme so the pgx/v5 migrate driver handles the URL.
func driverURL(databaseURL string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if rest, ok := strings.CutPrefix(databaseURL, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// Up applies all pending migrations. A dirty schema is forced back to its
// recorded version before retrying.
func (m *Migrator) Up() error {
	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if dirty {
		m.logger.Warn("schema is dirty, forcing recorded version", "version", version)
		if err := m.migrate.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version %d: %w", version, err)
		}
	}

	if err := m.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("schema up to date", "version", version)
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	newVersion, _, _ := m.migrate.Version()
	m.logger.Info("schema migrated", "version", newVersion)
	return nil
}

// Down rolls back every migration.
func (m *Migrator) Down() error {
	if err := m.migrate.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close migration database: %w", dbErr)
	}
	return nil
}

// Run applies all pending migrations and closes the migrator.
func Run(databaseURL string, logger *slog.Logger) error {
	m, err := New(databaseURL, logger)
	if err != nil {
		return err
	}
	upErr := m.Up()
	closeErr := m.Close()
	return errors.Join(upErr, closeErr)
}
