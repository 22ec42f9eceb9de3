package migration

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/elskow/fintrack/internal/config"
	"github.com/elskow/fintrack/internal/database"
)

type Migrator struct {
	db     *sql.DB
	config *config.DatabaseConfig
}

func NewMigrator(config *config.DatabaseConfig) (*Migrator, error) {
	db, err := sql.Open("postgres", database.DSN(config))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Migrator{
		db:     db,
		config: config,
	}, nil
}

// prepare selects the postgres dialect and resolves the migrations directory.
func (m *Migrator) prepare() (string, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return "", fmt.Errorf("failed to set dialect: %w", err)
	}

	migrationsDir, err := getMigrationsDir()
	if err != nil {
		return "", fmt.Errorf("failed to get migrations directory: %w", err)
	}
	return migrationsDir, nil
}

func (m *Migrator) Up() error {
	migrationsDir, err := m.prepare()
	if err != nil {
		return err
	}

	if err := goose.Up(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (m *Migrator) Down() error {
	migrationsDir, err := m.prepare()
	if err != nil {
		return err
	}

	if err := goose.Down(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	return nil
}

func (m *Migrator) Close() error {
	return m.db.Close()
}

// GetCurrentVersion returns the current migration version
func (m *Migrator) GetCurrentVersion() (int64, error) {
	return goose.GetDBVersion(m.db)
}

// GetLatestVersion returns the latest available migration version
func (m *Migrator) GetLatestVersion() (int64, error) {
	migrationsDir, err := getMigrationsDir()
	if err != nil {
		return 0, err
	}

	migrations, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	if err != nil {
		return 0, err
	}

	if len(migrations) == 0 {
		return 0, nil
	}

	return migrations[len(migrations)-1].Version, nil
}

// DownTo migrates the database down to a specific version
func (m *Migrator) DownTo(version int64) error {
	migrationsDir, err := m.prepare()
	if err != nil {
		return err
	}

	if err := goose.DownTo(m.db, migrationsDir, version); err != nil {
		return fmt.Errorf("failed to migrate down to version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Status() error {
	migrationsDir, err := m.prepare()
	if err != nil {
		return err
	}

	if err := goose.Status(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

// Sync moves the schema to the newest migration on disk, stepping down when
// the database is ahead of this build. It reports the versions it moved
// between.
func (m *Migrator) Sync() (from, to int64, err error) {
	from, err = m.GetCurrentVersion()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get current migration version: %w", err)
	}

	to, err = m.GetLatestVersion()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get latest migration version: %w", err)
	}

	switch {
	case from > to:
		err = m.DownTo(to)
	case from < to:
		err = m.Up()
	}
	return from, to, err
}

func (m *Migrator) Version() (int64, error) {
	return goose.GetDBVersion(m.db)
}

func (m *Migrator) Reset() error {
	if err := m.Down(); err != nil {
		return err
	}
	return m.Up()
}
