package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fastygo/planner/internal/config"
)

// Direction selects which way migrations run.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// RunMigrations applies pending migrations when enabled in configuration.
func RunMigrations(cfg *config.Config, logger *zap.Logger) error {
	if cfg == nil || !cfg.Migrations.Enabled {
		return nil
	}
	return Migrate(cfg, Up, 0, logger)
}

// Migrate moves the schema in the given direction. steps <= 0 applies every migration
// (up) or rolls back exactly one (down).
func Migrate(cfg *config.Config, direction Direction, steps int, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return err
	}

	sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(cfg.Migrations.Path))
	m, err := migrate.NewWithDatabaseInstance(sourceURL, cfg.Database.Name, driver)
	if err != nil {
		return err
	}
	defer m.Close()

	switch direction {
	case Up:
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case Down:
		if steps <= 0 {
			steps = 1
		}
		err = m.Steps(-steps)
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return verr
	}
	logger.Info("database migrations applied",
		zap.String("direction", string(direction)),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}
