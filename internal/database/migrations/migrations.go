package migrations

import (
	"errors"
	"fmt"
	"os"

	"shaadibiyah/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/uptrace/bun"
)

// Options controls how marketplace migrations run at startup.
type Options struct {
	// Dir is the directory containing the versioned SQL files
	Dir string
	// SeedData runs the sample-data migrations after the schema ones.
	// Schema files are numbered before seed files, so skipping seeds
	// means stopping at the schema version.
	SeedData bool
}

// DefaultOptions applies the schema but never seeds. Seeding is for
// development databases only.
func DefaultOptions() Options {
	return Options{
		Dir:      "./migrations",
		SeedData: false,
	}
}

// Runner applies versioned SQL migrations to the marketplace database.
type Runner struct {
	bunDB    *bun.DB
	options  Options
	log      *logger.Logger
	migrator *migrate.Migrate
}

func NewRunner(bunDB *bun.DB, opts Options, log *logger.Logger) *Runner {
	return &Runner{
		bunDB:   bunDB,
		options: opts,
		log:     log,
	}
}

func (r *Runner) init() error {
	driver, err := postgres.WithInstance(r.bunDB.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	if _, err := os.Stat(r.options.Dir); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory does not exist: %s", r.options.Dir)
	}

	migrator, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", r.options.Dir),
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	r.migrator = migrator
	return nil
}

// Run brings the database up to date. With SeedData it runs everything;
// without it, only the schema files, fixing a dirty version if one is left
// over from a crashed deploy.
func (r *Runner) Run() error {
	if r.migrator == nil {
		if err := r.init(); err != nil {
			return err
		}
	}

	if r.options.SeedData {
		r.log.Info("MIGRATION", "Applying schema and seed migrations")
		if err := r.migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	} else {
		r.log.Info("MIGRATION", "Applying schema migrations")
		version, dirty, err := r.migrator.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("failed to get migration version: %w", err)
		}

		if errors.Is(err, migrate.ErrNilVersion) || version == 0 {
			if err := r.migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("failed to run schema migration: %w", err)
			}
		} else if dirty {
			r.log.Warn("MIGRATION", fmt.Sprintf("Dirty migration at version %d, forcing clean", version))
			if err := r.migrator.Force(int(version)); err != nil {
				return fmt.Errorf("failed to fix dirty migration: %w", err)
			}
		}
	}

	version, _, err := r.migrator.Version()
	if err == nil {
		r.log.Info("MIGRATION", fmt.Sprintf("Schema at version %d", version))
	} else if !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	return nil
}

// Down rolls back every migration. Used by ops tooling, never at startup.
func (r *Runner) Down() error {
	if r.migrator == nil {
		if err := r.init(); err != nil {
			return err
		}
	}

	if err := r.migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// Close frees the migrator's source and database handles.
func (r *Runner) Close() error {
	if r.migrator != nil {
		sourceErr, databaseErr := r.migrator.Close()
		if sourceErr != nil {
			return fmt.Errorf("error closing migrator source: %w", sourceErr)
		}
		if databaseErr != nil {
			return fmt.Errorf("error closing migrator database: %w", databaseErr)
		}
	}
	return nil
}
