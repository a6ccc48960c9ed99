package db

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"taskmanager/internal/logging"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration applies every pending migration in path to database.
func Migration(uri, database, path string) error {
	m, err := newMigrator(uri, database, path)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logging.Info().Msg("migrations already applied")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	logging.Info().Msg("migrations applied")
	return nil
}

// Rollback reverts steps migrations, or all of them when steps <= 0.
func Rollback(uri, database, path string, steps int) error {
	m, err := newMigrator(uri, database, path)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if steps > 0 {
		err = m.Steps(-steps)
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	logging.Info().Int("steps", steps).Msg("migrations rolled back")
	return nil
}

func newMigrator(uri, database, path string) (*migrate.Migrate, error) {
	if path == "" {
		return nil, errors.New("migrations path is empty")
	}
	dsn, err := MigrationURL(uri, database)
	if err != nil {
		return nil, err
	}
	m, err := migrate.New("file://"+path, dsn)
	if err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		logging.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("closing migrator")
	}
}

// MigrationURL puts database into the path of uri, where the mongodb
// migrate driver expects it. A database already named in uri is kept.
func MigrationURL(uri, database string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse mongo uri: %w", err)
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return "", fmt.Errorf("unsupported mongo uri scheme %q", u.Scheme)
	}
	if strings.Trim(u.Path, "/") == "" {
		if database == "" {
			return "", errors.New("mongo database name is empty")
		}
		u.Path = "/" + database
	}
	return u.String(), nil
}
