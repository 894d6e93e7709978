// Package migrate applies the SQL files under the migrations directory on startup.
package migrate

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate"
	_ "github.com/golang-migrate/migrate/database/postgres"
	_ "github.com/golang-migrate/migrate/source/file"

	"salesnotifier/pkg/logger"
)

// Up migrates the database at dsn to the latest version found in dir.
func Up(dir, dsn string, log logger.Logger) error {
	const op = "migrate.Up"

	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return fmt.Errorf("%s: init: %w", op, err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			log.Errorw("migrate close failed", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err = m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("schema is up to date")
			return nil
		}
		return fmt.Errorf("%s: up: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("%s: version: %w", op, err)
	}
	log.Infow("schema migrated", "version", version, "dirty", dirty)

	return nil
}
