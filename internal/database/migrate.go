package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrate applies the embedded migrations.  A zero target migrates to the
// newest version; otherwise the schema is moved up or down to target.
func Migrate(ctx context.Context, db *sql.DB, target int64, log logrus.FieldLogger) error {
	migrationsFS, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations filesystem: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectMySQL, db, migrationsFS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}

	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	log.WithField("version", current).Info("current schema version")

	var results []*goose.MigrationResult
	switch {
	case target == 0:
		results, err = provider.Up(ctx)
	case target < current:
		results, err = provider.DownTo(ctx, target)
	case target > current:
		results, err = provider.UpTo(ctx, target)
	default:
		log.Info("schema already at target version")
		return nil
	}
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	for _, r := range results {
		log.WithFields(logrus.Fields{
			"version":  r.Source.Version,
			"duration": r.Duration,
		}).Info("migration applied")
	}
	return nil
}
