package db

import (
	"context"
	"database/sql"
	"embed"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// Migrate brings the schema up to date using the SQL files embedded in the binary.
func Migrate(ctx context.Context, conn *sql.DB, log *slog.Logger) error {
	goose.SetBaseFS(schemaFS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "failed to set dialect")
	}

	if err := goose.UpContext(ctx, conn, "migrations"); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}

	log.Info("database schema is up to date")
	return nil
}
