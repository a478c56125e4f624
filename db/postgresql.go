package db

import (
	"context"
	"database/sql"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// InitDB opens the Postgres pool and checks it is reachable.
func InitDB(ctx context.Context, dataSourceName string, log *slog.Logger) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	// Configure database connection pool settings
	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(10)

	log.Info("database connection initialized")
	return conn, nil
}
