package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrator wraps goose migration application against the outcome store's
// sqlite database, following the same "wrap goose, log each step" shape as
// the teacher's api/internal/app/migrate package.
type migrator struct {
	db  *sql.DB
	log *slog.Logger
}

func newMigrator(db *sql.DB, log *slog.Logger) migrator {
	if log == nil {
		log = slog.Default()
	}
	return migrator{db: db, log: log}
}

func (m migrator) ensure(ctx context.Context) error {
	goose.SetBaseFS(migrationFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	m.log.Info("applying outcome store migrations")
	if err := goose.UpContext(runCtx, m.db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	m.log.Info("outcome store migrations applied")
	return nil
}
