package internal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// RunMigrations brings the schema up to the newest embedded migration and
// logs the resulting version.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(slogGoose{logger.With("component", "migrations")})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info("Schema up to date", "version", version)
	return nil
}

// slogGoose adapts slog to goose.Logger.
type slogGoose struct{ *slog.Logger }

func (l slogGoose) Printf(format string, v ...interface{}) {
	l.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l slogGoose) Fatalf(format string, v ...interface{}) {
	l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
