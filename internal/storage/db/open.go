// Package db contains the SQL database access code and utilities used by the
// storage package. Both SQLite (embedded, the default) and PostgreSQL are
// supported; each has its own migration set.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres sql.DB driver initialization
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite" // sqlite sql.DB driver initialization
)

// Driver identifies the SQL dialect backing the store.
type Driver string

// Supported drivers.
const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

var registerHook sync.Once

// Open initializes a DB connection for driver. For SQLite, dsn is a file path;
// if the database file does not exist, it attempts to create it. For
// PostgreSQL, dsn is a connection URL. Either way, the database is then
// migrated to match the current state expected of the system.
func Open(ctx context.Context, logger *slog.Logger, driver Driver, dsn string) (*sql.DB, error) {
	var (
		handle  *sql.DB
		dialect goose.Dialect
		err     error
	)
	switch driver {
	case DriverSQLite:
		handle, err = openSQLite(ctx, dsn)
		dialect = goose.DialectSQLite3
	case DriverPostgres:
		handle, err = openPostgres(ctx, dsn)
		dialect = goose.DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err = migrate(ctx, logger, handle, driver, dialect); err != nil {
		_ = handle.Close()
		return nil, err
	}
	return handle, nil
}

func openSQLite(ctx context.Context, dbPath string) (*sql.DB, error) {
	if dbPath == ":memory:" { //nolint:revive // for documentation
		// noop
	} else if _, err := os.Stat(dbPath); err != nil {
		const userOnlyDirPerms = 0o700
		if err = os.MkdirAll(filepath.Dir(dbPath), userOnlyDirPerms); err != nil {
			return nil, fmt.Errorf("failed to create db parent directory: %w", err)
		}
	}

	if strings.ContainsRune(dbPath, '?') {
		dbPath += "&"
	} else {
		dbPath += "?"
	}
	dbPath += "_time_format=sqlite"

	registerHook.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, _ string) error {
			const initSQL = `
			pragma journal_mode = WAL; -- allow concurrent writes
			pragma synchronous = normal; -- don't wait for fsync except on checkpointing
			pragma temp_store = memory; -- temporary indices
			pragma foreign_keys = on;
			pragma busy_timeout = 5000; -- wait on other handles to the same file
			`
			_, err := conn.ExecContext(context.Background(), initSQL, nil)
			return err
		})
	})

	handle, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create DB handler: %w", err)
	} else if err = handle.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	handle.SetMaxOpenConns(1)
	return handle, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	handle, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create DB handler: %w", err)
	} else if err = handle.PingContext(ctx); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return handle, nil
}

func migrate(
	ctx context.Context,
	logger *slog.Logger,
	handle *sql.DB,
	driver Driver,
	dialect goose.Dialect,
) error {
	fsys, err := fs.Sub(migrations, "migrations/"+string(driver))
	if err != nil {
		return fmt.Errorf("failed to resolve %s migrations: %w", driver, err)
	}

	logger = logger.With(slog.String("driver", string(driver)))
	provider, err := goose.NewProvider(dialect, handle, fsys,
		goose.WithLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug)),
		goose.WithVerbose(true),
	)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err = provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to migrate DB: %w", err)
	}
	return nil
}
