// Package db persists generated bundles and signing challenges in SQLite.
package db

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/Fantasim/hdada/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the sql.DB connection with the store's queries.
type DB struct {
	conn *sql.DB
	path string
}

// New opens the SQLite database at path in WAL mode with foreign keys on.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", path, config.DBBusyTimeout)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if config.DBWALMode {
		var mode string
		if err := conn.QueryRow("PRAGMA journal_mode=WAL").Scan(&mode); err != nil {
			conn.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
		slog.Debug("database journal mode", "path", path, "mode", mode)
	}

	return &DB{conn: conn, path: path}, nil
}

// Open is New followed by RunMigrations.
func Open(path string) (*DB, error) {
	d, err := New(path)
	if err != nil {
		return nil, err
	}
	if err := d.RunMigrations(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error {
	slog.Info("closing database", "path", d.path)
	return d.conn.Close()
}

// Conn returns the underlying connection.
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// RunMigrations applies the embedded migrations that have not run yet, each
// in its own transaction.
func (d *DB) RunMigrations() error {
	if _, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	files, err := migrationFiles()
	if err != nil {
		return err
	}

	applied := 0
	for _, name := range files {
		var version int
		if _, err := fmt.Sscanf(name, "%d", &version); err != nil {
			slog.Warn("skipping migration with unparseable version", "file", name)
			continue
		}

		var exists bool
		if err := d.conn.QueryRow(
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", version,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %d: %w", version, err)
		}
		if exists {
			continue
		}

		if err := d.applyMigration(version, name); err != nil {
			return err
		}
		applied++
	}

	slog.Debug("migrations checked", "files", len(files), "applied", applied)
	return nil
}

func (d *DB) applyMigration(version int, name string) error {
	content, err := migrationsFS.ReadFile("migrations/" + name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("execute migration %s: %w", name, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("record migration %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", version, err)
	}

	slog.Info("migration applied", "version", version, "file", name)
	return nil
}

func migrationFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
