package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/mattn/go-sqlite3"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/florinivan/asdallinkickboxing/internal/config"
)

var sqlOpen = sql.Open

// BuildSqliteDSN constructs a DSN for the archive database: the file path
// plus pragmas for concurrent access from the HTTP handlers.
// Example: file:data/documents.db?_busy_timeout=5000&_journal_mode=WAL
func BuildSqliteDSN(c config.DatabaseConfig) (string, error) {
	if c.Path == "" {
		return "", fmt.Errorf("invalid database config: path is required")
	}

	q := url.Values{}
	q.Set("_busy_timeout", "5000")
	q.Set("_journal_mode", "WAL")
	q.Set("_foreign_keys", "on")

	return "file:" + c.Path + "?" + q.Encode(), nil
}

// NewSqlite opens the archive database, creating its directory as needed,
// and applies pooling settings.
func NewSqlite(c config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := BuildSqliteDSN(c)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(c.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	// Register the otelsql driver wrapper
	driverName, err := otelsql.Register("sqlite3",
		otelsql.WithAttributes(semconv.DBSystemSqlite),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	// SQLite serializes writers; keep the pool small.
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}

	// Verify connectivity with a short timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}
