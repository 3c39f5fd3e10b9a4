// Package migration brings the archive schema up to date at startup.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id            TEXT    PRIMARY KEY,
  filename      TEXT    NOT NULL UNIQUE,
  generated_at  TEXT    NOT NULL,
  nome          TEXT    NOT NULL DEFAULT '',
  cognome       TEXT    NOT NULL DEFAULT '',
  email         TEXT    NOT NULL DEFAULT '',
  telefono      TEXT    NOT NULL DEFAULT '',
  data_nascita  TEXT    NOT NULL DEFAULT '',
  luogo_nascita TEXT    NOT NULL DEFAULT '',
  codice_fiscale TEXT   NOT NULL DEFAULT '',
  indirizzo     TEXT    NOT NULL DEFAULT '',
  citta         TEXT    NOT NULL DEFAULT '',
  cap           TEXT    NOT NULL DEFAULT '',
  provincia     TEXT    NOT NULL DEFAULT '',
  size          INTEGER NOT NULL CHECK (size >= 0),
  content_type  TEXT    NOT NULL DEFAULT 'application/pdf',
  tags          TEXT    NOT NULL DEFAULT '[]'
);`,
	},
	{
		Name: "create_index_documents_generated_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_generated_at ON documents (generated_at);`,
	},
	{
		Name: "create_index_documents_cognome",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_cognome ON documents (cognome COLLATE NOCASE);`,
	},
	{
		Name: "create_index_documents_email",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_email ON documents (email COLLATE NOCASE);`,
	},
}

// EnsureMigrated checks whether the documents table exists and runs the
// schema steps if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	start := time.Now()

	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'documents'`,
	).Scan(&name)
	switch {
	case err == nil:
		log.Info("schema already exists, skipping migration",
			zap.Duration("elapsed", time.Since(start)))
		return nil
	case err != sql.ErrNoRows:
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("migration step failed",
				zap.String("step", step.Name), zap.Error(err))
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info("migration step applied",
			zap.String("step", step.Name),
			zap.Duration("elapsed", time.Since(stepStart)))
	}

	log.Info("schema migrated", zap.Duration("elapsed", time.Since(start)))
	return nil
}
