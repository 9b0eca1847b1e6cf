package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/teerev/promptkit/internal/errors"
)

// Migration is one versioned schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// MigrationVersion is a row of schema_version.
type MigrationVersion struct {
	Version   int
	AppliedAt time.Time
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial runs ledger",
		SQL: `
CREATE TABLE IF NOT EXISTS runs (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    template TEXT NOT NULL,
    packet_dir TEXT NOT NULL,
    prompt_hash TEXT NOT NULL,
    params_hash TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`,
	},
	{
		Version:     2,
		Description: "Add preset column and template index",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_runs_template ON runs(template);
`,
	},
}

// ApplyMigrations applies every pending migration in one transaction.
func (s *Store) ApplyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return errors.Wrap(err, "begin migration transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`); err != nil {
		return errors.Wrap(err, "ensure schema_version table")
	}

	applied := make(map[int]bool)
	rows, err := tx.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return errors.Wrap(err, "query schema versions")
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan version")
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if m.Version == 2 {
			if err := addColumnIfNotExists(ctx, tx, "runs", "preset", "TEXT NOT NULL DEFAULT ''"); err != nil {
				return errors.Wrapf(err, "apply migration %d (%s)", m.Version, m.Description)
			}
		}
		if m.SQL != "" {
			if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
				return errors.Wrapf(err, "apply migration %d (%s)", m.Version, m.Description)
			}
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, m.Version); err != nil {
			return errors.Wrapf(err, "record migration %d", m.Version)
		}
	}

	return errors.Wrap(tx.Commit(), "commit migrations")
}

// LatestVersion returns the highest applied migration version, 0 if none.
func (s *Store) LatestVersion(ctx context.Context) (int, error) {
	var v sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, errors.Wrap(err, "query latest version")
	}
	return int(v.Int64), nil
}

func addColumnIfNotExists(ctx context.Context, tx *sql.Tx, table, column, definition string) error {
	rows, err := tx.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return errors.Wrapf(err, "inspect table %s", table)
	}
	exists := false
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan column")
		}
		if name == column {
			exists = true
		}
	}
	rows.Close()
	if exists {
		return nil
	}
	_, err = tx.ExecContext(ctx, "ALTER TABLE "+table+" ADD COLUMN "+column+" "+definition)
	return errors.Wrapf(err, "add column %s.%s", table, column)
}
