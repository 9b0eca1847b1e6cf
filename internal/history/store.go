// Package history keeps a SQLite ledger of emitted run packets so that
// "pk runs" can list what was rendered, when, and with which hashes.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/teerev/promptkit/internal/errors"
	"github.com/teerev/promptkit/internal/models"
)

// DefaultDBPath returns the ledger location for a run directory.
func DefaultDBPath(runDir string) string {
	return filepath.Join(runDir, ".pk", "history.db")
}

// Store is the run ledger.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Filter narrows List results. Zero values mean no constraint.
type Filter struct {
	Template string
	Limit    int
}

// NewStore opens (creating if needed) the ledger at dbPath and applies
// pending migrations. ":memory:" opens a throwaway database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "set %s", pragma)
		}
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "apply migrations")
	}
	return s, nil
}

// execWithRetry retries statements that fail with "database is locked",
// backing off exponentially.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts a run. A missing ID is generated and a zero CreatedAt is
// set to now; the stored record is returned.
func (s *Store) Record(ctx context.Context, rec models.RunRecord) (models.RunRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	query := `INSERT INTO runs (id, template, preset, packet_dir, prompt_hash, params_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Template, rec.Preset, rec.PacketDir,
		rec.PromptHash, rec.ParamsHash, rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return rec, errors.Wrap(err, "insert run")
	}
	return rec, nil
}

// List returns recorded runs, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.RunRecord, error) {
	query := `SELECT id, template, preset, packet_dir, prompt_hash, params_hash, created_at FROM runs`
	var args []any
	if f.Template != "" {
		query += ` WHERE template = ?`
		args = append(args, f.Template)
	}
	query += ` ORDER BY created_at DESC, seq DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var records []models.RunRecord
	for rows.Next() {
		var rec models.RunRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.Template, &rec.Preset, &rec.PacketDir,
			&rec.PromptHash, &rec.ParamsHash, &created); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, errors.Wrapf(err, "parse created_at of run %s", rec.ID)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate runs")
	}
	return records, nil
}

// Count returns the number of recorded runs matching f. f.Limit is ignored.
func (s *Store) Count(ctx context.Context, f Filter) (int, error) {
	query := `SELECT COUNT(*) FROM runs`
	var args []any
	if f.Template != "" {
		query += ` WHERE template = ?`
		args = append(args, f.Template)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count runs")
	}
	return n, nil
}
