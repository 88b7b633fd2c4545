package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"
)

// SQLite implements Docs on a single documents table.
type SQLite struct{ db *sql.DB }

var _ Docs = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at the given path, applies
// recommended PRAGMAs, runs SQL migrations, and returns the store. Calling
// it on an already-migrated database is a no-op beyond opening.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single connection: SQLite is a single-writer engine and this also makes
	// database/sql transactions genuinely serial.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (s *SQLite) Close() error { return s.db.Close() }

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func decodeDoc(path, raw string) (Doc, error) {
	var d Doc
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return d, nil
}

func encodeDoc(path string, d Doc) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	return string(b), nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getDoc(ctx context.Context, q querier, path string) (Doc, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT data FROM documents WHERE path = ?`, path).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return decodeDoc(path, raw)
}

func setDoc(ctx context.Context, q querier, path string, doc Doc, merge bool) error {
	if merge {
		existing, err := getDoc(ctx, q, path)
		switch {
		case err == nil:
			for k, v := range doc {
				existing[k] = v
			}
			doc = existing
		case errors.Is(err, ErrNotFound):
			// merge into nothing is a plain write
		default:
			return err
		}
	}
	raw, err := encodeDoc(path, doc)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Unix()
	_, err = q.ExecContext(ctx, `
		INSERT INTO documents (path, data, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			data       = excluded.data,
			updated_at = excluded.updated_at`,
		path, raw, now, now,
	)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func listDocs(ctx context.Context, q querier, prefix string) ([]Entry, error) {
	// Range scan instead of LIKE so prefixes need no escaping.
	rows, err := q.QueryContext(ctx, `
		SELECT path, data FROM documents
		WHERE path >= ? AND path < ?
		ORDER BY path`,
		prefix, prefix+"\xff",
	)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var res []Entry
	for rows.Next() {
		var path, raw string
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, unavailable(err)
		}
		doc, err := decodeDoc(path, raw)
		if err != nil {
			return nil, err
		}
		res = append(res, Entry{Path: path, Doc: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return res, nil
}

func deleteDoc(ctx context.Context, q querier, path string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, path string) (Doc, error) {
	return getDoc(ctx, s.db, path)
}

func (s *SQLite) Set(ctx context.Context, path string, doc Doc, merge bool) error {
	if merge {
		// Merge needs read-then-write; do it atomically.
		return s.RunTransaction(ctx, func(tx Tx) error {
			return tx.Set(path, doc, true)
		})
	}
	return setDoc(ctx, s.db, path, doc, false)
}

func (s *SQLite) Delete(ctx context.Context, path string) error {
	return deleteDoc(ctx, s.db, path)
}

func (s *SQLite) List(ctx context.Context, prefix string) ([]Entry, error) {
	return listDocs(ctx, s.db, prefix)
}

// RunTransaction runs fn inside a database transaction. fn's error aborts
// the transaction; nothing is written in that case.
func (s *SQLite) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(err)
	}
	stx := &sqliteTx{ctx: ctx, tx: tx}
	if err := fn(stx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return unavailable(err)
	}
	return nil
}

type sqliteTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *sqliteTx) Get(path string) (Doc, error) {
	return getDoc(t.ctx, t.tx, path)
}

func (t *sqliteTx) Set(path string, doc Doc, merge bool) error {
	return setDoc(t.ctx, t.tx, path, doc, merge)
}

// Create fails with ErrExists when the path is taken. The read and insert
// share the transaction's connection, so concurrent creators serialize and
// exactly one wins.
func (t *sqliteTx) Create(path string, doc Doc) error {
	switch _, err := t.Get(path); {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrExists, path)
	case errors.Is(err, ErrNotFound):
	default:
		return err
	}
	return t.Set(path, doc, false)
}

func (t *sqliteTx) Delete(path string) error {
	return deleteDoc(t.ctx, t.tx, path)
}

func (t *sqliteTx) List(prefix string) ([]Entry, error) {
	return listDocs(t.ctx, t.tx, prefix)
}
