package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tally-cli/internal/model"

	_ "modernc.org/sqlite"
)

// SQLite stores one namespace's records in a local sqlite file. Several
// namespaces can share a file.
type SQLite struct {
	db  *sql.DB
	ns  string
	now func() time.Time
}

func OpenSQLite(ctx context.Context, path, namespace string) (*SQLite, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL: one writer + many readers, so a CLI call can run next to the TUI.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, ns: namespace, now: time.Now}, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS todos (
			namespace TEXT NOT NULL,
			id TEXT NOT NULL,
			ord INTEGER NOT NULL,
			title TEXT NOT NULL,
			completed INTEGER NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY (namespace, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_todos_ns_ord ON todos(namespace, ord);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

func (s *SQLite) LoadAll(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, json FROM todos WHERE namespace = ? ORDER BY ord, id`, s.ns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		var id, js string
		if err := rows.Scan(&id, &js); err != nil {
			return nil, err
		}
		rec, err := decodeRecord([]byte(js))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", id, err)
		}
		rec.ID = id
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) Save(ctx context.Context, id string, rec model.Task) error {
	rec.ID = id
	b, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	completed := 0
	if rec.Completed {
		completed = 1
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO todos(namespace, id, ord, title, completed, json, updated_at_unixms)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, id) DO UPDATE SET
			ord = excluded.ord,
			title = excluded.title,
			completed = excluded.completed,
			json = excluded.json,
			updated_at_unixms = excluded.updated_at_unixms`,
		s.ns, id, rec.Order, rec.Title, completed, string(b), s.now().UnixMilli())
	return err
}

// Delete removes id. Deleting a missing record is not an error.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE namespace = ? AND id = ?`, s.ns, id)
	return err
}

func (s *SQLite) Close() error { return s.db.Close() }
