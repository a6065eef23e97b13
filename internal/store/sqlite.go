package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);`

// SQLiteStore keeps documents in a single SQLite table. Filtering happens in
// Go after decoding; collections here stay small enough that this beats
// maintaining per-field indexes.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path with WAL
// mode enabled. Use ":memory:" for tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	var one int
	err := s.conn.QueryRowContext(ctx,
		"SELECT 1 FROM documents WHERE collection = ? AND id = ?", collection, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking document %s/%s: %w", collection, id, err)
	}
	return true, nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	var data string
	err := s.conn.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection = ? AND id = ?", collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %s/%s: %w", collection, id, err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("decoding document %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// UpsertMerge runs read-merge-write in one transaction so concurrent writers
// cannot drop each other's fields.
func (s *SQLiteStore) UpsertMerge(ctx context.Context, collection, id string, fields map[string]any) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	doc := map[string]any{}
	var existing string
	err = tx.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection = ? AND id = ?", collection, id).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("reading document %s/%s: %w", collection, id, err)
	default:
		if err := json.Unmarshal([]byte(existing), &doc); err != nil {
			return fmt.Errorf("decoding document %s/%s: %w", collection, id, err)
		}
	}

	for k, v := range fields {
		doc[k] = v
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document %s/%s: %w", collection, id, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		collection, id, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing document %s/%s: %w", collection, id, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) List(ctx context.Context, collection string, q Query) ([]map[string]any, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT data FROM documents WHERE collection = ? ORDER BY updated_at DESC", collection)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", collection, err)
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			continue
		}
		if !matches(doc, q) {
			continue
		}
		out = append(out, doc)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, rows.Err()
}
