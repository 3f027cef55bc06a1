package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLite is the primary engine: documents live as JSON blobs in a records
// table, secondary index entries in a side table, and the flat key space in
// its own table. Every operation opens its own transaction scope and never
// holds one across a call boundary it doesn't own.
type SQLite struct {
	db   *sql.DB
	mu   sync.RWMutex
	spec map[string]CollectionSpec
}

// OpenSQLite opens (creating if needed) the embedded database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS records (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			doc        BLOB NOT NULL,
			seq        INTEGER,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE TABLE IF NOT EXISTS record_index (
			collection TEXT NOT NULL,
			idx        TEXT NOT NULL,
			val        TEXT NOT NULL,
			id         TEXT NOT NULL,
			PRIMARY KEY (collection, idx, id)
		)`,
		`CREATE INDEX IF NOT EXISTS record_index_lookup
			ON record_index (collection, idx, val)`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			val BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS seq_counter (
			collection TEXT PRIMARY KEY,
			next       INTEGER NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &SQLite{db: db, spec: make(map[string]CollectionSpec)}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) DefineCollection(_ context.Context, spec CollectionSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spec[spec.Name]; ok {
		return nil
	}
	s.spec[spec.Name] = spec
	return nil
}

func (s *SQLite) collection(name string) (CollectionSpec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spec, ok := s.spec[name]
	return spec, ok
}

func (s *SQLite) Add(ctx context.Context, collection string, doc any) (string, error) {
	spec, ok := s.collection(collection)
	if !ok {
		return "", storageErr("add", collection, ErrUnknownCollection)
	}
	raw, fields, err := encodeDoc(doc)
	if err != nil {
		return "", storageErr("add", collection, err)
	}
	id := primaryKey(fields, spec.PrimaryKey)
	if id == "" {
		id, raw, err = assignKey(fields, spec.PrimaryKey)
		if err != nil {
			return "", storageErr("add", collection, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", storageErr("add", collection, err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM records WHERE collection=? AND id=?`, collection, id).Scan(&exists)
	if err != nil {
		return "", storageErr("add", collection, err)
	}
	if exists > 0 {
		return "", ErrDuplicateKey
	}
	seq, err := nextSeq(ctx, tx, collection)
	if err != nil {
		return "", storageErr("add", collection, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO records (collection, id, doc, seq) VALUES (?,?,?,?)`,
		collection, id, raw, seq); err != nil {
		return "", storageErr("add", collection, err)
	}
	if err := writeIndexRows(ctx, tx, spec, id, fields); err != nil {
		return "", storageErr("add", collection, err)
	}
	if err := tx.Commit(); err != nil {
		return "", storageErr("add", collection, err)
	}
	return id, nil
}

func (s *SQLite) GetByID(ctx context.Context, collection, id string, out any) (bool, error) {
	if _, ok := s.collection(collection); !ok {
		return false, storageErr("get", collection, ErrUnknownCollection)
	}
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM records WHERE collection=? AND id=?`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("get", collection, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, storageErr("get", collection, err)
	}
	return true, nil
}

func (s *SQLite) GetAll(ctx context.Context, collection string, out any) error {
	if _, ok := s.collection(collection); !ok {
		return storageErr("getAll", collection, ErrUnknownCollection)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM records WHERE collection=? ORDER BY seq ASC`, collection)
	if err != nil {
		return storageErr("getAll", collection, err)
	}
	docs, err := collectDocs(rows)
	if err != nil {
		return storageErr("getAll", collection, err)
	}
	if err := decodeList(docs, out); err != nil {
		return storageErr("getAll", collection, err)
	}
	return nil
}

func (s *SQLite) GetByIndex(ctx context.Context, collection, index string, value any, out any) error {
	spec, ok := s.collection(collection)
	if !ok {
		return storageErr("getByIndex", collection, ErrUnknownCollection)
	}
	known := false
	for _, idx := range spec.Indexes {
		if idx.Name == index {
			known = true
			break
		}
	}
	if !known {
		return storageErr("getByIndex", collection, ErrUnknownCollection)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.doc FROM records r
		JOIN record_index i ON i.collection = r.collection AND i.id = r.id
		WHERE i.collection=? AND i.idx=? AND i.val=?
		ORDER BY r.seq ASC`, collection, index, indexValue(value))
	if err != nil {
		return storageErr("getByIndex", collection, err)
	}
	docs, err := collectDocs(rows)
	if err != nil {
		return storageErr("getByIndex", collection, err)
	}
	if err := decodeList(docs, out); err != nil {
		return storageErr("getByIndex", collection, err)
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, collection string, doc any) error {
	spec, ok := s.collection(collection)
	if !ok {
		return storageErr("update", collection, ErrUnknownCollection)
	}
	raw, fields, err := encodeDoc(doc)
	if err != nil {
		return storageErr("update", collection, err)
	}
	id := primaryKey(fields, spec.PrimaryKey)
	if id == "" {
		return ErrMissingKey
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("update", collection, err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT seq FROM records WHERE collection=? AND id=?`, collection, id).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		if seq, err = nextSeq(ctx, tx, collection); err != nil {
			return storageErr("update", collection, err)
		}
	} else if err != nil {
		return storageErr("update", collection, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO records (collection, id, doc, seq) VALUES (?,?,?,?)`,
		collection, id, raw, seq); err != nil {
		return storageErr("update", collection, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM record_index WHERE collection=? AND id=?`, collection, id); err != nil {
		return storageErr("update", collection, err)
	}
	if err := writeIndexRows(ctx, tx, spec, id, fields); err != nil {
		return storageErr("update", collection, err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("update", collection, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, collection, id string) error {
	if _, ok := s.collection(collection); !ok {
		return storageErr("delete", collection, ErrUnknownCollection)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("delete", collection, err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE collection=? AND id=?`, collection, id); err != nil {
		return storageErr("delete", collection, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM record_index WHERE collection=? AND id=?`, collection, id); err != nil {
		return storageErr("delete", collection, err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("delete", collection, err)
	}
	return nil
}

func (s *SQLite) ClearCollection(ctx context.Context, collection string) error {
	if _, ok := s.collection(collection); !ok {
		return storageErr("clear", collection, ErrUnknownCollection)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("clear", collection, err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE collection=?`, collection); err != nil {
		return storageErr("clear", collection, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM record_index WHERE collection=?`, collection); err != nil {
		return storageErr("clear", collection, err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("clear", collection, err)
	}
	return nil
}

func (s *SQLite) GetValue(ctx context.Context, key string) ([]byte, bool, error) {
	var val []byte
	err := s.db.QueryRowContext(ctx, `SELECT val FROM kv WHERE key=?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageErr("getValue", "", err)
	}
	return val, true, nil
}

func (s *SQLite) SetValue(ctx context.Context, key string, val []byte) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv (key, val) VALUES (?,?)`, key, val); err != nil {
		return storageErr("setValue", "", err)
	}
	return nil
}

func (s *SQLite) DeleteValue(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key=?`, key); err != nil {
		return storageErr("deleteValue", "", err)
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func nextSeq(ctx context.Context, tx *sql.Tx, collection string) (int64, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO seq_counter (collection, next) VALUES (?, 1)
		ON CONFLICT(collection) DO UPDATE SET next = next + 1`, collection); err != nil {
		return 0, err
	}
	var seq int64
	err := tx.QueryRowContext(ctx,
		`SELECT next FROM seq_counter WHERE collection=?`, collection).Scan(&seq)
	return seq, err
}

func writeIndexRows(ctx context.Context, tx *sql.Tx, spec CollectionSpec, id string, fields map[string]any) error {
	for _, idx := range spec.Indexes {
		v, ok := fields[idx.Field]
		if !ok || v == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO record_index (collection, idx, val, id) VALUES (?,?,?,?)`,
			spec.Name, idx.Name, indexValue(v), id); err != nil {
			return err
		}
	}
	return nil
}

func collectDocs(rows *sql.Rows) ([][]byte, error) {
	defer rows.Close()
	var docs [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		docs = append(docs, raw)
	}
	return docs, rows.Err()
}
