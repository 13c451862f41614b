// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docstore

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// NewSQLite returns a Store over db, which must carry the documents table
// created by database.Open. Closing the Store closes db.
func NewSQLite(db *sql.DB, opts Options) *Store {
	return newStore(&sqliteBackend{db: db}, opts)
}

type sqliteBackend struct {
	db *sql.DB
}

func (b *sqliteBackend) get(ctx context.Context, collection, id string) ([]byte, bool, error) {
	var data string
	err := b.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(data), true, nil
}

func (b *sqliteBackend) put(ctx context.Context, collection, id string, data []byte, at time.Time) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		collection, id, string(data), at.UTC().Format(time.RFC3339Nano))
	return err
}

func (b *sqliteBackend) delete(ctx context.Context, collection, id string) error {
	_, err := b.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	return err
}

func (b *sqliteBackend) list(ctx context.Context, collection string) ([]record, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ? ORDER BY id`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []record
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		recs = append(recs, record{id: id, data: []byte(data)})
	}
	return recs, rows.Err()
}

// treeClause matches prefix itself and every collection below it without
// LIKE, so IDs containing % or _ are matched literally.
const treeClause = `collection = ? OR substr(collection, 1, ?) = ?`

func (b *sqliteBackend) collections(ctx context.Context, prefix string) ([]string, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT DISTINCT collection FROM documents WHERE `+treeClause,
		prefix, len(prefix)+1, prefix+"/")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (b *sqliteBackend) deleteTree(ctx context.Context, prefix string) error {
	_, err := b.db.ExecContext(ctx,
		`DELETE FROM documents WHERE `+treeClause,
		prefix, len(prefix)+1, prefix+"/")
	return err
}

func (b *sqliteBackend) close() error {
	return b.db.Close()
}
