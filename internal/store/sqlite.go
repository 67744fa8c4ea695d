package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wishlist/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBackend keeps the snapshot in a single-row table.
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(ctx context.Context, path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases from splitting per connection
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS wishlist_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			content TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Load(ctx context.Context) (*model.State, error) {
	var content string
	err := b.db.QueryRowContext(ctx, `SELECT content FROM wishlist_state WHERE id = 1`).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite select: %w", err)
	}
	return decodeState([]byte(content))
}

func (b *SQLiteBackend) Save(ctx context.Context, st *model.State) error {
	data, err := encodeState(st)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, `
		INSERT INTO wishlist_state (id, content) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content
	`, string(data))
	if err != nil {
		return fmt.Errorf("sqlite upsert: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
