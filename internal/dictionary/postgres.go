package dictionary

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the SQL DDL for the custom_words table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS custom_words (
    id         BIGSERIAL    PRIMARY KEY,
    word       TEXT         NOT NULL,
    created_at TIMESTAMPTZ  NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_custom_words_word ON custom_words(word);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Compile-time interface checks.
var (
	_ Store  = (*PostgresStore)(nil)
	_ Pinger = (*PostgresStore)(nil)
)

// PostgresStore is a [Store] backed by a PostgreSQL table. Words are returned
// in id order, which is insertion order.
type PostgresStore struct {
	db   DB
	pool *pgxpool.Pool
}

// NewPostgresStore creates a [PostgresStore] on db. The caller is
// responsible for calling [PostgresStore.Migrate] before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens a connection pool for dsn, verifies it and applies
// [Schema]. Close releases the pool.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("dictionary: postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("dictionary: postgres ping: %w", err)
	}
	s := &PostgresStore{db: pool, pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate executes the [Schema] DDL against the database.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("dictionary: migrate: %w", err)
	}
	return nil
}

// List implements [Store.List].
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT word FROM custom_words ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("dictionary: list: %w", err)
	}
	words, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("dictionary: list: %w", err)
	}
	return words, nil
}

// Add implements [Store.Add].
func (s *PostgresStore) Add(ctx context.Context, word string) error {
	w, err := Normalize(word)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `INSERT INTO custom_words (word) VALUES ($1)`, w); err != nil {
		return fmt.Errorf("dictionary: add %q: %w", w, err)
	}
	return nil
}

// Remove implements [Store.Remove].
func (s *PostgresStore) Remove(ctx context.Context, word string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM custom_words WHERE word = $1`, word)
	if err != nil {
		return fmt.Errorf("dictionary: remove %q: %w", word, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Replace implements [Store.Replace].
func (s *PostgresStore) Replace(ctx context.Context, words []string) error {
	normalized, err := NormalizeAll(words)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("dictionary: replace: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM custom_words`); err != nil {
		return fmt.Errorf("dictionary: replace: clear: %w", err)
	}
	if len(normalized) > 0 {
		rows := make([][]any, len(normalized))
		for i, w := range normalized {
			rows[i] = []any{w}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"custom_words"}, []string{"word"}, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("dictionary: replace: copy: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("dictionary: replace: commit: %w", err)
	}
	return nil
}

// Ping implements [Pinger].
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `SELECT 1`)
	return err
}

// Close releases the pool opened by [OpenPostgres]. It is a no-op for stores
// created with [NewPostgresStore].
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
