package dictionary_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/scribeclean/internal/dictionary"
)

// testDSN returns the test database DSN from the environment, or skips the
// test if SCRIBECLEAN_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("SCRIBECLEAN_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SCRIBECLEAN_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration tests")
	}
	return dsn
}

// newPostgresStore returns a store on a freshly created custom_words table.
func newPostgresStore(t *testing.T) dictionary.Store {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS custom_words"); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	s := dictionary.NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

// PostgreSQL tests share one table and therefore do not run in parallel.
func TestPostgresStore(t *testing.T) {
	runStoreTests(t, newPostgresStore)
}

func TestOpenPostgres(t *testing.T) {
	dsn := testDSN(t)
	s, err := dictionary.OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer s.Close()
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
