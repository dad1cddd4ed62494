package dictionary_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/MrWong99/scribeclean/internal/dictionary"
)

// setupMiniRedis starts an in-process Redis and returns a store on it.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *dictionary.RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, dictionary.NewRedisStoreFromClient(client, "")
}

func TestRedisStore(t *testing.T) {
	t.Parallel()
	runStoreTests(t, func(t *testing.T) dictionary.Store {
		_, s := setupMiniRedis(t)
		return s
	})
}

func TestRedisStore_UsesListKey(t *testing.T) {
	t.Parallel()

	mr, s := setupMiniRedis(t)
	ctx := context.Background()
	if err := s.Replace(ctx, []string{"Grafana", "Loki"}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := mr.List(dictionary.DefaultRedisKey)
	if err != nil {
		t.Fatalf("miniredis List: %v", err)
	}
	if diff := cmp.Diff([]string{"Grafana", "Loki"}, got); diff != "" {
		t.Errorf("stored list mismatch (-want +got):\n%s", diff)
	}
}

func TestRedisStore_SeesExternalWrites(t *testing.T) {
	t.Parallel()

	mr, s := setupMiniRedis(t)
	if _, err := mr.Push(dictionary.DefaultRedisKey, "Tempo"); err != nil {
		t.Fatalf("miniredis Push: %v", err)
	}
	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"Tempo"}, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRedisStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	s, err := dictionary.NewRedisStore(context.Background(), dictionary.RedisConfig{Addr: mr.Addr(), Key: "words"})
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Add(context.Background(), "Mimir"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !mr.Exists("words") {
		t.Error("expected configured key to exist")
	}
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := dictionary.NewRedisStore(context.Background(), dictionary.RedisConfig{Addr: addr}); err == nil {
		t.Fatal("NewRedisStore: expected error for closed server")
	}
}

func TestRedisStore_PingFailsAfterServerStops(t *testing.T) {
	t.Parallel()

	mr, s := setupMiniRedis(t)
	mr.Close()
	if err := dictionary.Ping(context.Background(), s); err == nil {
		t.Error("Ping: expected error after server stopped")
	}
}
