package dictionary_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/scribeclean/internal/dictionary"
)

// runStoreTests exercises the behaviour every [dictionary.Store] must share.
// newStore must return an empty store.
func runStoreTests(t *testing.T, newStore func(t *testing.T) dictionary.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty store lists nothing", func(t *testing.T) {
		s := newStore(t)
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("List = %q, want empty", got)
		}
	})

	t.Run("add keeps insertion order and duplicates", func(t *testing.T) {
		s := newStore(t)
		for _, w := range []string{"Grafana", "  Kubernetes ", "Grafana"} {
			if err := s.Add(ctx, w); err != nil {
				t.Fatalf("Add(%q): %v", w, err)
			}
		}
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		want := []string{"Grafana", "Kubernetes", "Grafana"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("List mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("add rejects blank words", func(t *testing.T) {
		s := newStore(t)
		if err := s.Add(ctx, "   "); !errors.Is(err, dictionary.ErrInvalidWord) {
			t.Errorf("Add blank: err = %v, want ErrInvalidWord", err)
		}
	})

	t.Run("remove deletes every occurrence", func(t *testing.T) {
		s := newStore(t)
		if err := s.Replace(ctx, []string{"a", "b", "a"}); err != nil {
			t.Fatalf("Replace: %v", err)
		}
		if err := s.Remove(ctx, "a"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if diff := cmp.Diff([]string{"b"}, got); diff != "" {
			t.Errorf("List mismatch (-want +got):\n%s", diff)
		}
		if err := s.Remove(ctx, "a"); !errors.Is(err, dictionary.ErrNotFound) {
			t.Errorf("Remove missing: err = %v, want ErrNotFound", err)
		}
	})

	t.Run("replace swaps the list", func(t *testing.T) {
		s := newStore(t)
		if err := s.Add(ctx, "old"); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := s.Replace(ctx, []string{"new", "newer"}); err != nil {
			t.Fatalf("Replace: %v", err)
		}
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if diff := cmp.Diff([]string{"new", "newer"}, got); diff != "" {
			t.Errorf("List mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("replace with invalid word changes nothing", func(t *testing.T) {
		s := newStore(t)
		if err := s.Add(ctx, "keep"); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := s.Replace(ctx, []string{"x", ""}); !errors.Is(err, dictionary.ErrInvalidWord) {
			t.Fatalf("Replace: err = %v, want ErrInvalidWord", err)
		}
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if diff := cmp.Diff([]string{"keep"}, got); diff != "" {
			t.Errorf("List mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("replace with empty list clears", func(t *testing.T) {
		s := newStore(t)
		if err := s.Add(ctx, "gone"); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := s.Replace(ctx, nil); err != nil {
			t.Fatalf("Replace: %v", err)
		}
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("List = %q, want empty", got)
		}
	})

	t.Run("concurrent adds", func(t *testing.T) {
		s := newStore(t)
		const n = 20
		var wg sync.WaitGroup
		for range n {
			wg.Go(func() {
				if err := s.Add(ctx, "word"); err != nil {
					t.Errorf("Add: %v", err)
				}
			})
		}
		wg.Wait()
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != n {
			t.Errorf("len(List) = %d, want %d", len(got), n)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := dictionary.Ping(ctx, newStore(t)); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}
