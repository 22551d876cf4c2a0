package source

import (
	"context"
	"testing"
	"time"

	"github.com/reftree/reftree/pkg/project"
)

func TestPrefetch(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{
		refs: map[string][]string{
			"a": {"b", "c"},
			"b": {"d"},
			"c": {"d", "e"},
			"d": {"f"},
		},
		fail:  map[string]bool{"e": true},
		delay: time.Millisecond,
	}
	m := Memo(src, 0)

	n, err := Prefetch(ctx, m, project.Project{ID: "a"}, PrefetchOptions{Workers: 4})
	if err != nil {
		t.Fatalf("Prefetch: %v", err)
	}
	if n != 6 {
		t.Errorf("fetched %d projects, want 6", n)
	}
	// Every project except the failing one is now in memory.
	if m.Len() != 5 {
		t.Errorf("memo holds %d projects, want 5", m.Len())
	}
	before := src.calls.Load()
	if _, err := m.References(ctx, project.Project{ID: "d"}); err != nil {
		t.Fatal(err)
	}
	if src.calls.Load() != before {
		t.Error("prefetched project hit the source again")
	}
}

func TestPrefetchMaxNodes(t *testing.T) {
	src := &countingSource{refs: map[string][]string{"a": {"b", "c"}, "b": {"d"}, "c": {"e"}}}
	n, err := Prefetch(context.Background(), src, project.Project{ID: "a"}, PrefetchOptions{MaxNodes: 2})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("fetched %d projects, want 2", n)
	}
}

func TestPrefetchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &countingSource{refs: map[string][]string{"a": {"b"}}, delay: time.Second}
	if _, err := Prefetch(ctx, src, project.Project{ID: "a"}, PrefetchOptions{}); err == nil {
		t.Error("expected cancellation error")
	}
}
