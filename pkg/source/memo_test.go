package source

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reftree/reftree/pkg/project"
)

// countingSource answers from a fixed adjacency list and counts calls.
type countingSource struct {
	refs  map[string][]string
	calls atomic.Int64
	delay time.Duration
	fail  map[string]bool
}

func (s *countingSource) References(ctx context.Context, p project.Project) ([]project.Project, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.fail[p.ID] {
		return nil, errors.New("boom")
	}
	var out []project.Project
	for _, id := range s.refs[p.ID] {
		out = append(out, project.Project{ID: id})
	}
	return out, nil
}

func TestMemo(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{refs: map[string][]string{"a": {"b"}}, fail: map[string]bool{"x": true}}
	m := Memo(src, 0)

	for range 3 {
		refs, err := m.References(ctx, project.Project{ID: "a"})
		if err != nil || len(refs) != 1 {
			t.Fatalf("References(a) = %v, %v", refs, err)
		}
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("source called %d times, want 1", got)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}

	// Errors are not remembered.
	for range 2 {
		if _, err := m.References(ctx, project.Project{ID: "x"}); err == nil {
			t.Error("expected error for x")
		}
	}
	if got := src.calls.Load(); got != 3 {
		t.Errorf("source called %d times, want 3", got)
	}

	m.Purge()
	if m.Len() != 0 {
		t.Errorf("Len after Purge = %d", m.Len())
	}
}

func TestMemoEviction(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{refs: map[string][]string{}}
	m := Memo(src, 2)
	for _, id := range []string{"a", "b", "c", "a"} {
		_, _ = m.References(ctx, project.Project{ID: id})
	}
	if got := src.calls.Load(); got != 4 {
		t.Errorf("source called %d times, want 4 (a evicted by c)", got)
	}
}

func TestMemoSharesConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{refs: map[string][]string{"a": {"b"}}, delay: 50 * time.Millisecond}
	m := Memo(src, 0)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.References(ctx, project.Project{ID: "a"})
		}()
	}
	wg.Wait()
	if got := src.calls.Load(); got != 1 {
		t.Errorf("source called %d times, want 1", got)
	}
}

func TestMemoCancelledCallerDoesNotFailOthers(t *testing.T) {
	src := &countingSource{refs: map[string][]string{"a": {"b"}}, delay: 200 * time.Millisecond}
	m := Memo(src, 0)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := m.References(first, project.Project{ID: "a"})
		firstErr <- err
	}()
	for src.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	second := make(chan error, 1)
	var refs []project.Project
	go func() {
		var err error
		refs, err = m.References(context.Background(), project.Project{ID: "a"})
		second <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller: err = %v, want context.Canceled", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("waiting caller: %v", err)
	}
	if len(refs) != 1 || refs[0].ID != "b" {
		t.Errorf("waiting caller refs = %v", refs)
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("source called %d times, want 1", got)
	}
}
