package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	r1 := k.ReferencesKey("/src/app", "Core")
	if !strings.HasPrefix(r1, "refs:") {
		t.Errorf("ReferencesKey = %s, want refs: prefix", r1)
	}
	if r1 == k.ReferencesKey("/src/other", "Core") {
		t.Error("different workspaces should produce different keys")
	}
	// "a"+"bc" and "ab"+"c" must not collide.
	if k.ReferencesKey("a", "bc") == k.ReferencesKey("ab", "c") {
		t.Error("key parts should not be concatenated")
	}

	a1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Mode: "deepest"})
	a2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Mode: "all"})
	if a1 == a2 {
		t.Error("different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "ci:")

	got := scoped.ReferencesKey("ws", "Core")
	if got != "ci:"+inner.ReferencesKey("ws", "Core") {
		t.Errorf("ReferencesKey = %s", got)
	}
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "dot"}); !strings.HasPrefix(got, "ci:artifact:") {
		t.Errorf("ArtifactKey = %s", got)
	}

	if got := NewScopedKeyer(nil, "p:").ReferencesKey("ws", "x"); !strings.HasPrefix(got, "p:refs:") {
		t.Errorf("nil inner key = %s", got)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrTransient)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrTransient) {
		t.Error("wrapped error should unwrap to ErrTransient")
	}
	if err.Error() != ErrTransient.Error() {
		t.Errorf("message = %q", err.Error())
	}
	if IsRetryable(errors.New("boom")) {
		t.Error("plain errors are not retryable")
	}
}

func fastBackoff(t *testing.T) {
	t.Helper()
	saved := Backoff
	Backoff.Initial = time.Millisecond
	t.Cleanup(func() { Backoff = saved })
}

func TestRetryWithBackoff(t *testing.T) {
	fastBackoff(t)
	ctx := context.Background()
	permanent := errors.New("permanent")

	tests := []struct {
		name      string
		fail      int   // calls that fail before success
		err       error // error returned while failing
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, nil, 1, false},
		{"non-retryable", 5, permanent, 1, true},
		{"recovers", 2, Retryable(ErrTransient), 3, false},
		{"gives up", 5, Retryable(ErrTransient), 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.fail {
					return tt.err
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrTransient)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
