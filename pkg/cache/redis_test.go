package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T, prefix string) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), RedisOptions{Addr: s.Addr(), Prefix: prefix})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, s
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, s := newTestRedis(t, "reftree:")

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(missing) hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !s.Exists("reftree:k") {
		t.Error("key should be stored with prefix")
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get(k) = %q, %v, %v", data, hit, err)
	}

	s.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should expire")
	}

	_ = c.Set(ctx, "d", []byte("x"), 0)
	if err := c.Delete(ctx, "d"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if s.Exists("reftree:d") {
		t.Error("Delete left the key behind")
	}
}

func TestRedisCacheClear(t *testing.T) {
	ctx := context.Background()
	c, s := newTestRedis(t, "reftree:")
	if err := s.Set("other", "keep"); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if keys := s.Keys(); len(keys) != 1 || keys[0] != "other" {
		t.Errorf("keys after Clear = %v, want [other]", keys)
	}

	bare := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: s.Addr()}), "")
	defer bare.Close()
	if err := bare.Clear(ctx); err == nil {
		t.Error("Clear without prefix should refuse")
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisCache(ctx, RedisOptions{Addr: addr}); err == nil {
		t.Error("expected error for a closed server")
	}
}
