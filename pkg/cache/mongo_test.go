package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestMongoCache runs against a real server when REFTREE_TEST_MONGO_URI is
// set, e.g. mongodb://localhost:27017.
func TestMongoCache(t *testing.T) {
	uri := os.Getenv("REFTREE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("REFTREE_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := NewMongoCache(ctx, MongoOptions{
		URI:        uri,
		Database:   "reftree_test",
		Collection: "refs_" + uuid.NewString()[:8],
	})
	if err != nil {
		t.Fatalf("NewMongoCache: %v", err)
	}
	defer func() {
		_ = c.coll.Drop(context.Background())
		_ = c.Close()
	}()

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(missing) hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v1"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v2"), time.Hour); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v2" {
		t.Errorf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Set(ctx, "gone", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "gone"); hit {
		t.Error("expired entry returned")
	}

	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Clear")
	}
}
