package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/appdir/internal/kv"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "plain prefix", prefix: "appdir:", want: "appdir:*"},
		{name: "empty prefix", prefix: "", want: "*"},
		{name: "glob characters escaped", prefix: "a*b?[c]", want: `a\*b\?\[c\]*`},
		{name: "backslash escaped", prefix: `x\y`, want: `x\\y*`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchPattern(tt.prefix); got != tt.want {
				t.Errorf("MatchPattern(%q) = %q, want %q", tt.prefix, got, tt.want)
			}
		})
	}
}

// TestStoreAgainstRedis needs a live server: APPDIR_TEST_REDIS_ADDR=localhost:6379
func TestStoreAgainstRedis(t *testing.T) {
	addr := os.Getenv("APPDIR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("APPDIR_TEST_REDIS_ADDR not set, skipping redis integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}

	s := NewStore(client)
	prefix := "appdir-test:" + time.Now().Format("150405.000000") + ":"

	if _, err := s.Get(ctx, prefix+"missing"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want kv.ErrNotFound", err)
	}
	if err := s.Put(ctx, prefix+"a", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get(ctx, prefix+"a")
	if err != nil || string(got) != `{"x":1}` {
		t.Errorf("Get() = %q, %v", got, err)
	}

	keys, err := s.List(ctx, prefix)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != prefix+"a" {
		t.Errorf("List() = %v, want [%sa]", keys, prefix)
	}

	if err := s.Delete(ctx, prefix+"a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, prefix+"a"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want kv.ErrNotFound", err)
	}
}
