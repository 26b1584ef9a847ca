package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"mini-los/internal/domain/session"
)

func TestRedisSessionStore_RoundTrip(t *testing.T) {
	s := miniredis.RunT(t)
	rdb, err := OpenRedis(s.Addr(), 0)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisSessionStore(rdb, "")
	ctx := context.Background()

	got, err := store.Load(ctx)
	if err != nil || got != "" {
		t.Fatalf("empty Load = %q, %v; want \"\", nil", got, err)
	}
	if err := store.Save(ctx, "jwt-1"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if v, _ := s.Get(session.TokenKey); v != "jwt-1" {
		t.Fatalf("redis[%s] = %q, want jwt-1", session.TokenKey, v)
	}
	if s.TTL(session.TokenKey) != 0 {
		t.Fatalf("token key should not expire")
	}
	if got, _ := store.Load(ctx); got != "jwt-1" {
		t.Fatalf("Load = %q, want jwt-1", got)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Exists(session.TokenKey) {
		t.Fatalf("token key still present after Clear")
	}
}

func TestRedisSessionStore_CustomKeyAndOutage(t *testing.T) {
	s := miniredis.RunT(t)
	rdb, err := OpenRedis(s.Addr(), 0)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	store := NewRedisSessionStore(rdb, "los:token")
	if err := store.Save(context.Background(), "abc"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.Exists("los:token") {
		t.Fatalf("custom key not used")
	}

	s.Close()
	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	_ = store.Save(ctx, "t")
	if got, _ := store.Load(ctx); got != "t" {
		t.Fatalf("Load = %q", got)
	}
	_ = store.Clear(ctx)
	if got, _ := store.Load(ctx); got != "" {
		t.Fatalf("Load after Clear = %q", got)
	}
}
