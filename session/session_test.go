package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

func TestAppSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	rdb, mr := newRedis(t)
	s := NewAppSessionStore(rdb, time.Hour)

	if err := s.Create(ctx, "s1", 7, "ana"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	as, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if as.OperatorID != 7 || as.Username != "ana" || as.ExpiresAt-as.IssuedAt != 3600 {
		t.Errorf("Unexpected session: %+v", as)
	}
	if ttl := mr.TTL(key("s1")); ttl != time.Hour {
		t.Errorf("Expected a 1h TTL, got %v", ttl)
	}

	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "s1"); err != redis.Nil {
		t.Errorf("Expected redis.Nil after delete, got %v", err)
	}
	if err := s.Delete(ctx, "s1"); err != nil {
		t.Errorf("Deleting a missing session should not fail: %v", err)
	}
}

func TestAppSessionExpires(t *testing.T) {
	ctx := context.Background()
	rdb, mr := newRedis(t)
	s := NewAppSessionStore(rdb, time.Minute)

	if err := s.Create(ctx, "s1", 1, "ana"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := s.Get(ctx, "s1"); err != redis.Nil {
		t.Errorf("Expected the session expired, got %v", err)
	}
}

func TestRevokeAllForOperator(t *testing.T) {
	ctx := context.Background()
	rdb, _ := newRedis(t)
	s := NewAppSessionStore(rdb, time.Hour)

	for _, id := range []string{"a", "b"} {
		if err := s.Create(ctx, id, 1, "ana"); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if err := s.Create(ctx, "c", 2, "bia"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := s.RevokeAllForOperator(ctx, 1); err != nil {
		t.Fatalf("RevokeAllForOperator failed: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		if _, err := s.Get(ctx, id); err != redis.Nil {
			t.Errorf("Expected session %s revoked, got %v", id, err)
		}
	}
	if _, err := s.Get(ctx, "c"); err != nil {
		t.Errorf("Expected the other operator's session kept, got %v", err)
	}
	if err := s.RevokeAllForOperator(ctx, 99); err != nil {
		t.Errorf("Revoking an operator without sessions should not fail: %v", err)
	}
}

func TestLoginLimiter(t *testing.T) {
	ctx := context.Background()
	rdb, mr := newRedis(t)
	l := NewLoginLimiter(rdb, 3, 15*time.Minute)

	for i := 0; i < 3; i++ {
		if blocked, _ := l.Blocked(ctx, "Ana"); blocked {
			t.Fatalf("Blocked after %d failures", i)
		}
		if err := l.Fail(ctx, "Ana"); err != nil {
			t.Fatalf("Fail failed: %v", err)
		}
	}
	blocked, err := l.Blocked(ctx, " ana ")
	if err != nil {
		t.Fatalf("Blocked failed: %v", err)
	}
	if !blocked {
		t.Fatal("Expected the username blocked, case and blanks ignored")
	}
	if ttl := mr.TTL(failKey("ana")); ttl != 15*time.Minute {
		t.Errorf("Expected the window to start at the first failure, got TTL %v", ttl)
	}

	mr.FastForward(16 * time.Minute)
	if blocked, _ := l.Blocked(ctx, "ana"); blocked {
		t.Error("Expected the block lifted after the window")
	}

	l.Fail(ctx, "bia")
	if err := l.Reset(ctx, "bia"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if mr.Exists(failKey("bia")) {
		t.Error("Expected the counter cleared")
	}
}
