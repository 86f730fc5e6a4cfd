package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	locker, err := NewRedis("redis://"+s.Addr(), "inkwell:sitemap", ttl, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create redis lock: %v", err)
	}
	return locker, s
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	if _, err := NewRedis("not a url", "k", time.Second, zerolog.Nop()); err == nil {
		t.Fatal("expected error for invalid redis url")
	}
}

func TestRedisLockAndRelease(t *testing.T) {
	locker, s := setupTestRedis(t, time.Minute)
	defer locker.Close()

	release, err := locker.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if !s.Exists("inkwell:sitemap") {
		t.Fatal("expected lock key to be set")
	}
	if ttl := s.TTL("inkwell:sitemap"); ttl <= 0 {
		t.Fatalf("expected lock key to carry a ttl, got %v", ttl)
	}

	release()
	if s.Exists("inkwell:sitemap") {
		t.Fatal("expected lock key to be removed after release")
	}
}

func TestRedisLockExcludesOtherProcesses(t *testing.T) {
	first, s := setupTestRedis(t, time.Minute)
	defer first.Close()

	second, err := NewRedis("redis://"+s.Addr(), "inkwell:sitemap", time.Minute, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	defer second.Close()

	release, err := first.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	if _, err := second.Lock(ctx); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired while held elsewhere, got %v", err)
	}

	release()

	again, err := second.Lock(context.Background())
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	again()
}

func TestRedisReleaseKeepsForeignToken(t *testing.T) {
	locker, s := setupTestRedis(t, time.Minute)
	defer locker.Close()

	release, err := locker.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	// Simulate expiry followed by another holder taking the key.
	if err := s.Set("inkwell:sitemap", "someone-else"); err != nil {
		t.Fatalf("seed foreign token: %v", err)
	}
	release()

	got, err := s.Get("inkwell:sitemap")
	if err != nil || got != "someone-else" {
		t.Fatalf("expected foreign token to survive release, got %q (%v)", got, err)
	}
}

func TestRedisLockExpires(t *testing.T) {
	locker, s := setupTestRedis(t, time.Second)
	defer locker.Close()

	if _, err := locker.Lock(context.Background()); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	s.FastForward(2 * time.Second)
	if s.Exists("inkwell:sitemap") {
		t.Fatal("expected lock key to expire")
	}
}

func TestRedisPing(t *testing.T) {
	locker, _ := setupTestRedis(t, time.Second)
	defer locker.Close()
	if err := locker.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
