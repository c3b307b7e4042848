package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryDedupTryMark(t *testing.T) {
	d := NewMemoryDedup()
	ctx := context.Background()

	first, err := d.TryMark(ctx, "user:1:2026-08-23", time.Minute)
	if err != nil {
		t.Fatalf("TryMark: %v", err)
	}
	if !first {
		t.Error("first mark should succeed")
	}

	second, err := d.TryMark(ctx, "user:1:2026-08-23", time.Minute)
	if err != nil {
		t.Fatalf("TryMark: %v", err)
	}
	if second {
		t.Error("second mark should be rejected")
	}

	other, err := d.TryMark(ctx, "user:2:2026-08-23", time.Minute)
	if err != nil {
		t.Fatalf("TryMark: %v", err)
	}
	if !other {
		t.Error("different key should succeed")
	}
}

func TestMemoryDedupExpiry(t *testing.T) {
	d := NewMemoryDedup()
	ctx := context.Background()

	if ok, _ := d.TryMark(ctx, "k", 10*time.Millisecond); !ok {
		t.Fatal("first mark should succeed")
	}

	time.Sleep(20 * time.Millisecond)

	if ok, _ := d.TryMark(ctx, "k", time.Minute); !ok {
		t.Error("mark should succeed again after expiry")
	}
}
