package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_SetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(4)
	if err := m.Set(ctx, "a", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := m.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("expected payload, got %q", got)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(4)
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_ = m.Set(ctx, "a", []byte("x"), time.Second)
	now = now.Add(2 * time.Second)
	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss after expiry, got %v", err)
	}
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(2)
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_ = m.Set(ctx, "a", []byte("1"), time.Hour)
	now = now.Add(time.Second)
	_ = m.Set(ctx, "b", []byte("2"), time.Hour)
	now = now.Add(time.Second)
	_, _ = m.Get(ctx, "a")
	now = now.Add(time.Second)
	_ = m.Set(ctx, "c", []byte("3"), time.Hour)

	if _, err := m.Get(ctx, "b"); !errors.Is(err, ErrMiss) {
		t.Error("expected b to be evicted")
	}
	if _, err := m.Get(ctx, "a"); err != nil {
		t.Errorf("expected a to survive, got %v", err)
	}
}

func TestNoopStore(t *testing.T) {
	var s Store = NoopStore{}
	if _, err := s.Get(context.Background(), "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
}
