package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_LoadEmpty(t *testing.T) {
	store := NewMemoryStore()

	state, found, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if found {
		t.Error("Load() found = true for empty store, want false")
	}
	if state != nil {
		t.Errorf("Load() state = %+v, want nil", state)
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved := &RateLimitState{
		Remaining:  423.5,
		LastCost:   1.25,
		LastUpdate: time.Now(),
	}
	saved.UpdateHealth()

	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, found, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !found {
		t.Fatal("Load() found = false after Save")
	}

	if loaded.Remaining != saved.Remaining {
		t.Errorf("Remaining = %f, want %f", loaded.Remaining, saved.Remaining)
	}
	if loaded.LastCost != saved.LastCost {
		t.Errorf("LastCost = %f, want %f", loaded.LastCost, saved.LastCost)
	}
	if !loaded.IsHealthy {
		t.Error("IsHealthy = false, want true for 423.5 remaining")
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := &RateLimitState{Remaining: 600, LastUpdate: time.Now()}
	if err := store.Save(ctx, original); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Mutating the saved value or a loaded value must not leak into the store.
	original.Remaining = 1

	loaded1, _, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	loaded1.Remaining = 2

	loaded2, _, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded2.Remaining != 600 {
		t.Errorf("Remaining = %f, want 600 (store must hand out copies)", loaded2.Remaining)
	}
}
