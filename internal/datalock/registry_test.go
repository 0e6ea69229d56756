package datalock

import (
	"errors"
	"testing"

	"screen-ocr/internal/domain"
)

// TestAcquireRejectsSecondHolder checks one lock per key at a time.
func TestAcquireRejectsSecondHolder(t *testing.T) {
	r := NewRegistry(nil)
	key := Key{EngineID: "tesseract", DataDir: "/data"}

	lock, err := r.Acquire(key)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := r.Acquire(key); !errors.Is(err, domain.ErrDataLocked) {
		t.Fatalf("second acquire error = %v, want %v", err, domain.ErrDataLocked)
	}

	other, err := r.Acquire(Key{EngineID: "tesseract", DataDir: "/other"})
	if err != nil {
		t.Fatalf("acquire other key: %v", err)
	}
	other.Release()

	lock.Release()
	again, err := r.Acquire(key)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again.Release()
}

// TestRegistryPrunesReleasedKeys checks entries go away with the last reference.
func TestRegistryPrunesReleasedKeys(t *testing.T) {
	r := NewRegistry(nil)
	key := Key{EngineID: "e", DataDir: "d"}

	lock, err := r.Acquire(key)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	obs := r.Observe(key, nil, nil)
	if r.Len() != 1 {
		t.Fatalf("len = %d, want 1", r.Len())
	}

	lock.Release()
	lock.Release()
	if r.Len() != 1 {
		t.Fatalf("len with observer = %d, want 1", r.Len())
	}

	obs.Close()
	obs.Close()
	if r.Len() != 0 {
		t.Fatalf("len after close = %d, want 0", r.Len())
	}
}

// TestObserverCallbacksRunInOrder checks before/after notifications.
func TestObserverCallbacksRunInOrder(t *testing.T) {
	r := NewRegistry(nil)
	key := Key{EngineID: "e", DataDir: "d"}

	var calls []string
	first := r.Observe(key, func() { calls = append(calls, "before-1") }, func() { calls = append(calls, "after-1") })
	defer first.Close()
	second := r.Observe(key, func() { calls = append(calls, "before-2") }, func() { calls = append(calls, "after-2") })
	defer second.Close()

	if first.IsLocked() {
		t.Fatal("expected unlocked before acquire")
	}

	lock, err := r.Acquire(key)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !second.IsLocked() {
		t.Fatal("expected observer to see lock")
	}
	lock.Release()
	if first.IsLocked() {
		t.Fatal("expected unlocked after release")
	}

	want := []string{"before-1", "before-2", "after-1", "after-2"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

// TestClosedObserverIsNotNotified checks unregistration.
func TestClosedObserverIsNotNotified(t *testing.T) {
	r := NewRegistry(nil)
	key := Key{EngineID: "e", DataDir: "d"}

	called := false
	obs := r.Observe(key, func() { called = true }, func() { called = true })
	obs.Close()

	lock, err := r.Acquire(key)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	lock.Release()

	if called {
		t.Fatal("closed observer was notified")
	}
}
