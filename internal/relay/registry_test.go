package relay

import (
	"sync"
	"testing"
)

func TestRegistry_RegisterUnregister(t *testing.T) {
	r := NewRegistry(8)

	id1, out1 := r.Register()
	id2, _ := r.Register()

	if id1 == id2 {
		t.Fatalf("ids not unique: %d == %d", id1, id2)
	}
	if out1 == nil {
		t.Fatal("Register returned nil queue")
	}
	if r.Count() != 2 {
		t.Errorf("expected count 2, got %d", r.Count())
	}

	r.Unregister(id1)
	if r.Count() != 1 {
		t.Errorf("expected count 1 after unregister, got %d", r.Count())
	}

	// Idempotent: removing again or removing an unknown id is a no-op.
	r.Unregister(id1)
	r.Unregister(ClientID(9999))
	if r.Count() != 1 {
		t.Errorf("expected count 1, got %d", r.Count())
	}
}

func TestRegistry_IDsNeverReused(t *testing.T) {
	r := NewRegistry(1)

	seen := make(map[ClientID]bool)
	for i := 0; i < 100; i++ {
		id, _ := r.Register()
		if seen[id] {
			t.Fatalf("id %d reused", id)
		}
		seen[id] = true
		r.Unregister(id)
	}
}

func TestRegistry_SnapshotExcludesOrigin(t *testing.T) {
	r := NewRegistry(8)

	origin, _ := r.Register()
	other1, _ := r.Register()
	other2, _ := r.Register()

	targets := r.Snapshot(origin)
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	for _, tgt := range targets {
		if tgt.ID == origin {
			t.Error("origin present in its own snapshot")
		}
	}
	// Ordered by id.
	if targets[0].ID != other1 || targets[1].ID != other2 {
		t.Errorf("unexpected target order: %v, %v", targets[0].ID, targets[1].ID)
	}
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	r := NewRegistry(8)

	const n = 50
	ids := make(chan ClientID, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := r.Register()
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[ClientID]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d under concurrent registration", id)
		}
		seen[id] = true
	}
	if r.Count() != n {
		t.Errorf("expected count %d, got %d", n, r.Count())
	}
}
