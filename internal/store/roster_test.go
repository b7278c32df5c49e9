package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRosterStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "roster_test")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	dbPath := filepath.Join(tmpDir, "roster.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = s.Close() }()

	seen := time.Unix(1700000000, 0)
	err = s.PutAll([]Entry{
		{Username: "bob", LastSeen: seen},
		{Username: "carol", LastSeen: seen.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("PutAll failed: %v", err)
	}

	entries, err := s.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	byName := make(map[string]Entry)
	for _, e := range entries {
		byName[e.Username] = e
	}
	if !byName["bob"].LastSeen.Equal(seen) {
		t.Errorf("bob last-seen mismatch: %v", byName["bob"].LastSeen)
	}

	// Upsert overwrites.
	err = s.PutAll([]Entry{{Username: "bob", LastSeen: seen.Add(2 * time.Hour)}})
	if err != nil {
		t.Fatalf("PutAll upsert failed: %v", err)
	}
	entries, err = s.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("upsert created duplicate: %d entries", len(entries))
	}
}

func TestRosterStore_Reopen(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "roster_reopen_test")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	dbPath := filepath.Join(tmpDir, "roster.db")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.PutAll([]Entry{{Username: "bob", LastSeen: time.Unix(1700000000, 0)}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()

	entries, err := s.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Username != "bob" {
		t.Errorf("roster did not survive reopen: %v", entries)
	}
}
