package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestTrustStoreAddListRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trust.json")
	ts, err := NewTrustStore(path)
	if err != nil {
		t.Fatalf("NewTrustStore: %v", err)
	}

	if roots := ts.Roots(); len(roots) != 0 {
		t.Fatalf("fresh store has roots: %v", roots)
	}

	if err := ts.Add("/home/dev/project"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !ts.Has("/home/dev/project") {
		t.Error("Has returned false for added root")
	}
	if !ts.Has("/home/dev/project/") {
		t.Error("Has should compare cleaned paths")
	}

	if err := ts.Add("/home/dev/project/"); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("duplicate Add: expected ErrAlreadyExists, got %v", err)
	}

	if err := ts.Remove("/home/dev/project"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ts.Has("/home/dev/project") {
		t.Error("root still present after Remove")
	}
	if err := ts.Remove("/home/dev/project"); !errors.Is(err, ErrNotFound) {
		t.Errorf("removing absent root: expected ErrNotFound, got %v", err)
	}
}

func TestTrustStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trust.json")

	ts, err := NewTrustStore(path)
	if err != nil {
		t.Fatalf("NewTrustStore: %v", err)
	}
	if err := ts.Add("/srv/work"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ts.Add("/home/dev/other"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reopened, err := NewTrustStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	roots := reopened.Roots()
	if len(roots) != 2 {
		t.Fatalf("reopened roots = %v, want 2 entries", roots)
	}
	// Roots() sorts lexically.
	if roots[0] != "/home/dev/other" || roots[1] != "/srv/work" {
		t.Errorf("roots = %v", roots)
	}
}
