package pattern

import (
	"log/slog"
	"testing"
)

func TestWatcherInitialLoad(t *testing.T) {
	path := writeCatalog(t, `
patterns:
  - id: custom-one
    regex: 'one'
  - id: custom-two
    regex: 'two'
`)

	r := NewBuiltinRegistry()
	w, err := NewWatcher(r, path, slog.Default())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if !r.Has("custom-one") || !r.Has("custom-two") {
		t.Errorf("catalog patterns not loaded; ids: %v", r.IDs())
	}
	// Built-ins stay registered alongside the catalog.
	if !r.Has("trust-folder") {
		t.Error("built-in pattern missing after catalog load")
	}
}

func TestWatcherInitialLoadFailure(t *testing.T) {
	r := NewRegistry()
	if _, err := NewWatcher(r, "/does/not/exist.yaml", slog.Default()); err == nil {
		t.Error("expected an error for a missing catalog")
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	path := writeCatalog(t, "patterns: []\n")

	w, err := NewWatcher(NewRegistry(), path, slog.Default())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
