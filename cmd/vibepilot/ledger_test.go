package main

import (
	"strings"
	"testing"
)

func TestShortID(t *testing.T) {
	if got := shortID("abcdef12-3456-7890"); got != "abcdef12" {
		t.Errorf("shortID = %q, want %q", got, "abcdef12")
	}

	// IDs shorter than the display width pass through unchanged.
	for _, id := range []string{"", "abc", "exactly8"} {
		if got := shortID(id); got != id {
			t.Errorf("shortID(%q) = %q", id, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a long matched prompt", 6); got != "a long..." {
		t.Errorf("truncate = %q", got)
	}

	// Multibyte text must be cut on rune boundaries, never mid-sequence.
	got := truncate("日本語のプロンプト", 3)
	if got != "日本語..." {
		t.Errorf("truncate = %q", got)
	}
	if !strings.HasSuffix(got, "...") || strings.ContainsRune(got, '�') {
		t.Errorf("truncate produced invalid text: %q", got)
	}
}
