package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lazyvibe/vibepilot/internal/model"
)

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
assistant:
  path: /usr/local/bin/claude
  mode: plan
session:
  debounce: 250ms
  no_pty: true
yolo:
  enabled: true
trust:
  roots:
    - /home/dev/project
notifications:
  desktop: true
  webhook_url: https://example.com/hook
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Assistant.Path != "/usr/local/bin/claude" {
		t.Errorf("assistant.path = %q", cfg.Assistant.Path)
	}
	if cfg.Assistant.Mode != "plan" {
		t.Errorf("assistant.mode = %q", cfg.Assistant.Mode)
	}
	if cfg.Session.Debounce != 250*time.Millisecond {
		t.Errorf("session.debounce = %v, want 250ms", cfg.Session.Debounce)
	}
	if !cfg.Session.NoPTY {
		t.Error("session.no_pty not set")
	}
	if !cfg.Yolo.Enabled {
		t.Error("yolo.enabled not set")
	}
	if len(cfg.Trust.Roots) != 1 || cfg.Trust.Roots[0] != "/home/dev/project" {
		t.Errorf("trust.roots = %v", cfg.Trust.Roots)
	}
	if !cfg.Notifications.Desktop || cfg.Notifications.WebhookURL != "https://example.com/hook" {
		t.Errorf("notifications = %+v", cfg.Notifications)
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Session.Debounce != 100*time.Millisecond {
		t.Errorf("default debounce = %v, want 100ms", cfg.Session.Debounce)
	}
	if cfg.Yolo.Enabled {
		t.Error("yolo enabled by default")
	}
	if cfg.Assistant.Mode != "act" {
		t.Errorf("default mode = %q, want act", cfg.Assistant.Mode)
	}
}

func TestEffectiveMergesAndDedupesRoots(t *testing.T) {
	cfg := &Config{
		Trust: TrustConfig{Roots: []string{"/a", "/b/"}},
	}
	eff := cfg.Effective("/work", []string{"/b", "/c"})

	if len(eff.TrustedRoots) != 3 {
		t.Fatalf("roots = %v, want 3 deduped entries", eff.TrustedRoots)
	}
	if eff.WorkDir != "/work" {
		t.Errorf("workdir = %q", eff.WorkDir)
	}
	if eff.Mode != model.ModeAct {
		t.Errorf("mode = %q, want act", eff.Mode)
	}
}

func TestEffectiveModeFallsBackToAct(t *testing.T) {
	cfg := &Config{Assistant: AssistantConfig{Mode: "nonsense"}}
	if eff := cfg.Effective("/work", nil); eff.Mode != model.ModeAct {
		t.Errorf("mode = %q, want act", eff.Mode)
	}

	cfg.Assistant.Mode = "plan"
	if eff := cfg.Effective("/work", nil); eff.Mode != model.ModePlan {
		t.Errorf("mode = %q, want plan", eff.Mode)
	}
}

func TestCatalogPathEnvOverride(t *testing.T) {
	cfg := &Config{Patterns: PatternsConfig{CatalogPath: "/from/config.yaml"}}

	if got := cfg.CatalogPath(); got != "/from/config.yaml" {
		t.Errorf("CatalogPath = %q", got)
	}

	t.Setenv("VIBEPILOT_PATTERNS", "/from/env.yaml")
	if got := cfg.CatalogPath(); got != "/from/env.yaml" {
		t.Errorf("CatalogPath with env = %q", got)
	}
}

func TestValidateAssistantPath(t *testing.T) {
	if ValidateAssistantPath("") {
		t.Error("empty path validated")
	}
	if ValidateAssistantPath(t.TempDir()) {
		t.Error("directory validated as executable")
	}

	exe := filepath.Join(t.TempDir(), "assistant")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	if !ValidateAssistantPath(exe) {
		t.Errorf("executable %s not validated", exe)
	}
}
