package session

import (
	"context"
	"errors"
	"testing"

	"github.com/lazyvibe/vibepilot/internal/model"
	"github.com/lazyvibe/vibepilot/internal/pattern"
)

func TestRunnerSpawnFailureExitCode(t *testing.T) {
	r := NewRunner(RunnerOptions{
		SessionID:     "test-session",
		Config:        model.EffectiveConfig{},
		Registry:      pattern.NewRegistry(),
		AssistantPath: "/nonexistent/assistant-binary",
		NoPTY:         true,
	})

	code, err := r.Run(context.Background())
	if err == nil {
		t.Fatal("expected a spawn error")
	}
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("error %v is not a SpawnError", err)
	}
	if code != 127 {
		t.Errorf("exit code = %d, want 127", code)
	}
}
