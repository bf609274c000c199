package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lazyvibe/vibepilot/internal/model"
	"github.com/lazyvibe/vibepilot/internal/pattern"
	"github.com/lazyvibe/vibepilot/internal/respond"
)

// fakeScreen accumulates fed bytes verbatim. The tests feed plain text, so a
// real emulator is unnecessary.
type fakeScreen struct {
	mu      sync.Mutex
	content strings.Builder
	cols    int
	rows    int
}

func newFakeScreen() *fakeScreen { return &fakeScreen{cols: 80, rows: 24} }

func (s *fakeScreen) Feed(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content.Write(p)
}

func (s *fakeScreen) Render() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content.String()
}

func (s *fakeScreen) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cols, s.rows = cols, rows
}

func (s *fakeScreen) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// fakeChild records writes and stop calls.
type fakeChild struct {
	mu      sync.Mutex
	writes  []string
	stops   int
	resizes [][2]int
	output  chan []byte
}

func newFakeChild() *fakeChild { return &fakeChild{output: make(chan []byte)} }

func (c *fakeChild) Start(ctx context.Context) error { return nil }
func (c *fakeChild) Output() <-chan []byte           { return c.output }
func (c *fakeChild) Status() model.SessionStatus     { return model.SessionStatusRunning }
func (c *fakeChild) ExitErr() error                  { return nil }

func (c *fakeChild) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, string(data))
	return len(data), nil
}

func (c *fakeChild) Resize(cols, rows int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resizes = append(c.resizes, [2]int{cols, rows})
	return nil
}

func (c *fakeChild) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	return nil
}

func (c *fakeChild) written() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.writes, "")
}

func (c *fakeChild) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []string
}

func (r *fakeRecorder) RecordAccept(sessionID, patternID, matched string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, patternID)
	return nil
}

func (r *fakeRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.records...)
}

func yoloConfig() model.EffectiveConfig {
	return model.EffectiveConfig{
		Yolo:          true,
		YoloConfirmed: true,
		WorkDir:       "/tmp/project",
	}
}

func newTestManager(t *testing.T, cfg model.EffectiveConfig, patterns ...pattern.Pattern) (*Manager, *fakeChild, *fakeRecorder) {
	t.Helper()

	registry := pattern.NewRegistry()
	for _, p := range patterns {
		if err := registry.Add(p); err != nil {
			t.Fatalf("Add(%s): %v", p.ID, err)
		}
	}

	child := newFakeChild()
	queue := respond.NewQueue(nil)
	queue.SetTarget(child)
	recorder := &fakeRecorder{}

	m := NewManager(ManagerOptions{
		SessionID: "test-session",
		Config:    cfg,
		Registry:  registry,
		Queue:     queue,
		Screen:    newFakeScreen(),
		Child:     child,
		Recorder:  recorder,
		Debounce:  10 * time.Millisecond,
	})
	t.Cleanup(func() { _ = m.Close() })
	return m, child, recorder
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestManagerAutoAccepts(t *testing.T) {
	m, child, recorder := newTestManager(t, yoloConfig(), pattern.Pattern{
		ID:       "yes-no",
		Regex:    `\[y/n\]`,
		Trigger:  "[y/n]",
		Response: pattern.Literal("y\r"),
	})

	m.HandleOutput([]byte("Continue? [y/n] "))

	if !waitFor(t, time.Second, func() bool { return child.written() == "y\r" }) {
		t.Fatalf("child received %q, want %q", child.written(), "y\r")
	}
	if got := recorder.recorded(); len(got) != 1 || got[0] != "yes-no" {
		t.Errorf("ledger records = %v, want [yes-no]", got)
	}
}

func TestManagerLeavesPromptWithoutYolo(t *testing.T) {
	m, child, recorder := newTestManager(t, model.EffectiveConfig{}, pattern.Pattern{
		ID:       "yes-no",
		Regex:    `\[y/n\]`,
		Trigger:  "[y/n]",
		Response: pattern.Literal("y\r"),
	})

	m.HandleOutput([]byte("Continue? [y/n] "))
	time.Sleep(100 * time.Millisecond)

	if got := child.written(); got != "" {
		t.Errorf("child received %q without yolo, want nothing", got)
	}
	if got := recorder.recorded(); len(got) != 0 {
		t.Errorf("ledger records = %v, want none", got)
	}
}

func TestManagerTriggerSplitAcrossChunks(t *testing.T) {
	m, child, _ := newTestManager(t, yoloConfig(), pattern.Pattern{
		ID:       "yes-no",
		Regex:    `\[y/n\]`,
		Trigger:  "[y/n]",
		Response: pattern.Literal("y\r"),
	})

	// The trigger substring arrives split across two chunks; the carried
	// tail must still see it.
	m.HandleOutput([]byte("Continue? [y/"))
	m.HandleOutput([]byte("n] "))

	if !waitFor(t, time.Second, func() bool { return child.written() == "y\r" }) {
		t.Fatalf("child received %q, want %q", child.written(), "y\r")
	}
}

func TestManagerDebounceCollapsesBurst(t *testing.T) {
	m, child, _ := newTestManager(t, yoloConfig(), pattern.Pattern{
		ID:       "yes-no",
		Regex:    `\[y/n\]`,
		Trigger:  "[y/n]",
		Response: pattern.Literal("y\r"),
	})

	// A burst of chunks while the prompt redraws must produce one answer,
	// not one per chunk.
	m.HandleOutput([]byte("Continue? [y/n]"))
	m.HandleOutput([]byte(" \x1b[2m(esc to cancel)\x1b[0m"))
	m.HandleOutput([]byte(" "))

	if !waitFor(t, time.Second, func() bool { return child.writeCount() >= 1 }) {
		t.Fatal("prompt never answered")
	}
	time.Sleep(100 * time.Millisecond)
	if got := child.writeCount(); got != 1 {
		t.Errorf("child got %d writes, want 1", got)
	}
}

func TestManagerOnceOnlyRetiresPattern(t *testing.T) {
	registry := pattern.NewRegistry()
	if err := registry.Add(pattern.Pattern{
		ID:       "theme-select",
		Regex:    `Choose the text style`,
		Trigger:  "Choose the text style",
		Kind:     pattern.KindStartup,
		Response: pattern.Literal("\r"),
		OnceOnly: true,
	}); err != nil {
		t.Fatal(err)
	}

	child := newFakeChild()
	queue := respond.NewQueue(nil)
	queue.SetTarget(child)

	m := NewManager(ManagerOptions{
		SessionID: "test-session",
		Config:    model.EffectiveConfig{},
		Registry:  registry,
		Queue:     queue,
		Screen:    newFakeScreen(),
		Child:     child,
		Debounce:  10 * time.Millisecond,
	})
	defer m.Close()

	m.HandleOutput([]byte("Choose the text style that looks best"))

	if !waitFor(t, time.Second, func() bool { return !registry.Has("theme-select") }) {
		t.Error("once-only pattern still registered after acceptance")
	}
	if child.written() != "\r" {
		t.Errorf("child received %q, want %q", child.written(), "\r")
	}
}

func TestManagerSequenceResponseContiguous(t *testing.T) {
	m, child, _ := newTestManager(t, yoloConfig(), pattern.Pattern{
		ID:       "menu",
		Regex:    `Bypass Permissions mode`,
		Trigger:  "Bypass Permissions",
		Response: pattern.Sequence("2", "\r"),
	})

	m.HandleOutput([]byte("1. Normal  2. Bypass Permissions mode"))

	if !waitFor(t, time.Second, func() bool { return child.written() == "2\r" }) {
		t.Fatalf("child received %q, want %q", child.written(), "2\r")
	}
}

func TestManagerResize(t *testing.T) {
	m, child, _ := newTestManager(t, yoloConfig())

	if err := m.Resize(132, 43); err != nil {
		t.Fatalf("Resize: %v", err)
	}

	child.mu.Lock()
	defer child.mu.Unlock()
	if len(child.resizes) != 1 || child.resizes[0] != [2]int{132, 43} {
		t.Errorf("child resizes = %v, want [[132 43]]", child.resizes)
	}
}

func TestManagerCloseIsIdempotent(t *testing.T) {
	m, child, _ := newTestManager(t, yoloConfig())

	if err := m.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	child.mu.Lock()
	stops := child.stops
	child.mu.Unlock()
	if stops != 1 {
		t.Errorf("child stopped %d times, want 1", stops)
	}

	// Output after close is ignored without panicking.
	m.HandleOutput([]byte("Continue? [y/n]"))
}

func TestManagerRefireCooldown(t *testing.T) {
	m, child, _ := newTestManager(t, yoloConfig(), pattern.Pattern{
		ID:       "yes-no",
		Regex:    `\[y/n\]`,
		Trigger:  "[y/n]",
		Response: pattern.Literal("y\r"),
	})

	m.HandleOutput([]byte("Continue? [y/n]"))
	if !waitFor(t, time.Second, func() bool { return child.writeCount() == 1 }) {
		t.Fatal("prompt never answered")
	}

	// The same rendered prompt a moment later must not be answered again.
	m.HandleOutput([]byte(" "))
	time.Sleep(100 * time.Millisecond)
	if got := child.writeCount(); got != 1 {
		t.Errorf("child got %d writes, want 1 (cooldown)", got)
	}
}
