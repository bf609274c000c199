package session

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/lazyvibe/vibepilot/internal/model"
	"github.com/lazyvibe/vibepilot/internal/notify"
	"github.com/lazyvibe/vibepilot/internal/pattern"
	"github.com/lazyvibe/vibepilot/internal/policy"
	"github.com/lazyvibe/vibepilot/internal/respond"
	"github.com/lazyvibe/vibepilot/internal/term"
)

const (
	// DefaultDebounce is the quiet window between a trigger hit and the
	// full-screen snapshot scan. Long enough for one redraw to settle.
	DefaultDebounce = 100 * time.Millisecond

	// tailLimit bounds the carried-over chunk tail so triggers split across
	// chunk boundaries are still seen by the phase-1 scan.
	tailLimit = 4096

	// refireCooldown suppresses re-answering the same rendered prompt while
	// the screen has not moved on yet.
	refireCooldown = 8 * time.Second
)

// Notifier receives decision events. Implementations must be best-effort.
type Notifier interface {
	Notify(event notify.Event)
}

// Recorder persists auto-accept events. Failures must never block a session.
type Recorder interface {
	RecordAccept(sessionID, patternID, matched string) error
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	SessionID string
	Config    model.EffectiveConfig
	Registry  *pattern.Registry
	Queue     *respond.Queue
	Screen    term.Screen
	Child     Child
	// Echo receives every raw output byte in arrival order, unmodified.
	Echo     io.Writer
	Notifier Notifier
	Recorder Recorder
	Debounce time.Duration
	Log      *slog.Logger
}

// Manager drives the two-phase prompt detection pipeline for one session:
// raw chunks feed the screen mirror and the cheap trigger scan; a trigger
// arms (or re-arms) the debounce timer; when it fires, the rendered screen is
// scanned with the full pattern set and each match is decided by policy.
type Manager struct {
	sessionID string
	cfg       model.EffectiveConfig
	registry  *pattern.Registry
	queue     *respond.Queue
	screen    term.Screen
	child     Child
	echo      io.Writer
	notifier  Notifier
	recorder  Recorder
	debounce  time.Duration
	log       *slog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	tail   string
	recent map[string]time.Time
	closed bool
}

// NewManager creates a session manager.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Manager{
		sessionID: opts.SessionID,
		cfg:       opts.Config,
		registry:  opts.Registry,
		queue:     opts.Queue,
		screen:    opts.Screen,
		child:     opts.Child,
		echo:      opts.Echo,
		notifier:  opts.Notifier,
		recorder:  opts.Recorder,
		debounce:  opts.Debounce,
		log:       opts.Log,
		recent:    make(map[string]time.Time),
	}
}

// HandleOutput processes one raw output chunk: the screen mirror is fed
// first, the bytes are echoed unmodified, and the stripped text (with the
// carried tail, so chunk boundaries never hide a trigger) runs through the
// phase-1 trigger scan.
func (m *Manager) HandleOutput(data []byte) {
	if len(data) == 0 {
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.screen.Feed(data)
	m.mu.Unlock()

	if m.echo != nil {
		_, _ = m.echo.Write(data)
	}

	plain := ansi.Strip(string(data))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	combined := m.tail + plain
	m.tail = trimTail(combined, tailLimit)
	if m.registry.Triggered(combined) {
		m.scheduleLocked()
	}
}

// scheduleLocked arms the debounce timer, replacing any outstanding one so
// the last trigger in a burst wins and a partially-rendered screen is never
// evaluated mid-redraw. At most one timer is alive at any time.
func (m *Manager) scheduleLocked() {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.debounce, m.evaluate)
}

// evaluate takes a full-screen snapshot, runs the phase-2 scan, and routes
// each match through the policy. A panic during matching or evaluation is
// logged and treated as no-match for this scan; a missed auto-response
// degrades to the user answering manually, which is always safe.
func (m *Manager) evaluate() {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("prompt evaluation panicked, treating as no match", "panic", r)
		}
	}()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	text := m.screen.Render()
	m.mu.Unlock()

	for _, match := range m.registry.Scan(text, "") {
		if !m.shouldFire(match) {
			continue
		}
		decision := policy.Decide(match, m.cfg)
		m.log.Debug("prompt decided",
			"pattern", match.PatternID,
			"decision", decision.String(),
			"matched", match.MatchedText)

		if decision == model.DecisionAccept {
			m.queue.Enqueue(match.Response...)
			if m.recorder != nil {
				if err := m.recorder.RecordAccept(m.sessionID, match.PatternID, match.MatchedText); err != nil {
					m.log.Debug("ledger write skipped", "error", err)
				}
			}
			if match.OnceOnly {
				m.registry.Remove(match.PatternID)
			}
		}
		m.notifyDecision(match, decision)
	}
}

// shouldFire suppresses re-answering an identical prompt occurrence while
// the screen content has not changed between snapshots.
func (m *Manager) shouldFire(match pattern.MatchResult) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := match.PatternID + "|" + match.MatchedText
	if last, ok := m.recent[key]; ok && time.Since(last) < refireCooldown {
		return false
	}
	m.recent[key] = time.Now()
	if len(m.recent) > 128 {
		for k, v := range m.recent {
			if time.Since(v) > refireCooldown {
				delete(m.recent, k)
			}
		}
	}
	return true
}

func (m *Manager) notifyDecision(match pattern.MatchResult, decision model.Decision) {
	if !match.Notify || !m.cfg.ShowNotifications || m.notifier == nil {
		return
	}
	event := notify.Event{
		SessionID: m.sessionID,
		PatternID: match.PatternID,
		Message:   match.MatchedText,
		Timestamp: time.Now(),
	}
	switch decision {
	case model.DecisionAccept:
		event.Type = notify.EventAccepted
		event.Title = "Prompt auto-accepted"
	default:
		event.Type = notify.EventInputRequired
		event.Title = "Input required"
	}
	m.notifier.Notify(event)
}

// Resize updates the child PTY geometry and the screen mirror. It completes
// synchronously, so any snapshot taken afterwards sees consistent column
// width for line-wrap-dependent patterns.
func (m *Manager) Resize(cols, rows int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	if m.child != nil {
		if err := m.child.Resize(cols, rows); err != nil {
			return err
		}
	}
	m.screen.Resize(cols, rows)
	return nil
}

// ExportSnapshot persists the current rendered screen under dir.
func (m *Manager) ExportSnapshot(dir string) (string, error) {
	return term.ExportSnapshot(m.screen, dir)
}

// Close tears the session down: the outstanding debounce timer is cleared,
// the queue is unbound, and the child is terminated. Idempotent; safe to
// invoke from both a signal handler and normal exit.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()

	m.queue.SetTarget(nil)
	if m.child != nil {
		return m.child.Stop()
	}
	return nil
}

func trimTail(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
