package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	xterm "github.com/charmbracelet/x/term"
	"github.com/lazyvibe/vibepilot/internal/model"
	"github.com/lazyvibe/vibepilot/internal/pattern"
	"github.com/lazyvibe/vibepilot/internal/respond"
	"github.com/lazyvibe/vibepilot/internal/term"
)

// snapshotKey is the raw byte the user presses to export a rendered-screen
// snapshot (Ctrl-]). It is intercepted and never forwarded to the child.
const snapshotKey = 0x1d

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	SessionID      string
	Config         model.EffectiveConfig
	Registry       *pattern.Registry
	Notifier       Notifier
	Recorder       Recorder
	AssistantPath  string
	AssistantArgs  []string
	Env            []string
	Debounce       time.Duration
	SnapshotDir    string
	TranscriptPath string
	NoPTY          bool
	Log            *slog.Logger
}

// Runner is the thin orchestration glue: it wires configuration, registry,
// queue, screen and manager together, forwards real user keystrokes to the
// child, and owns terminal raw mode and signal handling.
type Runner struct {
	opts       RunnerOptions
	log        *slog.Logger
	manager    *Manager
	child      Child
	transcript *transcriptBuffer

	cleanupOnce sync.Once
	restoreTerm func()
}

// NewRunner creates a runner for one wrapped session.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Runner{
		opts:       opts,
		log:        opts.Log,
		transcript: newTranscriptBuffer(256 * 1024),
	}
}

// Run spawns the assistant and relays terminal traffic until it exits.
// It returns the child's exit code.
func (r *Runner) Run(ctx context.Context) (int, error) {
	cols, rows := 80, 24
	if w, h, err := xterm.GetSize(os.Stdout.Fd()); err == nil && w > 0 && h > 0 {
		cols, rows = w, h
	}

	if r.opts.NoPTY {
		r.child = NewPipeChild(r.opts.AssistantPath, r.opts.AssistantArgs, r.opts.Config.WorkDir, r.opts.Env)
	} else {
		r.child = NewPTYChild(r.opts.AssistantPath, r.opts.AssistantArgs, r.opts.Config.WorkDir, r.opts.Env, cols, rows)
	}

	screen := term.NewVT(cols, rows)
	queue := respond.NewQueue(r.log)

	r.manager = NewManager(ManagerOptions{
		SessionID: r.opts.SessionID,
		Config:    r.opts.Config,
		Registry:  r.opts.Registry,
		Queue:     queue,
		Screen:    screen,
		Child:     r.child,
		Echo:      io.MultiWriter(os.Stdout, r.transcript),
		Notifier:  r.opts.Notifier,
		Recorder:  r.opts.Recorder,
		Debounce:  r.opts.Debounce,
		Log:       r.log,
	})

	if err := r.child.Start(ctx); err != nil {
		return exitCode(err), err
	}
	queue.SetTarget(r.child)

	if state, err := xterm.MakeRaw(os.Stdin.Fd()); err == nil {
		fd := os.Stdin.Fd()
		r.restoreTerm = func() { _ = xterm.Restore(fd, state) }
	} else {
		r.log.Debug("raw mode unavailable", "error", err)
	}
	defer r.cleanup()

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGWINCH, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go r.handleSignals(sigCh)

	go r.forwardStdin()

	for data := range r.child.Output() {
		r.manager.HandleOutput(data)
	}

	r.cleanup()
	return exitCode(r.child.ExitErr()), nil
}

// handleSignals resizes on SIGWINCH and tears down on termination signals.
// In raw mode Ctrl-C reaches the child as a byte, not as SIGINT.
func (r *Runner) handleSignals(ch <-chan os.Signal) {
	for sig := range ch {
		switch sig {
		case syscall.SIGWINCH:
			if w, h, err := xterm.GetSize(os.Stdout.Fd()); err == nil && w > 0 && h > 0 {
				if err := r.manager.Resize(w, h); err != nil {
					r.log.Debug("resize failed", "error", err)
				}
			}
		case syscall.SIGTERM, syscall.SIGHUP:
			r.cleanup()
			return
		}
	}
}

// forwardStdin relays raw user keystrokes to the child unmodified, except
// for the snapshot key, which is intercepted.
func (r *Runner) forwardStdin() {
	buf := make([]byte, 1024)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			data := buf[:n]
			for {
				i := bytes.IndexByte(data, snapshotKey)
				if i < 0 {
					break
				}
				if i > 0 {
					_, _ = r.child.Write(data[:i])
				}
				r.exportSnapshot()
				data = data[i+1:]
			}
			if len(data) > 0 {
				if _, werr := r.child.Write(data); werr != nil {
					return
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func (r *Runner) exportSnapshot() {
	dir := r.opts.SnapshotDir
	if dir == "" {
		dir = "."
	}
	path, err := r.manager.ExportSnapshot(dir)
	if err != nil {
		r.log.Debug("snapshot export skipped", "error", err)
		return
	}
	r.log.Info("snapshot exported", "path", path)
}

// cleanup restores the terminal, stops the session, and writes the optional
// transcript. Safe to invoke multiple times.
func (r *Runner) cleanup() {
	r.cleanupOnce.Do(func() {
		if r.restoreTerm != nil {
			r.restoreTerm()
		}
		if r.manager != nil {
			_ = r.manager.Close()
		}
		if r.opts.TranscriptPath != "" && r.transcript.Len() > 0 {
			if err := os.WriteFile(r.opts.TranscriptPath, r.transcript.Bytes(), 0644); err != nil {
				r.log.Warn("transcript write failed", "path", r.opts.TranscriptPath, "error", err)
			}
		}
	})
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	var spawnErr *SpawnError
	if errors.As(err, &spawnErr) {
		return 127
	}
	return 1
}

// FormatSpawnFailure renders the fatal spawn diagnostic with the attempted
// path and raw OS error.
func FormatSpawnFailure(err error) string {
	var spawnErr *SpawnError
	if errors.As(err, &spawnErr) {
		return fmt.Sprintf("failed to launch assistant\n  command: %s\n  error:   %v", spawnErr.Path, spawnErr.Err)
	}
	return fmt.Sprintf("failed to launch assistant: %v", err)
}
