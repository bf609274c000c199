package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lazyvibe/vibepilot/internal/app"
	"github.com/lazyvibe/vibepilot/internal/model"
	"github.com/lazyvibe/vibepilot/internal/notify"
	"github.com/lazyvibe/vibepilot/internal/pattern"
	"github.com/lazyvibe/vibepilot/internal/session"
	"github.com/lazyvibe/vibepilot/internal/store"
)

var (
	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	fatalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func printFatal(err error) {
	fmt.Fprintln(os.Stderr, fatalStyle.Render("vibepilot: "+err.Error()))
}

func runSession(cmd *cobra.Command, args []string) error {
	logger := newLogger(flagVerbose)
	slog.SetDefault(logger)

	cfg, err := app.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(cmd, cfg)

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	assistantPath := cfg.Assistant.Path
	if assistantPath == "" {
		assistantPath = app.DetectAssistantPath("claude")
	}
	if !app.ValidateAssistantPath(assistantPath) {
		return fmt.Errorf("assistant executable not found; install it or set assistant.path in %s", app.UserConfigPath())
	}

	trustRoots := loadTrustRoots(logger)
	effective := cfg.Effective(workDir, trustRoots)

	// The one-time confirmation happens before raw mode, while line-based
	// input still works.
	if effective.Yolo && !effective.DangerouslySuppressYoloConfirmation {
		effective.YoloConfirmed = confirmYolo()
		if !effective.YoloConfirmed {
			fmt.Fprintln(os.Stderr, warnStyle.Render("YOLO not confirmed; prompts will be left for you to answer."))
		}
	}

	registry := pattern.NewBuiltinRegistry()
	if flagVerbose {
		registry.SetTrace(logger)
	}

	var watcher *pattern.Watcher
	if catalogPath := cfg.CatalogPath(); catalogPath != "" {
		if cfg.Patterns.Watch {
			watcher, err = pattern.NewWatcher(registry, catalogPath, logger)
			if err != nil {
				logger.Warn("pattern catalog unavailable", "path", catalogPath, "error", err)
			}
		} else {
			patterns, loadErr := pattern.LoadFile(catalogPath)
			if _, mergeErr := pattern.Merge(registry, patterns); mergeErr != nil {
				logger.Warn("pattern catalog partially merged", "path", catalogPath, "error", mergeErr)
			}
			if loadErr != nil {
				logger.Warn("pattern catalog partially loaded", "path", catalogPath, "error", loadErr)
			}
		}
	}

	var recorder session.Recorder
	ledger, err := store.OpenLedger(cfg.LedgerPath())
	if err != nil {
		logger.Warn("auto-accept ledger unavailable", "error", err)
	} else {
		recorder = ledger
	}

	sessionID := uuid.NewString()
	if !flagNoBanner {
		fmt.Fprintln(os.Stderr, bannerStyle.Render(fmt.Sprintf("vibepilot %s · session %s", version, sessionID[:8])))
	}

	runner := session.NewRunner(session.RunnerOptions{
		SessionID:      sessionID,
		Config:         effective,
		Registry:       registry,
		Notifier:       newNotifier(cfg.Notifications),
		Recorder:       recorder,
		AssistantPath:  assistantPath,
		AssistantArgs:  append(append([]string{}, cfg.Assistant.Args...), args...),
		Env:            os.Environ(),
		Debounce:       cfg.Session.Debounce,
		SnapshotDir:    cfg.Session.SnapshotDir,
		TranscriptPath: cfg.Session.TranscriptPath,
		NoPTY:          cfg.Session.NoPTY,
		Log:            logger,
	})

	code, runErr := runner.Run(context.Background())

	if watcher != nil {
		_ = watcher.Close()
	}
	if ledger != nil {
		_ = ledger.Close()
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, fatalStyle.Render(session.FormatSpawnFailure(runErr)))
		sessionExitCode = code
		return nil
	}
	sessionExitCode = code
	return nil
}

// applyFlagOverrides layers explicit command-line flags over the loaded
// configuration. Only flags the user actually set are applied.
func applyFlagOverrides(cmd *cobra.Command, cfg *app.Config) {
	flags := cmd.Flags()
	if flags.Changed("yolo") {
		cfg.Yolo.Enabled = flagYolo
	}
	if flags.Changed("dangerously-suppress-yolo-confirmation") {
		cfg.Yolo.DangerouslySuppressConfirmation = flagSuppressConfirm
	}
	if flags.Changed("dangerously-allow-in-untrusted-root") {
		cfg.Yolo.DangerouslyAllowInUntrustedRoot = flagUntrustedRoot
	}
	if flags.Changed("plan") && flagPlan {
		cfg.Assistant.Mode = string(model.ModePlan)
	}
	if flags.Changed("no-pty") {
		cfg.Session.NoPTY = flagNoPTY
	}
	if flags.Changed("assistant") {
		cfg.Assistant.Path = flagAssistant
	}
	if flags.Changed("debounce") {
		if d, err := time.ParseDuration(flagDebounce); err == nil && d > 0 {
			cfg.Session.Debounce = d
		}
	}
	if flags.Changed("transcript") {
		cfg.Session.TranscriptPath = flagTranscript
	}
	if flags.Changed("snapshot-dir") {
		cfg.Session.SnapshotDir = flagSnapshotDir
	}
	if flags.Changed("patterns") {
		cfg.Patterns.CatalogPath = flagPatternsFile
	}
	if flags.Changed("watch-patterns") {
		cfg.Patterns.Watch = flagWatchPatterns
	}
	if flags.Changed("notify") {
		cfg.Notifications.Desktop = flagNotify
	}
	if flags.Changed("webhook") {
		cfg.Notifications.WebhookURL = flagWebhook
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadTrustRoots(logger *slog.Logger) []string {
	ts, err := store.NewTrustStore(app.TrustStorePath())
	if err != nil {
		logger.Warn("trust store unavailable", "error", err)
		return nil
	}
	return ts.Roots()
}

// confirmYolo asks once per session before unattended acceptance is armed.
func confirmYolo() bool {
	fmt.Fprint(os.Stderr, warnStyle.Render("YOLO mode will answer confirmation prompts without asking you.")+"\nProceed? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// dispatchNotifier adapts the notify dispatcher to the session's Notifier.
// Delivery runs off the session goroutines so a slow webhook never stalls
// output handling.
type dispatchNotifier struct {
	dispatcher *notify.Dispatcher
	cfg        model.NotificationConfig
}

func newNotifier(cfg model.NotificationConfig) *dispatchNotifier {
	return &dispatchNotifier{
		dispatcher: notify.NewDispatcher(),
		cfg:        cfg,
	}
}

func (n *dispatchNotifier) Notify(event notify.Event) {
	go n.dispatcher.Dispatch(context.Background(), n.cfg, event)
}
