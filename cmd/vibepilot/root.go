package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagYolo            bool
	flagSuppressConfirm bool
	flagUntrustedRoot   bool
	flagPlan            bool
	flagNoPTY           bool
	flagAssistant       string
	flagDebounce        string
	flagTranscript      string
	flagSnapshotDir     string
	flagPatternsFile    string
	flagWatchPatterns   bool
	flagNotify          bool
	flagWebhook         string
	flagVerbose         bool
	flagNoBanner        bool
	sessionExitCode     int
)

var rootCmd = &cobra.Command{
	Use:   "vibepilot [flags] -- [assistant args]",
	Short: "Autopilot wrapper for interactive AI coding assistants",
	Long: `VibePilot runs an AI coding assistant inside a pseudo-terminal,
mirrors its screen, and answers known interactive prompts automatically.

Everything the assistant prints is relayed to your terminal unmodified, and
your keystrokes reach the assistant untouched. When a known prompt appears
(a trust question, a y/n confirmation, a tool approval), VibePilot decides
per policy whether to answer it for you or leave it on screen.

Arguments after -- are passed to the assistant verbatim.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSession,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printFatal(err)
		os.Exit(1)
	}
	if sessionExitCode != 0 {
		os.Exit(sessionExitCode)
	}
}

func init() {
	f := rootCmd.Flags()
	f.BoolVar(&flagYolo, "yolo", false, "Automatically accept confirmation prompts")
	f.BoolVar(&flagSuppressConfirm, "dangerously-suppress-yolo-confirmation", false, "Skip the one-time YOLO confirmation")
	f.BoolVar(&flagUntrustedRoot, "dangerously-allow-in-untrusted-root", false, "Accept trust prompts in any directory")
	f.BoolVar(&flagPlan, "plan", false, "Run the assistant in plan mode")
	f.BoolVar(&flagNoPTY, "no-pty", false, "Use plain pipes instead of a pseudo-terminal")
	f.StringVar(&flagAssistant, "assistant", "", "Assistant executable (default: auto-detect)")
	f.StringVar(&flagDebounce, "debounce", "", "Quiet window before a prompt scan (e.g. 100ms)")
	f.StringVar(&flagTranscript, "transcript", "", "Write the raw transcript tail to this file on exit")
	f.StringVar(&flagSnapshotDir, "snapshot-dir", "", "Directory for Ctrl-] screen snapshots")
	f.StringVar(&flagPatternsFile, "patterns", "", "Extra pattern catalog (YAML)")
	f.BoolVar(&flagWatchPatterns, "watch-patterns", false, "Reload the pattern catalog when it changes")
	f.BoolVar(&flagNotify, "notify", false, "Send desktop notifications on decisions")
	f.StringVar(&flagWebhook, "webhook", "", "Send webhook notifications to this URL")
	f.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	f.BoolVar(&flagNoBanner, "no-banner", false, "Suppress the startup banner")

	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(trustCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(versionCmd)
}
