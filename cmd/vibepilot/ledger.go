package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lazyvibe/vibepilot/internal/app"
	"github.com/lazyvibe/vibepilot/internal/store"
)

var (
	ledgerLimit   int
	ledgerSession string
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show recorded auto-accept events",
	RunE:  runLedger,
}

func init() {
	ledgerCmd.Flags().IntVar(&ledgerLimit, "limit", 20, "Maximum number of events to show")
	ledgerCmd.Flags().StringVar(&ledgerSession, "session", "", "Show events of one session only")
}

func runLedger(cmd *cobra.Command, args []string) error {
	cfg, err := app.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path := cfg.LedgerPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No ledger yet; nothing has been auto-accepted.")
		return nil
	}

	ledger, err := store.OpenLedger(path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer ledger.Close()

	var records []store.AcceptRecord
	if ledgerSession != "" {
		records, err = ledger.BySession(ledgerSession)
	} else {
		records, err = ledger.Recent(ledgerLimit)
	}
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No auto-accept events recorded.")
		return nil
	}

	timeColor := color.New(color.FgHiBlack)
	patternColor := color.New(color.FgGreen)
	for _, r := range records {
		fmt.Printf("%s  %s  %s  %s\n",
			timeColor.Sprint(r.AcceptedAt.Format("2006-01-02 15:04:05")),
			shortID(r.SessionID),
			patternColor.Sprint(r.PatternID),
			truncate(r.MatchedText, 60))
	}
	return nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
