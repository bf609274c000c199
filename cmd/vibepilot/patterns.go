package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lazyvibe/vibepilot/internal/app"
	"github.com/lazyvibe/vibepilot/internal/pattern"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect and validate prompt patterns",
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active patterns (built-ins plus catalog)",
	RunE:  runPatternsList,
}

var patternsValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate an external pattern catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatternsValidate,
}

func init() {
	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsValidateCmd)
}

func runPatternsList(cmd *cobra.Command, args []string) error {
	registry := pattern.NewBuiltinRegistry()

	var catalogPath string
	if cfg, err := app.Load(); err == nil {
		catalogPath = cfg.CatalogPath()
	}
	if catalogPath != "" {
		patterns, loadErr := pattern.LoadFile(catalogPath)
		_, mergeErr := pattern.Merge(registry, patterns)
		if loadErr != nil {
			color.Yellow("catalog %s: %v", catalogPath, loadErr)
		}
		if mergeErr != nil {
			color.Yellow("catalog %s: %v", catalogPath, mergeErr)
		}
	}

	idColor := color.New(color.FgGreen, color.Bold)
	dimColor := color.New(color.FgHiBlack)

	for _, p := range registry.Patterns() {
		flags := ""
		if p.OnceOnly {
			flags += " once"
		}
		if p.Notify {
			flags += " notify"
		}
		if p.Response.IsZero() {
			flags += " no-response"
		}
		fmt.Printf("%s  %s/%s%s\n", idColor.Sprint(p.ID), p.Category, p.Kind, dimColor.Sprint(flags))
		fmt.Printf("    regex:   %s\n", p.Regex)
		if p.Trigger != "" {
			fmt.Printf("    trigger: %q\n", p.Trigger)
		}
	}
	return nil
}

func runPatternsValidate(cmd *cobra.Command, args []string) error {
	patterns, err := pattern.LoadFile(args[0])
	if err != nil {
		color.Red("invalid: %v", err)
		os.Exit(1)
	}
	color.Green("ok: %d pattern(s)", len(patterns))
	return nil
}
