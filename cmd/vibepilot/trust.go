package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lazyvibe/vibepilot/internal/app"
	"github.com/lazyvibe/vibepilot/internal/store"
)

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Manage trusted roots for unattended sessions",
}

var trustListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trusted roots",
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := openTrustStore()
		if err != nil {
			return err
		}
		roots := ts.Roots()
		if len(roots) == 0 {
			fmt.Println("No trusted roots.")
			return nil
		}
		for _, r := range roots {
			fmt.Println(r)
		}
		return nil
	},
}

var trustAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Add a trusted root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := openTrustStore()
		if err != nil {
			return err
		}
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		if err := ts.Add(root); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				color.Yellow("already trusted: %s", root)
				return nil
			}
			return err
		}
		color.Green("trusted: %s", root)
		return nil
	},
}

var trustRemoveCmd = &cobra.Command{
	Use:   "remove <path>",
	Short: "Remove a trusted root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := openTrustStore()
		if err != nil {
			return err
		}
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		if err := ts.Remove(root); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				color.Yellow("not trusted: %s", root)
				return nil
			}
			return err
		}
		color.Green("removed: %s", root)
		return nil
	},
}

func init() {
	trustCmd.AddCommand(trustListCmd)
	trustCmd.AddCommand(trustAddCmd)
	trustCmd.AddCommand(trustRemoveCmd)
}

func openTrustStore() (*store.TrustStore, error) {
	return store.NewTrustStore(app.TrustStorePath())
}
