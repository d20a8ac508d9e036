// Package cmd is the cobra command tree for photodedupe, grounded on
// the ooyeku-issuemap cmd/root.go shape: a package-level rootCmd, an
// Execute() entry point called from main, and one file per verb that
// registers itself onto rootCmd from its own init().
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "photodedupe",
	Short: "Find and organize duplicate photos and videos",
	Long: `photodedupe scans one or more source directories for photos and
videos, groups near-duplicates by perceptual hash and frame-sequence
similarity, and organizes the unique files and their best
representatives into a destination tree.`,
	Version: "0.1.0",
}

// Execute runs the command tree. Exit codes follow SPEC_FULL.md §6:
// 0 on success, 1 on an unhandled error, 130 on interrupt.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	if isInterrupt(err) {
		return 130
	}
	return 1
}
