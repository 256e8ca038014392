package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytshots/internal/history"
)

var flagLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently captured screenshots",
	Args:  cobra.NoArgs,
	RunE:  historyRun,
}

func init() {
	historyCmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "Number of entries to show")
}

func historyRun(cmd *cobra.Command, args []string) error {
	if flagLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", flagLimit)
	}

	store, err := openHistory()
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), flagLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No captures recorded.")
		return nil
	}

	for _, line := range history.FormatForDisplay(entries) {
		fmt.Fprintln(out, line)
	}
	return nil
}
