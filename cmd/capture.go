package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ytshots/internal/media"
	"ytshots/internal/naming"
	"ytshots/internal/screenshot"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// captureRun is the default command: ytshots --url URL --timestamps ...
func captureRun(cmd *cobra.Command, args []string) error {
	timestamps, err := collectTimestamps(flagTimestamps, flagTimestampsFile, args)
	if err != nil {
		return err
	}

	// Arguments are valid; failures from here on are not usage errors.
	cmd.SilenceUsage = true

	out := cmd.OutOrStdout()
	videoDir := filepath.Join(cfg.OutputDirBase, naming.FolderName(cfg.FilePrefix, flagURL))

	if !flagJSON {
		fmt.Fprintf(out, "\nProcessing YouTube URL: %s\n", flagURL)
		if flagTimestampsFile != "" {
			fmt.Fprintf(out, "Reading timestamps from file: %s\n", flagTimestampsFile)
		}
		fmt.Fprintf(out, "Requested timestamps: %s\n", strings.Join(timestamps, ", "))
		fmt.Fprintf(out, "Screenshots will be saved in a subfolder within: %s\n", screenshot.OutputDir(cfg.OutputDirBase))
		fmt.Fprintf(out, "Specifically, in: %s\n\n", screenshot.OutputDir(videoDir))
	}

	shots, err := newService().Take(cmd.Context(), flagURL, timestamps, videoDir)
	if err != nil {
		if !flagJSON {
			printSummary(out, nil)
		}
		return fmt.Errorf("no screenshots were saved: %w", err)
	}

	if cfg.History && len(shots) > 0 {
		recordHistory(cmd, shots)
	}

	paths := screenshot.Paths(shots)
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(paths)
	}

	printSummary(out, paths)
	fmt.Fprintln(out, "\nScript finished.")
	return nil
}

func recordHistory(cmd *cobra.Command, shots []media.Screenshot) {
	store, err := openHistory()
	if err != nil {
		logger.Debug("opening history failed", zap.Error(err))
		return
	}
	defer store.Close()

	if _, err := store.Record(cmd.Context(), flagURL, naming.DeriveStem(flagURL), shots); err != nil {
		logger.Debug("saving history failed", zap.Error(err))
	}
}

// collectTimestamps returns the timestamps to process from either the inline
// list (plus trailing positional arguments) or a file.
func collectTimestamps(inline []string, file string, args []string) ([]string, error) {
	var timestamps []string
	if file != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("unexpected arguments %q with --timestamps_file", args)
		}
		var err error
		timestamps, err = readTimestampsFile(file)
		if err != nil {
			return nil, err
		}
		if len(timestamps) == 0 {
			return nil, fmt.Errorf("timestamps file %q is empty or contains no valid timestamps", file)
		}
		return timestamps, nil
	}

	if len(inline) == 0 && len(args) > 0 {
		return nil, fmt.Errorf("unexpected arguments %q (did you mean --timestamps?)", args)
	}
	timestamps = append(append(timestamps, inline...), args...)

	for _, ts := range timestamps {
		if strings.TrimSpace(ts) != "" {
			return timestamps, nil
		}
	}
	return nil, fmt.Errorf("no timestamps to process: provide them via -t/--timestamps or -f/--timestamps_file")
}

// readTimestampsFile reads one timestamp per line, trimming whitespace and
// skipping blank lines.
func readTimestampsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("timestamps file not found: %s", path)
		}
		return nil, fmt.Errorf("reading timestamps file %q: %w", path, err)
	}
	defer f.Close()

	var timestamps []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		timestamps = append(timestamps, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading timestamps file %q: %w", path, err)
	}

	return timestamps, nil
}

// printSummary prints the saved paths or a no-results notice.
func printSummary(w io.Writer, paths []string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("--- Summary ---"))
	if len(paths) == 0 {
		fmt.Fprintln(w, warnStyle.Render("No screenshots were saved, or an error occurred. Check the logs above."))
		return
	}
	fmt.Fprintln(w, okStyle.Render("Screenshots saved successfully:"))
	for _, p := range paths {
		fmt.Fprintf(w, "- %s\n", p)
	}
}
