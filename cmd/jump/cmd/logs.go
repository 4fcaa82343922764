package cmd

import (
	"context"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/logging"
	"github.com/Aman-CERP/jump/internal/ui"
)

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	filter  string
	noColor bool
	logFile string
}

func newLogsCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View jump logs",
		Long: `Show the last lines of the jump log, or follow it with -f.

The MCP server always logs to the file; other commands log there with
--debug.`,
		Example: `  jump logs                 # Last 50 lines
  jump logs -f              # Follow new entries
  jump logs --level warn    # Warnings and errors only
  jump logs --filter watch  # Entries matching a pattern`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Filter by pattern (regex)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&opts.logFile, "file", "", "Path to log file")

	return cmd
}

func runLogs(cmd *cobra.Command, opts logsOptions) error {
	// The log directory is configurable; fall back to the default when the
	// configuration cannot be read.
	logDir := ""
	if _, cfg, err := loadConfig(); err == nil {
		logDir = cfg.Paths.LogDir
	}

	path, err := logging.FindLogFile(opts.logFile, logDir)
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		pattern, err = regexp.Compile(opts.filter)
		if err != nil {
			return jerrors.New(jerrors.ErrCodeInvalidInput, "invalid filter pattern", err)
		}
	}

	out := cmd.OutOrStdout()
	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   opts.level,
		Pattern: pattern,
		NoColor: opts.noColor || ui.DetectNoColor() || !ui.IsTTY(out),
	}, out)

	errOut := cmd.ErrOrStderr()
	_, _ = fmt.Fprintf(errOut, "Log file: %s\n", path)

	if !opts.follow {
		entries, err := viewer.Tail(path, opts.lines)
		if err != nil {
			return err
		}
		viewer.Print(entries)
		return nil
	}

	_, _ = fmt.Fprintln(errOut, "Following... (Ctrl+C to stop)")
	return followLogs(cmd.Context(), viewer, path, func(line string) {
		_, _ = fmt.Fprintln(out, line)
	})
}

func followLogs(ctx context.Context, viewer *logging.Viewer, path string, emit func(string)) error {
	entries := make(chan logging.LogEntry, 100)
	errCh := make(chan error, 1)

	go func() {
		errCh <- viewer.Follow(ctx, path, entries)
	}()

	for {
		select {
		case entry := <-entries:
			emit(viewer.FormatEntry(entry))
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return nil
		}
	}
}
