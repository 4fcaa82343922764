// Package cmd provides the CLI commands for jump.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/logging"
	"github.com/Aman-CERP/jump/internal/profiling"
	"github.com/Aman-CERP/jump/pkg/version"
)

// Profiling flags
var (
	profileFlags profiling.Flags
	profiler     *profiling.Profiler
)

// Global flags
var (
	rootFlag       string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the jump CLI.
func NewRootCmd() *cobra.Command {
	var opts pickOptions

	cmd := &cobra.Command{
		Use:   "jump [query]",
		Short: "Fuzzy jump to files, symbols and commands",
		Long: `jump ranks the files, symbols and commands of a project against a
short query and takes you to the one you meant.

On a terminal it opens the interactive picker. Otherwise it prints the
ranked candidates, like 'jump query'.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.query = strings.Join(args, " ")
			return runPick(cmd, opts)
		},
	}

	cmd.SetVersionTemplate("jump version {{.Version}}\n")
	addPickFlags(cmd, &opts)

	cmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Project root (default: nearest directory with .git or go.mod)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.jump/logs/ and stderr")

	cmd.PersistentFlags().StringVar(&profileFlags.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileFlags.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileFlags.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newPickCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if debugMode {
		cleanup, err := logging.SetupDefault(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.Info("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}

	if profileFlags.Enabled() {
		p, err := profiling.Start(profileFlags)
		if err != nil {
			return err
		}
		profiler = p
	}
	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profiler != nil {
		err = profiler.Stop()
		profiler = nil
	}

	if loggingCleanup != nil {
		slog.Info("debug_logging_stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		_, _ = fmt.Fprint(os.Stderr, jerrors.FormatForCLI(err))
	}
	return err
}
