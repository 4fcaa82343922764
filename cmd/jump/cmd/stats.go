package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/jump/internal/output"
	"github.com/Aman-CERP/jump/internal/telemetry"
	"github.com/Aman-CERP/jump/internal/ui"
)

func newStatsCmd() *cobra.Command {
	var (
		jsonOutput bool
		noColor    bool
		days       int
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show query statistics",
		Long: `Display the query telemetry recorded on this machine:
  - Queries per mode (file, symbol, command, mixed)
  - Latency distribution
  - Most frequent queries
  - Recent queries that matched nothing`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, days, limit, jsonOutput, noColor)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to include")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of queries to list")

	return cmd
}

func runStats(cmd *cobra.Command, days, limit int, jsonOutput, noColor bool) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	renderer := ui.NewStatsRenderer(out, noColor || ui.DetectNoColor() || !ui.IsTTY(out))

	// Opening the store would create it; an absent database just means
	// nothing was recorded yet.
	if _, err := os.Stat(cfg.Telemetry.DBPath); err != nil {
		if jsonOutput {
			return renderer.RenderJSON(&telemetry.Report{Days: days})
		}
		w := output.New(out)
		w.Warning("No telemetry recorded yet")
		if !cfg.Telemetry.Enabled {
			w.Status("💡", "Telemetry is disabled, set telemetry.enabled: true to record queries")
		}
		return nil
	}

	store, err := telemetry.OpenSQLiteStore(cfg.Telemetry.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	report, err := store.Report(days, limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return renderer.RenderJSON(report)
	}
	return renderer.Render(report)
}
