package cmd

import (
	"encoding/json"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/jump/internal/output"
	"github.com/Aman-CERP/jump/internal/profiling"
	"github.com/Aman-CERP/jump/internal/session"
)

// defaultBenchQueries cover short, long, separator-heavy and camel-case
// queries.
var defaultBenchQueries = []string{"m", "main", "srvgo", "internal/rank", "NewSrv", "cfgshow"}

type benchQuery struct {
	Query   string        `json:"query"`
	Results int           `json:"results"`
	Mean    time.Duration `json:"mean_ns"`
	Min     time.Duration `json:"min_ns"`
	Max     time.Duration `json:"max_ns"`
}

type benchReport struct {
	Root       string        `json:"root"`
	Mode       string        `json:"mode"`
	Candidates int           `json:"candidates"`
	Load       time.Duration `json:"load_ns"`
	Iterations int           `json:"iterations"`
	Queries    []benchQuery  `json:"queries"`
	HeapAlloc  uint64        `json:"heap_alloc_bytes"`
	Sys        uint64        `json:"sys_bytes"`
}

func newBenchCmd() *cobra.Command {
	var (
		kind       string
		iterations int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "bench [queries...]",
		Short: "Measure load and query latency on this project",
		Long: `Load the candidates of the project once, then run each query repeatedly
and report the load time, per-query latency and memory use.

Benchmark queries are not recorded in telemetry. Combine with
--profile-cpu to see where ranking time goes.`,
		Example: `  jump bench
  jump bench --kind all --iterations 50 main cfg
  jump bench --profile-cpu cpu.prof`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = defaultBenchQueries
			}
			return runBench(cmd, kind, args, iterations, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "all", "Kinds to load: file, symbol, command, a comma separated list, or all")
	cmd.Flags().IntVar(&iterations, "iterations", 20, "Runs per query")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runBench(cmd *cobra.Command, kind string, queries []string, iterations int, jsonOutput bool) error {
	ctx := cmd.Context()
	iterations = max(iterations, 1)

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	kinds, err := a.kinds(kind)
	if err != nil {
		return err
	}
	// The session is queried directly so nothing reaches telemetry.
	s, err := session.New(a.registry, a.sessionOptions(kinds, "", 0))
	if err != nil {
		return err
	}
	defer s.Dispose()

	start := time.Now()
	if err := s.Load(ctx); err != nil {
		return err
	}
	report := benchReport{
		Root:       a.root,
		Mode:       session.Mode(kinds),
		Load:       time.Since(start),
		Iterations: iterations,
	}
	if err := loadErrors(s, warnTo(cmd.ErrOrStderr())); err != nil {
		return err
	}
	report.Candidates = s.Total()

	progress := output.New(cmd.ErrOrStderr())
	total := len(queries) * iterations
	step := max(total/50, 1)
	done := 0
	for _, q := range queries {
		bq := benchQuery{Query: q, Min: math.MaxInt64}
		var sum time.Duration
		for range iterations {
			if err := ctx.Err(); err != nil {
				return err
			}
			t := time.Now()
			results, err := s.Query(q)
			d := time.Since(t)
			if err != nil {
				return err
			}
			bq.Results = len(results)
			sum += d
			bq.Min = min(bq.Min, d)
			bq.Max = max(bq.Max, d)

			done++
			if done%step == 0 || done == total {
				progress.Progress(done, total, q)
			}
		}
		bq.Mean = sum / time.Duration(iterations)
		report.Queries = append(report.Queries, bq)
	}

	mem := profiling.MemStats()
	report.HeapAlloc = mem.HeapAlloc
	report.Sys = mem.Sys

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printBench(output.New(cmd.OutOrStdout()), report)
	return nil
}

func printBench(w *output.Writer, r benchReport) {
	w.Statusf("📦", "%d %s candidates loaded in %s from %s", r.Candidates, r.Mode, r.Load.Round(time.Microsecond), r.Root)
	w.Statusf("⏱️", "%d runs per query", r.Iterations)
	for _, q := range r.Queries {
		w.Statusf("", "%-16q %6d results  mean %-10s min %-10s max %s",
			q.Query, q.Results,
			q.Mean.Round(time.Microsecond), q.Min.Round(time.Microsecond), q.Max.Round(time.Microsecond))
	}
	w.Statusf("🧠", "heap %s, sys %s", profiling.FormatBytes(r.HeapAlloc), profiling.FormatBytes(r.Sys))
}
