package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/jump/internal/candidate"
	"github.com/Aman-CERP/jump/internal/output"
	"github.com/Aman-CERP/jump/internal/session"
	"github.com/Aman-CERP/jump/internal/ui"
)

type queryOptions struct {
	text       string
	kind       string
	document   string
	limit      int
	jsonOutput bool
	noColor    bool
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Print the candidates ranked against a query",
		Long: `Rank the candidates of the project against a query and print them,
best first. Matched characters are marked with [brackets], or colored on a
terminal.

Without a query every candidate is listed in the tie-break order of its
kind.`,
		Example: `  # Files matching "srvgo"
  jump query srvgo

  # Symbols of one file
  jump query --kind symbol --in internal/mcp/server.go handler

  # Everything, as JSON
  jump query --kind all --json rank`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.text = strings.Join(args, " ")
			return runQuery(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "file", "Kinds to search: file, symbol, command, a comma separated list, or all")
	cmd.Flags().StringVar(&opts.document, "in", "", "Limit symbols to one file")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum results (default: search.max_results)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runQuery(cmd *cobra.Command, opts queryOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	kinds, err := a.kinds(opts.kind)
	if err != nil {
		return err
	}
	ctrl, s, err := a.newController(kinds, opts.document, opts.limit)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := s.Load(ctx); err != nil {
		return err
	}
	if err := loadErrors(s, warnTo(cmd.ErrOrStderr())); err != nil {
		return err
	}

	cands, err := ctrl.Query(opts.text)
	if err != nil {
		return err
	}
	results := output.FromCandidates(cands)

	if opts.jsonOutput {
		return output.WriteJSON(out, opts.text, session.Mode(kinds), results)
	}

	w := resultWriter(out, opts.noColor)
	if len(results) == 0 {
		if opts.text == "" {
			w.Warning("No candidates found")
		} else {
			w.Warningf("No matches for %q among %d candidates", opts.text, ctrl.Total())
		}
		return nil
	}
	w.Ranked(results)
	return nil
}

// resultWriter colors matches on terminals unless color is turned off.
func resultWriter(out io.Writer, noColor bool) *output.Writer {
	if noColor || ui.DetectNoColor() || !ui.IsTTY(out) {
		return output.New(out)
	}
	return output.NewColor(out)
}

func warnTo(w io.Writer) func(candidate.Kind, error) {
	return func(kind candidate.Kind, err error) {
		_, _ = fmt.Fprintf(w, "warning: %s candidates unavailable: %v\n", kind, err)
	}
}
