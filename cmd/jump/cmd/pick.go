package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/jump/internal/ui"
	"github.com/Aman-CERP/jump/internal/watcher"
)

type pickOptions struct {
	query    string
	kind     string
	document string
	watch    bool
	noColor  bool
}

func newPickCmd() *cobra.Command {
	var opts pickOptions

	cmd := &cobra.Command{
		Use:   "pick [query]",
		Short: "Pick a candidate interactively",
		Long: `Open the interactive picker. Type to filter, tab to switch between
files, symbols, commands and all, enter to open the selection.

Files and symbols open in $VISUAL or $EDITOR (see editor.command), commands
run as 'jump <command>'. Without a terminal the ranked candidates are
printed instead.`,
		Example: `  # Start with symbols
  jump pick --kind symbol

  # Keep the candidates fresh while files change
  jump pick --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.query = strings.Join(args, " ")
			return runPick(cmd, opts)
		},
	}
	addPickFlags(cmd, &opts)
	return cmd
}

func addPickFlags(cmd *cobra.Command, opts *pickOptions) {
	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "file", "Starting kinds: file, symbol, command, a comma separated list, or all")
	cmd.Flags().StringVar(&opts.document, "in", "", "Limit symbols to one file")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Reload candidates when files change")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
}

func runPick(cmd *cobra.Command, opts pickOptions) error {
	if !ui.Interactive(cmd.InOrStdin(), cmd.OutOrStdout()) {
		return runQuery(cmd, queryOptions{
			text:     opts.query,
			kind:     opts.kind,
			document: opts.document,
			noColor:  opts.noColor,
		})
	}

	ctx := cmd.Context()
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	kinds, err := a.kinds(opts.kind)
	if err != nil {
		return err
	}
	ctrl, s, err := a.newController(kinds, opts.document, 0)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	modes := ui.DefaultModes(a.cfg.AllKinds())
	picker, err := ui.NewPicker(ctx, ctrl, ui.PickerConfig{
		Input:   cmd.InOrStdin(),
		Output:  cmd.OutOrStdout(),
		NoColor: opts.noColor,
		Modes:   modes,
		Mode:    ui.ModeIndex(modes, kinds),
		Query:   opts.query,
		Root:    a.root,
		Load:    s.Load,
	})
	if err != nil {
		return err
	}

	if opts.watch {
		watchCtx, stop := context.WithCancel(ctx)
		defer stop()
		go func() {
			err := watcher.Watch(watchCtx, a.root, a.watchOptions(), &watcher.Reloader{
				Reload:            ctrl.Reload,
				InvalidateIgnores: a.registry.Scanner().InvalidateGitignoreCache,
				OnReload:          picker.Reloaded,
			})
			if err != nil {
				slog.Warn("watch_failed", slog.String("root", a.root), slog.String("error", err.Error()))
			}
		}()
	}

	picked, err := picker.Run()
	if err != nil {
		return err
	}
	if picked == nil {
		return nil
	}

	slog.Debug("picked",
		slog.String("kind", picked.Kind.String()),
		slog.String("name", picked.Name),
		slog.String("query", ctrl.LastQuery()))
	return ctrl.Select(ctx, picked, true)
}
