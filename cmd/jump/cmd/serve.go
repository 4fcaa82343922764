package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/jump/internal/logging"
	"github.com/Aman-CERP/jump/internal/mcp"
	"github.com/Aman-CERP/jump/internal/session"
	"github.com/Aman-CERP/jump/internal/watcher"
	"github.com/Aman-CERP/jump/pkg/version"
)

func newServeCmd() *cobra.Command {
	var (
		transport string
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve jump over the Model Context Protocol",
		Long: `Start an MCP server answering jump_files, jump_symbols, jump_commands,
jump_all and jump_status over stdio, and exposing project files as
jump://file/{path} resources.

stdout carries the protocol, so logs go to ~/.jump/logs/jump.log only.`,
		Example: `  # Register with an MCP client
  jump serve --root /path/to/project`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, transport, watch)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport (default: server.transport)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", true, "Reload candidates when files change")

	return cmd
}

func runServe(cmd *cobra.Command, transport string, watch bool) error {
	ctx := cmd.Context()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	if transport == "" {
		transport = a.cfg.Server.Transport
	}

	// --debug already logs to the file and stderr.
	if !debugMode {
		logCfg := logging.ServerConfig(a.cfg.Server.LogLevel)
		logCfg.FilePath = logging.PathIn(a.cfg.Paths.LogDir)
		logCfg.MaxSizeMB = a.cfg.Server.LogMaxSizeMB
		logCfg.MaxFiles = a.cfg.Server.LogMaxFiles
		cleanup, err := logging.SetupDefault(logCfg)
		if err != nil {
			return err
		}
		defer cleanup()
	}

	perKind, mixed := a.cfg.SortCriteria()
	server, err := mcp.NewServer(a.registry, a.root, mcp.Options{
		Session: session.Options{
			Sort:      perKind,
			MixedSort: mixed,
			Rank:      a.cfg.RankOptions(mcp.MaxLimit),
		},
		AllKinds: a.cfg.AllKinds(),
		Limit:    min(a.cfg.Search.MaxResults, mcp.MaxLimit),
		Metrics:  a.metrics,
	})
	if err != nil {
		return err
	}
	defer func() { _ = server.Close() }()

	if watch {
		go func() {
			err := watcher.Watch(ctx, a.root, a.watchOptions(), &watcher.Reloader{
				Reload:            server.Reload,
				InvalidateIgnores: a.registry.Scanner().InvalidateGitignoreCache,
			})
			if err != nil {
				slog.Warn("watch_failed", slog.String("root", a.root), slog.String("error", err.Error()))
			}
		}()
	}

	slog.Info("mcp_server_starting",
		slog.String("root", a.root),
		slog.String("transport", transport),
		slog.String("version", version.Version))

	err = server.Serve(ctx, transport)
	slog.Info("mcp_server_stopped", slog.Any("error", err))
	return err
}
