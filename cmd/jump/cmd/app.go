package cmd

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/jump/internal/candidate"
	"github.com/Aman-CERP/jump/internal/config"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/provider"
	"github.com/Aman-CERP/jump/internal/scanner"
	"github.com/Aman-CERP/jump/internal/session"
	"github.com/Aman-CERP/jump/internal/telemetry"
	"github.com/Aman-CERP/jump/internal/watcher"
)

// app holds what the commands share for one project: its configuration,
// the provider registry and the telemetry collector.
type app struct {
	root     string
	cfg      *config.Config
	registry *provider.Registry
	metrics  *telemetry.QueryMetrics
	store    telemetry.Store
}

// resolveRoot returns --root when given, otherwise the project root above
// the working directory, otherwise the working directory.
func resolveRoot() (string, error) {
	if rootFlag != "" {
		return rootFlag, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", jerrors.New(jerrors.ErrCodeRootNotFound, "failed to get current directory", err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		return cwd, nil
	}
	return root, nil
}

// loadConfig resolves the project root and loads its configuration.
func loadConfig() (string, *config.Config, error) {
	root, err := resolveRoot()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return "", nil, err
	}
	return root, cfg, nil
}

// newApp builds the registry for the project. The command tree listed by
// the command provider is the root of cmd.
func newApp(cmd *cobra.Command) (*app, error) {
	root, cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	cache, err := provider.NewSymbolCache(cfg.Symbols.CacheSize)
	if err != nil {
		return nil, err
	}
	scan := scanner.Options{
		Exclude:          cfg.Scanner.Exclude,
		RespectGitignore: cfg.Scanner.RespectGitignore,
		MaxFileSize:      cfg.Scanner.MaxFileSize,
		MaxFiles:         cfg.Scanner.MaxFiles,
		SkipBinary:       cfg.Scanner.SkipBinary,
		FollowSymlinks:   cfg.Scanner.FollowSymlinks,
	}
	registry, err := provider.NewRegistry(provider.Deps{
		Scan: scan,
		Symbols: provider.SymbolOptions{
			Languages:        cfg.Symbols.Languages,
			MarkdownHeadings: cfg.Symbols.MarkdownHeadings,
			Workers:          cfg.Symbols.Workers,
		},
		SymbolCache: cache,
		Opener:      provider.NewEditorOpener(cfg.Editor.Command, cfg.Editor.LineFlag),
		Commands:    cmd.Root(),
		RunCommand:  provider.SelfExec,
	})
	if err != nil {
		return nil, err
	}

	a := &app{root: root, cfg: cfg, registry: registry}
	a.openTelemetry()
	return a, nil
}

// openTelemetry starts query telemetry. A store that cannot be opened
// only costs the statistics, so it is logged and skipped.
func (a *app) openTelemetry() {
	if !a.cfg.Telemetry.Enabled {
		return
	}
	store, err := telemetry.OpenSQLiteStore(a.cfg.Telemetry.DBPath)
	if err != nil {
		slog.Warn("telemetry_unavailable",
			slog.String("path", a.cfg.Telemetry.DBPath),
			slog.String("error", err.Error()))
		return
	}
	a.store = store
	a.metrics = telemetry.NewQueryMetrics(store, telemetry.Config{
		FlushInterval: a.cfg.TelemetryFlushInterval(),
	})
}

// recorder returns the telemetry collector, or nil when telemetry is off.
func (a *app) recorder() session.Recorder {
	if a.metrics == nil {
		return nil
	}
	return a.metrics
}

// close flushes telemetry.
func (a *app) close() error {
	var errs []error
	if a.metrics != nil {
		errs = append(errs, a.metrics.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

// kinds parses a --kind value: a kind, a comma separated list of kinds, or
// "all" for the configured mixed mode.
func (a *app) kinds(flag string) ([]candidate.Kind, error) {
	if flag == "" || flag == "all" {
		return a.cfg.AllKinds(), nil
	}
	return candidate.ParseKinds(strings.Split(flag, ","))
}

// sessionOptions returns the session settings for kinds. limit overrides
// search.max_results when positive.
func (a *app) sessionOptions(kinds []candidate.Kind, document string, limit int) session.Options {
	perKind, mixed := a.cfg.SortCriteria()
	return session.Options{
		Kinds:     kinds,
		Scope:     provider.Scope{Root: a.root, Document: document},
		Sort:      perKind,
		MixedSort: mixed,
		Rank:      a.cfg.RankOptions(limit),
	}
}

// newController creates an unloaded session over kinds and a controller
// driving it.
func (a *app) newController(kinds []candidate.Kind, document string, limit int) (*session.Controller, *session.Session, error) {
	s, err := session.New(a.registry, a.sessionOptions(kinds, document, limit))
	if err != nil {
		return nil, nil, err
	}
	return session.NewController(s, a.recorder()), s, nil
}

func (a *app) watchOptions() watcher.Options {
	return watcher.Options{
		DebounceWindow:   a.cfg.WatchDebounce(),
		IgnorePatterns:   a.cfg.Scanner.Exclude,
		RespectGitignore: a.cfg.Scanner.RespectGitignore,
	}.WithDefaults()
}

// loadErrors reports the kinds of s that failed to load. It fails when no
// kind loaded at all.
func loadErrors(s *session.Session, warn func(kind candidate.Kind, err error)) error {
	kinds := s.Kinds()
	failed := 0
	var first error
	for _, k := range kinds {
		if err := s.Err(k); err != nil {
			failed++
			if first == nil {
				first = err
			}
			warn(k, err)
		}
	}
	if failed > 0 && failed == len(kinds) {
		return first
	}
	return nil
}
