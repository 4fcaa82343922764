package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/jump/internal/candidate"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/output"
	"github.com/Aman-CERP/jump/internal/provider"
	"github.com/Aman-CERP/jump/internal/session"
	"github.com/Aman-CERP/jump/internal/telemetry"
	"github.com/Aman-CERP/jump/pkg/version"
)

const (
	// DefaultLimit is the number of results returned when a call sets none.
	DefaultLimit = 20
	// MaxLimit caps the limit a client may request.
	MaxLimit = 500
	// DefaultSessionCacheSize bounds the sessions kept loaded between calls.
	DefaultSessionCacheSize = 8
)

// Options configures a Server.
type Options struct {
	// Session holds the ranking settings shared by every tool. Its Kinds
	// and Scope are set per tool.
	Session session.Options

	// AllKinds are the kinds ranked by jump_all. Empty means every kind.
	AllKinds []candidate.Kind

	// Limit is the default result limit. Zero means DefaultLimit.
	Limit int

	// SessionCacheSize bounds the loaded sessions. Zero means
	// DefaultSessionCacheSize.
	SessionCacheSize int

	// Metrics records every answered query and backs the query_metrics
	// resource. May be nil.
	Metrics *telemetry.QueryMetrics
}

// Server is the MCP server for jump. Each tool ranks the candidates of a
// session that is loaded on first use and kept until evicted or reloaded.
type Server struct {
	mcp    *mcp.Server
	source session.Source
	opts   Options
	root   string
	logger *slog.Logger

	// mu guards sessions and serializes loading.
	mu       sync.Mutex
	sessions *lru.Cache[string, *entry]
}

// entry pairs a controller with the lock that keeps a query and the
// snapshot of its results together; the next query rewrites the scratch
// fields of the same candidates.
type entry struct {
	mu   sync.Mutex
	ctrl *session.Controller
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "jump_files",
		Description: "Fuzzy-find files in the project by path. Type a few characters of the path, e.g. 'cmdmain' finds cmd/jump/main.go. Results are ranked by match quality, then by directory depth.",
	},
	{
		Name:        "jump_symbols",
		Description: "Fuzzy-find functions, types, methods and markdown headings by name. Returns the file and line of each symbol. Pass 'file' to search one file only.",
	},
	{
		Name:        "jump_commands",
		Description: "Fuzzy-find jump's own CLI commands by their space separated path, e.g. 'cfgsh' finds 'config show'.",
	},
	{
		Name:        "jump_all",
		Description: "Fuzzy-find files, symbols and commands at once, ranked together by match quality.",
	},
	{
		Name:        "jump_status",
		Description: "Report the project root and how many candidates of each kind are loaded, with any load errors.",
	},
}

// NewServer creates a new MCP server searching root.
func NewServer(source session.Source, root string, opts Options) (*Server, error) {
	if source == nil {
		return nil, errors.New("candidate source is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.SessionCacheSize <= 0 {
		opts.SessionCacheSize = DefaultSessionCacheSize
	}
	if len(opts.AllKinds) == 0 {
		opts.AllKinds = candidate.Kinds()
	}

	scope, err := provider.Scope{Root: root}.Normalize()
	if err != nil {
		return nil, err
	}

	s := &Server{
		source: source,
		opts:   opts,
		root:   scope.Root,
		logger: slog.Default(),
	}

	// Evicted sessions are disposed; a query still holding one fails with
	// ErrDisposed and the next call loads a fresh one.
	s.sessions, err = lru.NewWithEvict(opts.SessionCacheSize, func(key string, e *entry) {
		e.ctrl.Close()
		s.logger.Debug("session_evicted", slog.String("key", key))
	})
	if err != nil {
		return nil, jerrors.InternalError("failed to create session cache", err)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "jump",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	s.registerResources()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "jump", version.Version
}

// Root returns the absolute project root.
func (s *Server) Root() string {
	return s.root
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return append([]ToolInfo(nil), tools...)
}

func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpFilesHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpSymbolsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpCommandsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[3].Name, Description: tools[3].Description}, s.mcpAllHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[4].Name, Description: tools[4].Description}, s.mcpStatusHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", len(tools)))
}

func (s *Server) mcpFilesHandler(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (
	*mcp.CallToolResult,
	QueryOutput,
	error,
) {
	return s.answer(ctx, []candidate.Kind{candidate.KindFile}, "", input.Query, input.Limit)
}

func (s *Server) mcpSymbolsHandler(ctx context.Context, _ *mcp.CallToolRequest, input SymbolsInput) (
	*mcp.CallToolResult,
	QueryOutput,
	error,
) {
	if input.File != "" && !isValidPath(input.File) {
		return nil, QueryOutput{}, NewInvalidParamsError(fmt.Sprintf("invalid file: %s", input.File))
	}
	return s.answer(ctx, []candidate.Kind{candidate.KindSymbol}, input.File, input.Query, input.Limit)
}

func (s *Server) mcpCommandsHandler(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (
	*mcp.CallToolResult,
	QueryOutput,
	error,
) {
	return s.answer(ctx, []candidate.Kind{candidate.KindCommand}, "", input.Query, input.Limit)
}

func (s *Server) mcpAllHandler(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (
	*mcp.CallToolResult,
	QueryOutput,
	error,
) {
	return s.answer(ctx, s.opts.AllKinds, "", input.Query, input.Limit)
}

func (s *Server) mcpStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (
	*mcp.CallToolResult,
	StatusOutput,
	error,
) {
	out, err := s.Status(ctx)
	if err != nil {
		return nil, StatusOutput{}, MapError(err)
	}
	return nil, out, nil
}

func (s *Server) answer(ctx context.Context, kinds []candidate.Kind, document, query string, limit int) (
	*mcp.CallToolResult,
	QueryOutput,
	error,
) {
	requestID := generateRequestID()
	start := time.Now()

	out, err := s.Query(ctx, kinds, document, query, limit)
	if err != nil {
		s.logger.Warn("tool_failed",
			slog.String("request_id", requestID),
			slog.String("mode", session.Mode(kinds)),
			slog.String("error", err.Error()))
		return nil, QueryOutput{}, MapError(err)
	}

	s.logger.Debug("tool_answered",
		slog.String("request_id", requestID),
		slog.String("mode", out.Mode),
		slog.Int("count", out.Count),
		slog.Duration("duration", time.Since(start)))

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatResults(out)}},
	}, out, nil
}

// Query ranks query over kinds and returns at most limit results. A
// non-empty document restricts symbols to that file.
func (s *Server) Query(ctx context.Context, kinds []candidate.Kind, document, query string, limit int) (QueryOutput, error) {
	if limit <= 0 {
		limit = s.opts.Limit
	}
	limit = min(limit, MaxLimit)

	e, err := s.entry(ctx, kinds, document)
	if err != nil {
		return QueryOutput{}, err
	}

	e.mu.Lock()
	cands, err := e.ctrl.Query(query)
	var results []output.Result
	if err == nil {
		results = output.FromCandidates(cands[:min(limit, len(cands))])
	}
	total := e.ctrl.Total()
	e.mu.Unlock()
	if err != nil {
		return QueryOutput{}, err
	}

	out := QueryOutput{
		Query:   query,
		Mode:    session.Mode(kinds),
		Total:   total,
		Count:   len(cands),
		Results: make([]ResultOutput, len(results)),
	}
	for i, r := range results {
		out.Results[i] = ResultOutput{
			Rank:    r.Rank,
			Kind:    r.Kind.String(),
			Name:    r.Name,
			Score:   r.Score,
			Matches: r.Matches,
			Detail:  r.Detail,
			Path:    r.Path,
			Line:    r.Line,
		}
	}
	return out, nil
}

// Status loads the jump_all session and reports its kinds.
func (s *Server) Status(ctx context.Context) (StatusOutput, error) {
	e, err := s.entry(ctx, s.opts.AllKinds, "")
	if err != nil {
		return StatusOutput{}, err
	}
	sess := e.ctrl.Session()

	out := StatusOutput{
		Project: DetectProject(s.root),
		Kinds:   make([]KindStatus, 0, len(sess.Kinds())),
		Total:   sess.Total(),
	}
	for _, k := range sess.Kinds() {
		ks := KindStatus{Kind: k.String(), Count: sess.Count(k)}
		if err := sess.Err(k); err != nil {
			ks.Error = MapError(err).Message
		}
		out.Kinds = append(out.Kinds, ks)
	}
	return out, nil
}

// entry returns the loaded session for kinds and document, loading it on
// first use. A single-kind session whose provider failed is not kept.
func (s *Server) entry(ctx context.Context, kinds []candidate.Kind, document string) (*entry, error) {
	key := session.Mode(kinds) + "|" + document

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions.Get(key); ok {
		return e, nil
	}

	opts := s.opts.Session
	opts.Kinds = kinds
	opts.Scope = provider.Scope{Root: s.root, Document: document}

	start := time.Now()
	sess, err := session.New(s.source, opts)
	if err != nil {
		return nil, err
	}
	if err := sess.Load(ctx); err != nil {
		sess.Dispose()
		return nil, err
	}
	if len(kinds) == 1 {
		if err := sess.Err(kinds[0]); err != nil {
			sess.Dispose()
			return nil, err
		}
	}

	var recorder session.Recorder
	if s.opts.Metrics != nil {
		recorder = s.opts.Metrics
	}
	e := &entry{ctrl: session.NewController(sess, recorder)}
	s.sessions.Add(key, e)

	s.logger.Info("session_loaded",
		slog.String("mode", session.Mode(kinds)),
		slog.String("document", document),
		slog.Int("count", sess.Total()),
		slog.Duration("duration", time.Since(start)))
	return e, nil
}

// Reload rebuilds every loaded session from disk. It satisfies the
// watcher's reload hook.
func (s *Server) Reload(ctx context.Context) error {
	s.mu.Lock()
	entries := s.sessions.Values()
	s.mu.Unlock()

	var errs []error
	for _, e := range entries {
		e.mu.Lock()
		err := e.ctrl.Reload(ctx)
		e.mu.Unlock()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Serve runs the server over the configured transport until ctx ends.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server",
		slog.String("transport", transport),
		slog.String("root", s.root))

	switch transport {
	case "", "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return NewInvalidParamsError(fmt.Sprintf("unknown transport: %s (supported: stdio)", transport))
	}
}

// Close disposes every loaded session.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Purge()
	return nil
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
