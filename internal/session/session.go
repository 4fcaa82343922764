// Package session owns the lifecycle of one search interaction: it loads the
// candidate collections of the active kinds once, then answers queries by
// re-ranking the cached collections.
//
// State machine:
//
//	Unloaded -> Loading -> Ready <-> Querying
//	                 any state -> Disposed
package session

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/jump/internal/candidate"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/provider"
	"github.com/Aman-CERP/jump/internal/rank"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateQuerying
	StateDisposed
)

var stateNames = [...]string{"unloaded", "loading", "ready", "querying", "disposed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Sentinel errors. Compare with errors.Is.
var (
	ErrNotReady      = jerrors.New(jerrors.ErrCodeSessionNotReady, "session is not loaded", nil)
	ErrDisposed      = jerrors.New(jerrors.ErrCodeSessionDisposed, "session is disposed", nil)
	ErrAlreadyLoaded = jerrors.New(jerrors.ErrCodeSessionLoaded, "session is already loaded", nil)
)

// Source builds the providers of a session.
type Source interface {
	Providers(kinds []candidate.Kind, scope provider.Scope) ([]provider.Provider, error)
}

// Options configures a Session.
type Options struct {
	// Kinds are the active kinds. More than one kind ranks their union.
	Kinds []candidate.Kind

	Scope provider.Scope

	// Sort is the tie-break per kind, used when one kind is active.
	// Missing kinds fall back to DefaultSort.
	Sort map[candidate.Kind]rank.SortCriterion

	// MixedSort is the tie-break when several kinds are active.
	MixedSort rank.SortCriterion

	Rank rank.Options
}

// DefaultSort returns the tie-break used for kind when none is configured.
func DefaultSort(kind candidate.Kind) rank.SortCriterion {
	if kind == candidate.KindCommand {
		return rank.Alphabetical
	}
	return rank.SecondaryKey
}

// Session answers queries over the candidates of a scope. All methods are
// safe for concurrent use; queries are serialized.
type Session struct {
	source    Source
	opts      Options
	ranker    *rank.Ranker
	providers map[candidate.Kind]provider.Provider

	// queryMu serializes Query. mu guards the fields below.
	queryMu     sync.Mutex
	mu          sync.Mutex
	state       State
	collections map[candidate.Kind][]*candidate.Candidate
	errs        map[candidate.Kind]error
	lastQuery   string
}

// New creates an unloaded Session. Duplicate kinds are dropped.
func New(source Source, opts Options) (*Session, error) {
	kinds := make([]candidate.Kind, 0, len(opts.Kinds))
	for _, k := range opts.Kinds {
		if !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return nil, jerrors.ValidationError("session needs at least one kind", nil)
	}
	opts.Kinds = kinds

	scope, err := opts.Scope.Normalize()
	if err != nil {
		return nil, err
	}
	opts.Scope = scope

	ps, err := source.Providers(kinds, scope)
	if err != nil {
		return nil, err
	}
	providers := make(map[candidate.Kind]provider.Provider, len(ps))
	for _, p := range ps {
		providers[p.Kind()] = p
	}

	return &Session{
		source:      source,
		opts:        opts,
		ranker:      rank.NewRanker(opts.Rank),
		providers:   providers,
		collections: make(map[candidate.Kind][]*candidate.Candidate, len(kinds)),
		errs:        make(map[candidate.Kind]error),
	}, nil
}

// Load loads every active kind concurrently. A kind that fails to load is
// left empty and its error is reported by Err; it never fails the others.
// Load itself fails only when the session was already loaded or disposed.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateUnloaded:
		s.state = StateLoading
	case StateDisposed:
		s.mu.Unlock()
		return ErrDisposed
	default:
		s.mu.Unlock()
		return ErrAlreadyLoaded
	}
	s.mu.Unlock()

	start := time.Now()
	collections := make(map[candidate.Kind][]*candidate.Candidate, len(s.opts.Kinds))
	errs := make(map[candidate.Kind]error)
	var resMu sync.Mutex

	var g errgroup.Group
	for _, kind := range s.opts.Kinds {
		p := s.providers[kind]
		g.Go(func() error {
			cands, err := loadKind(ctx, p, kind)

			resMu.Lock()
			defer resMu.Unlock()
			if err != nil {
				errs[kind] = err
				return nil
			}
			collections[kind] = cands
			return nil
		})
	}
	_ = g.Wait()

	for kind, err := range errs {
		slog.Warn("session_kind_load_failed", append([]any{slog.String("kind", kind.String())}, jerrors.LogAttrs(err)...)...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return ErrDisposed
	}
	s.collections = collections
	s.errs = errs
	s.state = StateReady

	slog.Debug("session_loaded",
		slog.Any("kinds", s.opts.Kinds),
		slog.Int("count", s.countLocked()),
		slog.Int("failed", len(errs)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// loadKind runs one provider in its own failure domain.
func loadKind(ctx context.Context, p provider.Provider, kind candidate.Kind) (cands []*candidate.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = jerrors.New(jerrors.ErrCodeProviderFailed, fmt.Sprintf("%s provider panicked: %v", kind, r), nil)
		}
	}()
	if p == nil {
		return nil, jerrors.New(jerrors.ErrCodeProviderFailed, fmt.Sprintf("no %s provider", kind), nil)
	}
	cands, err = p.Load(ctx)
	if err != nil {
		return nil, jerrors.New(jerrors.ErrCodeProviderFailed, fmt.Sprintf("failed to load %s candidates", kind), err)
	}
	return cands, nil
}

// Query ranks the loaded candidates for text. The returned slice is new;
// the loaded collections are never reordered.
func (s *Session) Query(text string) ([]*candidate.Candidate, error) {
	s.queryMu.Lock()
	defer s.queryMu.Unlock()

	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.state = StateQuerying
	case StateDisposed:
		s.mu.Unlock()
		return nil, ErrDisposed
	default:
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	collections := s.collections
	s.lastQuery = text
	s.mu.Unlock()

	var out []*candidate.Candidate
	if len(s.opts.Kinds) == 1 {
		kind := s.opts.Kinds[0]
		out = s.ranker.Rank(collections[kind], text, s.sortFor(kind))
	} else {
		out = s.ranker.RankAll(collections, text, s.opts.MixedSort)
	}

	s.mu.Lock()
	if s.state == StateQuerying {
		s.state = StateReady
	}
	s.mu.Unlock()
	return out, nil
}

func (s *Session) sortFor(kind candidate.Kind) rank.SortCriterion {
	if c, ok := s.opts.Sort[kind]; ok {
		return c
	}
	return DefaultSort(kind)
}

// Activate passes c to the provider of its kind.
func (s *Session) Activate(ctx context.Context, c *candidate.Candidate, commit bool) error {
	if c == nil {
		return jerrors.New(jerrors.ErrCodeUnknownCandidate, "no candidate selected", nil)
	}
	if s.State() == StateDisposed {
		return ErrDisposed
	}
	p, ok := s.providers[c.Kind]
	if !ok {
		return jerrors.New(jerrors.ErrCodeUnknownCandidate, fmt.Sprintf("session has no %s provider", c.Kind), nil)
	}
	return p.Activate(ctx, c, commit)
}

// SwitchKind loads a session over kinds with the same scope, then disposes
// s. On failure s stays usable.
func (s *Session) SwitchKind(ctx context.Context, kinds ...candidate.Kind) (*Session, error) {
	opts := s.opts
	opts.Kinds = kinds
	return s.replace(ctx, opts)
}

// SwitchScope loads a session over scope with the same kinds, then disposes
// s. On failure s stays usable.
func (s *Session) SwitchScope(ctx context.Context, scope provider.Scope) (*Session, error) {
	opts := s.opts
	opts.Scope = scope
	return s.replace(ctx, opts)
}

func (s *Session) replace(ctx context.Context, opts Options) (*Session, error) {
	if s.State() == StateDisposed {
		return nil, ErrDisposed
	}
	next, err := New(s.source, opts)
	if err != nil {
		return nil, err
	}
	if err := next.Load(ctx); err != nil {
		next.Dispose()
		return nil, err
	}
	s.Dispose()
	return next, nil
}

// Dispose releases the loaded candidates. It is terminal and idempotent.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDisposed
	s.collections = nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Kinds returns the active kinds.
func (s *Session) Kinds() []candidate.Kind {
	return slices.Clone(s.opts.Kinds)
}

// Scope returns the normalized scope.
func (s *Session) Scope() provider.Scope {
	return s.opts.Scope
}

// LastQuery returns the text of the most recent Query.
func (s *Session) LastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

// Err returns the load error of kind, if any.
func (s *Session) Err(kind candidate.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[kind]
}

// Errs returns every load error by kind.
func (s *Session) Errs() map[candidate.Kind]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.errs)
}

// Count returns the number of loaded candidates of kind.
func (s *Session) Count(kind candidate.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[kind])
}

// Total returns the number of loaded candidates.
func (s *Session) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked()
}

func (s *Session) countLocked() int {
	n := 0
	for _, c := range s.collections {
		n += len(c)
	}
	return n
}
