package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/jump/internal/candidate"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/provider"
	"github.com/Aman-CERP/jump/internal/rank"
	"github.com/Aman-CERP/jump/internal/telemetry"
)

type fakeProvider struct {
	kind      candidate.Kind
	names     []string
	err       error
	panics    bool
	block     chan struct{}
	loads     atomic.Int32
	activated []*candidate.Candidate
}

func (p *fakeProvider) Kind() candidate.Kind { return p.kind }

func (p *fakeProvider) Load(ctx context.Context) ([]*candidate.Candidate, error) {
	p.loads.Add(1)
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.panics {
		panic("boom")
	}
	if p.err != nil {
		return nil, p.err
	}
	out := make([]*candidate.Candidate, len(p.names))
	for i, n := range p.names {
		switch p.kind {
		case candidate.KindFile:
			out[i] = candidate.NewFile(candidate.FileData{Path: n})
		case candidate.KindSymbol:
			out[i] = candidate.NewSymbol(n, candidate.SymbolData{Line: i + 1})
		default:
			out[i] = candidate.NewCommand(candidate.CommandData{Path: []string{n}})
		}
	}
	return out, nil
}

func (p *fakeProvider) Activate(_ context.Context, c *candidate.Candidate, _ bool) error {
	p.activated = append(p.activated, c)
	return nil
}

type fakeSource struct {
	mu        sync.Mutex
	providers map[candidate.Kind]*fakeProvider
	scopes    []provider.Scope
}

func (s *fakeSource) Providers(kinds []candidate.Kind, scope provider.Scope) ([]provider.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = append(s.scopes, scope)
	out := make([]provider.Provider, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, s.providers[k])
	}
	return out, nil
}

func newSource() *fakeSource {
	return &fakeSource{providers: map[candidate.Kind]*fakeProvider{
		candidate.KindFile:    {kind: candidate.KindFile, names: []string{"src/app.go", "apple.txt", "banana.go"}},
		candidate.KindSymbol:  {kind: candidate.KindSymbol, names: []string{"Apply", "Bake"}},
		candidate.KindCommand: {kind: candidate.KindCommand, names: []string{"apt", "config"}},
	}}
}

func newSession(t *testing.T, src Source, kinds ...candidate.Kind) *Session {
	t.Helper()
	s, err := New(src, Options{Kinds: kinds, Scope: provider.Scope{Root: t.TempDir()}, Rank: rank.DefaultOptions()})
	require.NoError(t, err)
	return s
}

func TestSession_LifecycleStates(t *testing.T) {
	// Given: a new session
	s := newSession(t, newSource(), candidate.KindFile)
	assert.Equal(t, StateUnloaded, s.State())

	// When: querying before Load
	_, err := s.Query("a")

	// Then: the session is not ready
	assert.ErrorIs(t, err, ErrNotReady)
	assert.True(t, jerrors.HasCode(err, jerrors.ErrCodeSessionNotReady))

	// When: loading
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, StateReady, s.State())

	// Then: a second load is rejected
	assert.ErrorIs(t, s.Load(context.Background()), ErrAlreadyLoaded)

	// When: disposed
	s.Dispose()
	s.Dispose()

	// Then: every operation reports the terminal state
	assert.Equal(t, StateDisposed, s.State())
	_, err = s.Query("a")
	assert.ErrorIs(t, err, ErrDisposed)
	assert.ErrorIs(t, s.Load(context.Background()), ErrDisposed)
	assert.True(t, jerrors.IsFatal(err))
}

func TestSession_QueryRanksLoadedCandidates(t *testing.T) {
	s := newSession(t, newSource(), candidate.KindFile)
	require.NoError(t, s.Load(context.Background()))

	got, err := s.Query("app")
	require.NoError(t, err)

	assert.Equal(t, []string{"apple.txt", "src/app.go"}, candidate.Names(got))
	assert.Equal(t, "app", s.LastQuery())
	assert.Equal(t, StateReady, s.State())
}

func TestSession_QueryDoesNotReorderCollections(t *testing.T) {
	s := newSession(t, newSource(), candidate.KindFile)
	require.NoError(t, s.Load(context.Background()))

	_, err := s.Query("")
	require.NoError(t, err)
	_, err = s.Query("b")
	require.NoError(t, err)

	assert.Equal(t, []string{"src/app.go", "apple.txt", "banana.go"}, candidate.Names(s.collections[candidate.KindFile]))
}

func TestSession_EmptyQueryUsesKindTieBreak(t *testing.T) {
	// Given: files sorted by depth, the default for files
	src := newSource()
	src.providers[candidate.KindFile].names = []string{"a/b/c.go", "z.go", "m/n.go"}
	s := newSession(t, src, candidate.KindFile)
	require.NoError(t, s.Load(context.Background()))

	got, err := s.Query("")
	require.NoError(t, err)
	assert.Equal(t, []string{"z.go", "m/n.go", "a/b/c.go"}, candidate.Names(got))

	// And: an explicit criterion overrides the default
	s2, err := New(src, Options{
		Kinds: []candidate.Kind{candidate.KindFile},
		Sort:  map[candidate.Kind]rank.SortCriterion{candidate.KindFile: rank.AlphabeticalDesc},
	})
	require.NoError(t, err)
	require.NoError(t, s2.Load(context.Background()))
	got, err = s2.Query("")
	require.NoError(t, err)
	assert.Equal(t, []string{"z.go", "m/n.go", "a/b/c.go"}, candidate.Names(got))
}

func TestSession_MixedKinds(t *testing.T) {
	s, err := New(newSource(), Options{
		Kinds:     []candidate.Kind{candidate.KindCommand, candidate.KindFile, candidate.KindSymbol, candidate.KindFile},
		MixedSort: rank.Alphabetical,
		Rank:      rank.DefaultOptions(),
	})
	require.NoError(t, err)
	assert.Len(t, s.Kinds(), 3)
	require.NoError(t, s.Load(context.Background()))

	got, err := s.Query("ap")
	require.NoError(t, err)

	names := candidate.Names(got)
	assert.Contains(t, names, "apple.txt")
	assert.Contains(t, names, "Apply")
	assert.Contains(t, names, "apt")
	assert.NotContains(t, names, "config")
	assert.Equal(t, 7, s.Total())
}

func TestSession_KindFailureIsIsolated(t *testing.T) {
	// Given: one failing and one panicking provider next to a healthy one
	src := newSource()
	src.providers[candidate.KindSymbol].err = errors.New("parser crashed")
	src.providers[candidate.KindCommand].panics = true

	s := newSession(t, src, candidate.KindFile, candidate.KindSymbol, candidate.KindCommand)

	// When: loading
	require.NoError(t, s.Load(context.Background()))

	// Then: the healthy kind is usable and failures are reported per kind
	assert.NoError(t, s.Err(candidate.KindFile))
	assert.Equal(t, 3, s.Count(candidate.KindFile))

	symErr := s.Err(candidate.KindSymbol)
	require.Error(t, symErr)
	assert.True(t, jerrors.HasCode(symErr, jerrors.ErrCodeProviderFailed))
	assert.EqualError(t, errors.Unwrap(symErr), "parser crashed")

	assert.True(t, jerrors.HasCode(s.Err(candidate.KindCommand), jerrors.ErrCodeProviderFailed))
	assert.Len(t, s.Errs(), 2)

	got, err := s.Query("go")
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestSession_LoadsKindsConcurrently(t *testing.T) {
	// Given: two providers that only finish once both have started
	src := newSource()
	gate := make(chan struct{})
	src.providers[candidate.KindFile].block = gate
	src.providers[candidate.KindSymbol].block = gate
	s := newSession(t, src, candidate.KindFile, candidate.KindSymbol)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()

	require.Eventually(t, func() bool {
		return src.providers[candidate.KindFile].loads.Load() == 1 &&
			src.providers[candidate.KindSymbol].loads.Load() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateLoading, s.State())

	// When: both are released
	close(gate)

	// Then: loading completes
	require.NoError(t, <-done)
	assert.Equal(t, StateReady, s.State())
}

func TestSession_DisposeDuringLoad(t *testing.T) {
	src := newSource()
	gate := make(chan struct{})
	src.providers[candidate.KindFile].block = gate
	s := newSession(t, src, candidate.KindFile)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	require.Eventually(t, func() bool { return src.providers[candidate.KindFile].loads.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.Dispose()
	close(gate)

	assert.ErrorIs(t, <-done, ErrDisposed)
	assert.Equal(t, StateDisposed, s.State())
}

func TestSession_CancelledLoadReportsPerKind(t *testing.T) {
	src := newSource()
	src.providers[candidate.KindFile].block = make(chan struct{})
	s := newSession(t, src, candidate.KindFile)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.Load(ctx))
	assert.ErrorIs(t, s.Err(candidate.KindFile), context.Canceled)
	assert.Equal(t, 0, s.Count(candidate.KindFile))
}

func TestSession_SwitchKind(t *testing.T) {
	src := newSource()
	s := newSession(t, src, candidate.KindFile)
	require.NoError(t, s.Load(context.Background()))

	next, err := s.SwitchKind(context.Background(), candidate.KindCommand)
	require.NoError(t, err)

	assert.Equal(t, StateDisposed, s.State())
	assert.Equal(t, StateReady, next.State())
	assert.Equal(t, []candidate.Kind{candidate.KindCommand}, next.Kinds())
	assert.Equal(t, s.Scope(), next.Scope())

	got, err := next.Query("apt")
	require.NoError(t, err)
	assert.Equal(t, []string{"apt"}, candidate.Names(got))

	_, err = s.SwitchKind(context.Background(), candidate.KindFile)
	assert.ErrorIs(t, err, ErrDisposed)
}

func TestSession_SwitchScope(t *testing.T) {
	src := newSource()
	s := newSession(t, src, candidate.KindSymbol)
	require.NoError(t, s.Load(context.Background()))

	scope := provider.Scope{Root: t.TempDir(), Document: "main.go"}
	next, err := s.SwitchScope(context.Background(), scope)
	require.NoError(t, err)

	assert.Equal(t, StateDisposed, s.State())
	assert.Equal(t, scope.Root, next.Scope().Root)
	assert.Contains(t, next.Scope().Document, "main.go")
	assert.Len(t, src.scopes, 2)
}

func TestSession_Activate(t *testing.T) {
	src := newSource()
	s := newSession(t, src, candidate.KindFile)
	require.NoError(t, s.Load(context.Background()))
	got, err := s.Query("app")
	require.NoError(t, err)

	require.NoError(t, s.Activate(context.Background(), got[0], true))
	assert.Len(t, src.providers[candidate.KindFile].activated, 1)

	cmd := candidate.NewCommand(candidate.CommandData{Path: []string{"x"}})
	err = s.Activate(context.Background(), cmd, true)
	assert.True(t, jerrors.HasCode(err, jerrors.ErrCodeUnknownCandidate))

	err = s.Activate(context.Background(), nil, true)
	assert.True(t, jerrors.HasCode(err, jerrors.ErrCodeUnknownCandidate))
}

func TestNew_RequiresKinds(t *testing.T) {
	_, err := New(newSource(), Options{})
	assert.True(t, jerrors.HasCode(err, jerrors.ErrCodeInvalidInput))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "state(9)", State(9).String())
}

type recorder struct {
	events []telemetry.QueryEvent
}

func (r *recorder) Record(e telemetry.QueryEvent) { r.events = append(r.events, e) }

func TestController_RemembersQueryAndSelection(t *testing.T) {
	// Given: a controller over a loaded session
	src := newSource()
	s := newSession(t, src, candidate.KindFile)
	require.NoError(t, s.Load(context.Background()))
	rec := &recorder{}
	c := NewController(s, rec)

	// When: querying and selecting
	got, err := c.Query("ban")
	require.NoError(t, err)
	require.NoError(t, c.Select(context.Background(), got[0], false))

	// Then: both are remembered and telemetry is recorded
	assert.Equal(t, "ban", c.LastQuery())
	assert.Equal(t, "banana.go", c.LastSelection().Name)
	require.Len(t, rec.events, 1)
	assert.Equal(t, "file", rec.events[0].Mode)
	assert.Equal(t, 1, rec.events[0].ResultCount)

	// And: memory survives a kind switch
	require.NoError(t, c.SwitchKind(context.Background(), candidate.KindFile, candidate.KindCommand))
	assert.Equal(t, "ban", c.LastQuery())
	assert.NotSame(t, s, c.Session())
	assert.Equal(t, StateDisposed, s.State())

	_, err = c.Query("ap")
	require.NoError(t, err)
	assert.Equal(t, "mixed", rec.events[1].Mode)
}

func TestController_ReloadAndClose(t *testing.T) {
	src := newSource()
	s := newSession(t, src, candidate.KindFile)
	require.NoError(t, s.Load(context.Background()))
	c := NewController(s, nil)

	require.NoError(t, c.Reload(context.Background()))
	assert.Equal(t, int32(2), src.providers[candidate.KindFile].loads.Load())
	assert.Equal(t, s.Scope(), c.Session().Scope())

	require.NoError(t, c.SwitchScope(context.Background(), provider.Scope{Root: t.TempDir()}))

	c.Close()
	_, err := c.Query("x")
	assert.ErrorIs(t, err, ErrDisposed)
	assert.Empty(t, c.LastQuery())
}

func TestMode(t *testing.T) {
	assert.Equal(t, "none", Mode(nil))
	assert.Equal(t, "symbol", Mode([]candidate.Kind{candidate.KindSymbol}))
	assert.Equal(t, "mixed", Mode(candidate.Kinds()))
}
