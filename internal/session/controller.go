package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Aman-CERP/jump/internal/candidate"
	"github.com/Aman-CERP/jump/internal/provider"
	"github.com/Aman-CERP/jump/internal/telemetry"
)

// Recorder receives one event per answered query.
type Recorder interface {
	Record(e telemetry.QueryEvent)
}

// Controller drives the current Session for a presentation layer. It
// remembers the last query and selection across kind and scope switches.
type Controller struct {
	mu            sync.Mutex
	session       *Session
	lastQuery     string
	lastSelection *candidate.Candidate
	recorder      Recorder
}

// NewController wraps s. recorder may be nil.
func NewController(s *Session, recorder Recorder) *Controller {
	return &Controller{session: s, recorder: recorder}
}

// Session returns the current session.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Query runs text against the current session.
func (c *Controller) Query(text string) ([]*candidate.Candidate, error) {
	s := c.Session()

	start := time.Now()
	results, err := s.Query(text)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	c.mu.Lock()
	c.lastQuery = text
	c.mu.Unlock()

	if c.recorder != nil {
		c.recorder.Record(telemetry.QueryEvent{
			Query:       text,
			Mode:        Mode(s.Kinds()),
			ResultCount: len(results),
			Latency:     elapsed,
			Timestamp:   start,
		})
	}
	return results, nil
}

// Select remembers cand and activates it.
func (c *Controller) Select(ctx context.Context, cand *candidate.Candidate, commit bool) error {
	c.mu.Lock()
	c.lastSelection = cand
	s := c.session
	c.mu.Unlock()

	return s.Activate(ctx, cand, commit)
}

// SwitchKind replaces the session with one over kinds.
func (c *Controller) SwitchKind(ctx context.Context, kinds ...candidate.Kind) error {
	return c.swap(func(s *Session) (*Session, error) { return s.SwitchKind(ctx, kinds...) })
}

// SwitchScope replaces the session with one over scope.
func (c *Controller) SwitchScope(ctx context.Context, scope provider.Scope) error {
	return c.swap(func(s *Session) (*Session, error) { return s.SwitchScope(ctx, scope) })
}

// Reload rebuilds the session over its current scope, picking up changed
// files.
func (c *Controller) Reload(ctx context.Context) error {
	return c.swap(func(s *Session) (*Session, error) { return s.SwitchScope(ctx, s.Scope()) })
}

func (c *Controller) swap(fn func(*Session) (*Session, error)) error {
	old := c.Session()
	next, err := fn(old)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.session = next
	c.mu.Unlock()

	slog.Debug("session_switched",
		slog.Any("kinds", next.Kinds()),
		slog.String("root", next.Scope().Root),
		slog.Int("count", next.Total()))
	return nil
}

// Total returns the number of loaded candidates of the current session.
func (c *Controller) Total() int {
	return c.Session().Total()
}

// LastQuery returns the text of the last successful query.
func (c *Controller) LastQuery() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastQuery
}

// LastSelection returns the last selected candidate, or nil.
func (c *Controller) LastSelection() *candidate.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSelection
}

// Close disposes the current session.
func (c *Controller) Close() {
	c.Session().Dispose()
}

// Mode names the kinds of a session for telemetry and output: the kind
// name for one kind, "mixed" otherwise.
func Mode(kinds []candidate.Kind) string {
	switch len(kinds) {
	case 0:
		return "none"
	case 1:
		return kinds[0].String()
	}
	return "mixed"
}
