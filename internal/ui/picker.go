package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Aman-CERP/jump/internal/candidate"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/output"
	"github.com/Aman-CERP/jump/internal/watcher"
)

// Searcher is what the picker drives. session.Controller implements it.
type Searcher interface {
	Query(text string) ([]*candidate.Candidate, error)
	Select(ctx context.Context, c *candidate.Candidate, commit bool) error
	SwitchKind(ctx context.Context, kinds ...candidate.Kind) error
	Total() int
}

// PickerConfig configures a Picker.
type PickerConfig struct {
	Input   io.Reader
	Output  io.Writer
	NoColor bool

	Modes []Mode
	// Mode is the index of the starting mode.
	Mode int
	// Query is the initial query text.
	Query string
	// Root is shown in the header.
	Root string

	// Load, when set, runs before the first query while a spinner shows.
	Load func(ctx context.Context) error
}

type pickerState int

const (
	stateLoading pickerState = iota
	stateReady
	stateEmpty
	stateError
	stateDone
	stateCancelled
)

type loadedMsg struct{ err error }

type queryDoneMsg struct {
	requestID uint64
	cands     []*candidate.Candidate
	results   []output.Result
	elapsed   time.Duration
	err       error
}

type switchedMsg struct {
	mode int
	err  error
}

// ReloadedMsg tells the picker that the session was rebuilt after files
// changed.
type ReloadedMsg struct {
	Events int
	Err    error
}

// Model is the bubbletea model of the picker.
type Model struct {
	ctx      context.Context
	searcher Searcher
	cfg      PickerConfig
	styles   Styles
	noColor  bool

	state   pickerState
	input   textinput.Model
	spinner spinner.Model
	latency *Sparkline

	modes []Mode
	mode  int

	// queryMu keeps a query and the snapshot of its matches together.
	queryMu   *sync.Mutex
	requestID uint64
	query     string

	cands     []*candidate.Candidate
	results   []output.Result
	selection int
	elapsed   time.Duration
	status    string
	err       error

	selected *candidate.Candidate

	width  int
	height int
}

// NewModel creates a picker model over s.
func NewModel(ctx context.Context, s Searcher, cfg PickerConfig) *Model {
	if len(cfg.Modes) == 0 {
		cfg.Modes = DefaultModes(nil)
	}
	noColor := cfg.NoColor || DetectNoColor()
	styles := GetStyles(noColor)

	in := textinput.New()
	in.Prompt = "> "
	in.PromptStyle = styles.Prompt
	in.Placeholder = "type to jump"
	in.SetValue(cfg.Query)
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Prompt

	return &Model{
		ctx:       ctx,
		searcher:  s,
		cfg:       cfg,
		styles:    styles,
		noColor:   noColor,
		state:     stateLoading,
		input:     in,
		spinner:   sp,
		latency:   NewSparkline(20),
		modes:     cfg.Modes,
		mode:      min(max(cfg.Mode, 0), len(cfg.Modes)-1),
		queryMu:   &sync.Mutex{},
		selection: -1,
		width:     80,
		height:    24,
	}
}

// Selected returns the candidate picked with enter, or nil.
func (m *Model) Selected() *candidate.Candidate {
	return m.selected
}

// Cancelled reports whether the user left without picking.
func (m *Model) Cancelled() bool {
	return m.state == stateCancelled
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.cfg.Load == nil {
		return tea.Batch(textinput.Blink, m.startQuery())
	}
	load := m.cfg.Load
	ctx := m.ctx
	return tea.Batch(textinput.Blink, m.spinner.Tick, func() tea.Msg {
		return loadedMsg{err: load(ctx)}
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		return m, m.startQuery()

	case queryDoneMsg:
		return m.handleQueryDone(msg)

	case switchedMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.mode = msg.mode
		m.selection = -1
		return m, m.startQuery()

	case ReloadedMsg:
		if msg.Err != nil {
			m.status = "reload failed: " + msg.Err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("reloaded after %d changes", msg.Events)
		return m, m.startQuery()

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.state = stateCancelled
		return m, tea.Quit

	case "enter":
		if m.selection >= 0 && m.selection < len(m.cands) {
			m.selected = m.cands[m.selection]
			m.state = stateDone
			return m, tea.Quit
		}
		return m, nil

	case "up", "ctrl+p", "ctrl+k":
		return m, m.move(-1)

	case "down", "ctrl+n", "ctrl+j":
		return m, m.move(1)

	case "tab":
		return m, m.switchMode((m.mode + 1) % len(m.modes))

	case "shift+tab":
		return m, m.switchMode((m.mode + len(m.modes) - 1) % len(m.modes))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.query {
		return m, tea.Batch(cmd, m.startQuery())
	}
	return m, cmd
}

// move shifts the selection and highlights the new candidate.
func (m *Model) move(delta int) tea.Cmd {
	if len(m.cands) == 0 {
		return nil
	}
	next := min(max(m.selection+delta, 0), len(m.cands)-1)
	if next == m.selection {
		return nil
	}
	m.selection = next
	c := m.cands[next]
	s, ctx := m.searcher, m.ctx
	return func() tea.Msg {
		// Highlight only; failures surface on commit.
		_ = s.Select(ctx, c, false)
		return nil
	}
}

func (m *Model) switchMode(next int) tea.Cmd {
	if len(m.modes) < 2 || next == m.mode {
		return nil
	}
	m.state = stateLoading
	m.status = ""
	kinds := m.modes[next].Kinds
	s, ctx := m.searcher, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return switchedMsg{mode: next, err: s.SwitchKind(ctx, kinds...)}
	})
}

// startQuery ranks the current input. Results of older requests are
// dropped when they arrive.
func (m *Model) startQuery() tea.Cmd {
	m.requestID++
	m.query = m.input.Value()
	reqID, text := m.requestID, m.query
	s, mu := m.searcher, m.queryMu

	return func() tea.Msg {
		mu.Lock()
		defer mu.Unlock()
		start := time.Now()
		cands, err := s.Query(text)
		msg := queryDoneMsg{requestID: reqID, cands: cands, elapsed: time.Since(start), err: err}
		if err == nil {
			msg.results = output.FromCandidates(cands)
		}
		return msg
	}
}

func (m *Model) handleQueryDone(msg queryDoneMsg) (tea.Model, tea.Cmd) {
	if msg.requestID != m.requestID {
		return m, nil
	}
	if msg.err != nil {
		m.fail(msg.err)
		return m, nil
	}

	m.cands = msg.cands
	m.results = msg.results
	m.elapsed = msg.elapsed
	m.err = nil
	m.latency.Add(float64(msg.elapsed.Microseconds()))

	if len(m.results) == 0 {
		m.state = stateEmpty
		m.selection = -1
		return m, nil
	}
	m.state = stateReady
	// A new query starts at the best match.
	m.selection = 0
	return m, nil
}

func (m *Model) fail(err error) {
	m.state = stateError
	m.err = err
	m.cands = nil
	m.results = nil
	m.selection = -1
}

func (m *Model) listHeight() int {
	// mode bar, status line and prompt
	const chrome = 3
	if h := m.height - chrome; h > 0 {
		return h
	}
	return 1
}

// View implements tea.Model.
func (m *Model) View() string {
	switch m.state {
	case stateDone, stateCancelled:
		return ""
	}

	var b strings.Builder
	b.WriteString(m.viewModes())
	b.WriteByte('\n')
	b.WriteString(m.viewContent())
	b.WriteByte('\n')
	b.WriteString(m.viewStatus())
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}

func (m *Model) viewModes() string {
	parts := make([]string, len(m.modes))
	for i, mode := range m.modes {
		if i == m.mode {
			label := mode.Label
			if m.noColor {
				label = "[" + label + "]"
			}
			parts[i] = m.styles.ActiveMode.Render(label)
		} else {
			parts[i] = m.styles.InactiveMode.Render(mode.Label)
		}
	}
	header := strings.Join(parts, "  ")
	if m.cfg.Root != "" {
		header += m.styles.Dim.Render("  " + m.cfg.Root)
	}
	return header
}

func (m *Model) viewContent() string {
	switch m.state {
	case stateLoading:
		return m.spinner.View() + " " + m.styles.Label.Render("Loading "+strings.ToLower(m.modes[m.mode].Label)+"...")
	case stateEmpty:
		return m.styles.Dim.Render("No matches")
	case stateError:
		return m.styles.Error.Render(jerrors.FormatForUser(m.err))
	}
	return m.viewList()
}

func (m *Model) viewList() string {
	rows := m.listHeight()
	// Keep the selection visible.
	first := 0
	if m.selection >= rows {
		first = m.selection - rows + 1
	}
	last := min(first+rows, len(m.results))

	mark := m.styles.Match.Render
	if m.noColor {
		mark = output.Bracket
	}

	lines := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		r := m.results[i]
		name := output.Highlight(r.Name, r.Matches, mark)
		line := m.styles.Kind.Render(fmt.Sprintf("%-7s", r.Kind)) + " " + name
		if r.Detail != "" {
			line += "  " + m.styles.Detail.Render(r.Detail)
		}
		if i == m.selection {
			lines = append(lines, m.styles.Selected.Render("> ")+line)
		} else {
			lines = append(lines, "  "+line)
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewStatus() string {
	parts := []string{fmt.Sprintf("%d/%d", len(m.results), m.searcher.Total())}
	if m.latency.Count() > 0 {
		parts = append(parts, m.elapsed.Round(time.Microsecond).String()+" "+m.styles.Sparkline.Render(m.latency.Render()))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	parts = append(parts, "tab: mode  enter: open  esc: quit")
	return m.styles.Label.Render(strings.Join(parts, "  •  "))
}

// Picker runs the picker model as a bubbletea program.
type Picker struct {
	model   *Model
	program *tea.Program
}

// NewPicker creates a picker. It fails when the output is not a terminal.
func NewPicker(ctx context.Context, s Searcher, cfg PickerConfig) (*Picker, error) {
	if !IsTTY(cfg.Output) {
		return nil, jerrors.New(jerrors.ErrCodeInvalidInput, "picker needs a terminal", nil).
			WithSuggestion("Use 'jump query' for non-interactive output")
	}

	m := NewModel(ctx, s, cfg)
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen(), tea.WithOutput(cfg.Output)}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}
	return &Picker{model: m, program: tea.NewProgram(m, opts...)}, nil
}

// Run blocks until the user picks a candidate or leaves. It returns nil
// when nothing was picked.
func (p *Picker) Run() (*candidate.Candidate, error) {
	final, err := p.program.Run()
	if err != nil {
		return nil, jerrors.New(jerrors.ErrCodeInternal, "picker failed", err)
	}
	m, ok := final.(*Model)
	if !ok {
		return nil, nil
	}
	return m.Selected(), nil
}

// Reloaded forwards a watcher reload to the running picker.
func (p *Picker) Reloaded(r watcher.Reload) {
	p.program.Send(ReloadedMsg{Events: len(r.Events), Err: r.Err})
}

// Quit stops the program, e.g. on shutdown signals.
func (p *Picker) Quit() {
	p.program.Quit()
}
