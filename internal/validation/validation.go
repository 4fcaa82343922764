// Package validation runs data-driven ranking expectations against an
// in-memory candidate set. The suite lives in testdata/ranking.yaml so
// expectations can change without touching code.
package validation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/jump/internal/candidate"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/mcp"
	"github.com/Aman-CERP/jump/internal/provider"
	"github.com/Aman-CERP/jump/internal/rank"
	"github.com/Aman-CERP/jump/internal/session"
)

// QuerySpec defines a query with expected results.
type QuerySpec struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"` // file, symbol, command or all
	Query      string   `yaml:"query"`
	Top        string   `yaml:"top"`
	Contains   []string `yaml:"contains"`
	Excludes   []string `yaml:"excludes"`
	ExpectNone bool     `yaml:"expect_none"`
	Tier       int      `yaml:"-"` // 1, 2, or 0 for negative
}

// SymbolSpec is a symbol candidate of the suite.
type SymbolSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	File string `yaml:"file"`
	Line int    `yaml:"line"`
}

// Candidates is the candidate set the suite ranks.
type Candidates struct {
	Files    []string     `yaml:"files"`
	Symbols  []SymbolSpec `yaml:"symbols"`
	Commands []string     `yaml:"commands"`
}

// Suite holds the candidates and every query of a ranking suite.
type Suite struct {
	Candidates Candidates  `yaml:"candidates"`
	Tier1      []QuerySpec `yaml:"tier1"`
	Tier2      []QuerySpec `yaml:"tier2"`
	Negative   []QuerySpec `yaml:"negative"`
}

// LoadSuite reads a suite from a YAML file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, jerrors.New(jerrors.ErrCodeFileNotFound, "failed to read ranking suite "+path, err)
	}

	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, jerrors.New(jerrors.ErrCodeParseFailed, "failed to parse ranking suite "+path, err)
	}

	for i := range s.Tier1 {
		s.Tier1[i].Tier = 1
	}
	for i := range s.Tier2 {
		s.Tier2[i].Tier = 2
	}
	for i := range s.Negative {
		s.Negative[i].Tier = 0
	}
	for _, spec := range s.Queries() {
		if _, err := kindsOf(spec.Kind); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

var (
	defaultOnce  sync.Once
	defaultSuite *Suite
	defaultErr   error
)

// DefaultSuite loads testdata/ranking.yaml next to this package. It is
// loaded once.
func DefaultSuite() (*Suite, error) {
	defaultOnce.Do(func() {
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			defaultErr = jerrors.InternalError("failed to locate the ranking suite", nil)
			return
		}
		defaultSuite, defaultErr = LoadSuite(filepath.Join(filepath.Dir(filename), "testdata", "ranking.yaml"))
	})
	return defaultSuite, defaultErr
}

// Queries returns every query of the suite, tier 1 first.
func (s *Suite) Queries() []QuerySpec {
	return slices.Concat(s.Tier1, s.Tier2, s.Negative)
}

// Providers implements session.Source over the suite candidates.
func (s *Suite) Providers(kinds []candidate.Kind, _ provider.Scope) ([]provider.Provider, error) {
	out := make([]provider.Provider, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, &suiteProvider{kind: k, cands: s.Candidates})
	}
	return out, nil
}

// suiteProvider builds fresh candidates on every load so sessions never
// share ranking scratch fields.
type suiteProvider struct {
	kind  candidate.Kind
	cands Candidates
}

func (p *suiteProvider) Kind() candidate.Kind { return p.kind }

func (p *suiteProvider) Load(context.Context) ([]*candidate.Candidate, error) {
	var out []*candidate.Candidate
	switch p.kind {
	case candidate.KindFile:
		for _, f := range p.cands.Files {
			out = append(out, candidate.NewFile(candidate.FileData{Path: f}))
		}
	case candidate.KindSymbol:
		for _, s := range p.cands.Symbols {
			out = append(out, candidate.NewSymbol(s.Name, candidate.SymbolData{Type: s.Type, File: s.File, Line: s.Line}))
		}
	case candidate.KindCommand:
		for _, c := range p.cands.Commands {
			out = append(out, candidate.NewCommand(candidate.CommandData{Path: strings.Fields(c)}))
		}
	}
	return out, nil
}

func (p *suiteProvider) Activate(context.Context, *candidate.Candidate, bool) error { return nil }

func kindsOf(name string) ([]candidate.Kind, error) {
	if name == "all" {
		return candidate.Kinds(), nil
	}
	k, err := candidate.ParseKind(name)
	if err != nil {
		return nil, err
	}
	return []candidate.Kind{k}, nil
}

// TestResult captures the outcome of a single query.
type TestResult struct {
	Spec       QuerySpec     `json:"spec"`
	Passed     bool          `json:"passed"`
	Duration   time.Duration `json:"duration_ms"`
	TopResults []string      `json:"top_results"`
	Failures   []string      `json:"failures,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// ValidationResult captures results of a full run.
type ValidationResult struct {
	Timestamp  time.Time    `json:"timestamp"`
	Tier1      []TestResult `json:"tier1"`
	Tier2      []TestResult `json:"tier2"`
	Negative   []TestResult `json:"negative"`
	Tier1Pass  int          `json:"tier1_pass"`
	Tier1Total int          `json:"tier1_total"`
	Tier2Pass  int          `json:"tier2_pass"`
	Tier2Total int          `json:"tier2_total"`
	NegPass    int          `json:"negative_pass"`
	NegTotal   int          `json:"negative_total"`
}

// Passed reports whether every query passed.
func (r *ValidationResult) Passed() bool {
	return r.Tier1Pass == r.Tier1Total && r.Tier2Pass == r.Tier2Total && r.NegPass == r.NegTotal
}

// Validator runs suite queries through the MCP server.
type Validator struct {
	suite  *Suite
	server *mcp.Server
}

// NewValidator creates a validator ranking with opts.
func NewValidator(suite *Suite, opts rank.Options) (*Validator, error) {
	server, err := mcp.NewServer(suite, os.TempDir(), mcp.Options{
		Session: session.Options{Rank: opts},
		Limit:   mcp.MaxLimit,
	})
	if err != nil {
		return nil, err
	}
	return &Validator{suite: suite, server: server}, nil
}

// Close releases the loaded sessions.
func (v *Validator) Close() error {
	return v.server.Close()
}

// RunQuery executes a single query and checks its expectations.
func (v *Validator) RunQuery(ctx context.Context, spec QuerySpec) TestResult {
	result := TestResult{Spec: spec}

	kinds, err := kindsOf(spec.Kind)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	out, err := v.server.Query(ctx, kinds, "", spec.Query, 0)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	for _, r := range out.Results {
		result.TopResults = append(result.TopResults, r.Name)
	}
	result.Failures = check(spec, result.TopResults)
	result.Passed = len(result.Failures) == 0
	return result
}

func check(spec QuerySpec, names []string) []string {
	var failures []string
	if spec.Top != "" {
		if len(names) == 0 || names[0] != spec.Top {
			first := "nothing"
			if len(names) > 0 {
				first = names[0]
			}
			failures = append(failures, fmt.Sprintf("want %q first, got %s", spec.Top, first))
		}
	}
	for _, want := range spec.Contains {
		if !slices.Contains(names, want) {
			failures = append(failures, fmt.Sprintf("missing %q", want))
		}
	}
	for _, bad := range spec.Excludes {
		if slices.Contains(names, bad) {
			failures = append(failures, fmt.Sprintf("unexpected %q", bad))
		}
	}
	if spec.ExpectNone && len(names) > 0 {
		failures = append(failures, fmt.Sprintf("want no results, got %d", len(names)))
	}
	return failures
}

// RunAll executes every query of the suite.
func (v *Validator) RunAll(ctx context.Context) *ValidationResult {
	result := &ValidationResult{Timestamp: time.Now()}

	for _, spec := range v.suite.Tier1 {
		tr := v.RunQuery(ctx, spec)
		result.Tier1 = append(result.Tier1, tr)
		result.Tier1Total++
		if tr.Passed {
			result.Tier1Pass++
		}
	}

	for _, spec := range v.suite.Tier2 {
		tr := v.RunQuery(ctx, spec)
		result.Tier2 = append(result.Tier2, tr)
		result.Tier2Total++
		if tr.Passed {
			result.Tier2Pass++
		}
	}

	for _, spec := range v.suite.Negative {
		tr := v.RunQuery(ctx, spec)
		result.Negative = append(result.Negative, tr)
		result.NegTotal++
		if tr.Passed {
			result.NegPass++
		}
	}

	return result
}
