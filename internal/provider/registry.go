package provider

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/jump/internal/candidate"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/scanner"
)

// Deps are the shared resources providers are built from.
type Deps struct {
	Scanner *scanner.Scanner

	// Scan holds the scan settings; its Root is replaced by the scope root.
	Scan scanner.Options

	Symbols     SymbolOptions
	SymbolCache *SymbolCache

	Opener Opener

	// Commands is the command tree listed by the command provider.
	Commands   *cobra.Command
	RunCommand RunFunc
}

// Registry builds providers for a scope.
type Registry struct {
	deps Deps
}

// NewRegistry creates a Registry. A scanner and a symbol cache are created
// when Deps leaves them nil.
func NewRegistry(deps Deps) (*Registry, error) {
	if deps.Scanner == nil {
		s, err := scanner.New()
		if err != nil {
			return nil, err
		}
		deps.Scanner = s
	}
	if deps.SymbolCache == nil {
		c, err := NewSymbolCache(DefaultSymbolCacheSize)
		if err != nil {
			return nil, err
		}
		deps.SymbolCache = c
	}
	return &Registry{deps: deps}, nil
}

// Scanner returns the shared scanner.
func (r *Registry) Scanner() *scanner.Scanner {
	return r.deps.Scanner
}

// Provider builds the provider of kind for scope.
func (r *Registry) Provider(kind candidate.Kind, scope Scope) (Provider, error) {
	scope, err := scope.Normalize()
	if err != nil {
		return nil, err
	}
	scan := r.deps.Scan
	scan.Root = scope.Root

	switch kind {
	case candidate.KindFile:
		return NewFileProvider(r.deps.Scanner, scan, r.deps.Opener), nil
	case candidate.KindSymbol:
		opts := r.deps.Symbols
		opts.Scan = scan
		opts.Document = scope.Document
		return NewSymbolProvider(r.deps.Scanner, r.deps.SymbolCache, opts, r.deps.Opener), nil
	case candidate.KindCommand:
		return NewCommandProvider(r.deps.Commands, r.deps.RunCommand), nil
	}
	return nil, jerrors.New(jerrors.ErrCodeUnknownKind, fmt.Sprintf("no provider for %s", kind), nil)
}

// Providers builds one provider per kind, in the order given.
func (r *Registry) Providers(kinds []candidate.Kind, scope Scope) ([]Provider, error) {
	out := make([]Provider, 0, len(kinds))
	for _, k := range kinds {
		p, err := r.Provider(k, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
