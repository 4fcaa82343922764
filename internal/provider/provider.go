// Package provider enumerates candidates for the search session and acts on
// the one the user picks. Each candidate kind has its own provider.
package provider

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Aman-CERP/jump/internal/candidate"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

// Provider produces the candidates of one kind.
type Provider interface {
	Kind() candidate.Kind

	// Load enumerates every candidate. It is called once per session.
	Load(ctx context.Context) ([]*candidate.Candidate, error)

	// Activate acts on a candidate. With commit false the candidate is only
	// highlighted; with commit true it is opened or run.
	Activate(ctx context.Context, c *candidate.Candidate, commit bool) error
}

// Scope is the part of the workspace a session searches.
type Scope struct {
	// Root is the project directory.
	Root string
	// Document restricts symbol search to one file. Empty means every file
	// under Root.
	Document string
}

// Normalize resolves Root and Document to absolute paths.
func (s Scope) Normalize() (Scope, error) {
	root := s.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return s, jerrors.New(jerrors.ErrCodeInvalidPath, "cannot resolve root "+root, err)
	}
	s.Root = abs

	if s.Document != "" && !filepath.IsAbs(s.Document) {
		s.Document = filepath.Join(abs, s.Document)
	}
	return s, nil
}

// checkKind rejects candidates that do not belong to p.
func checkKind(p Provider, c *candidate.Candidate) error {
	if c == nil || c.Kind != p.Kind() {
		got := "nil"
		if c != nil {
			got = c.Kind.String()
		}
		return jerrors.New(jerrors.ErrCodeUnknownCandidate,
			fmt.Sprintf("%s provider cannot activate a %s candidate", p.Kind(), got), nil)
	}
	return nil
}
