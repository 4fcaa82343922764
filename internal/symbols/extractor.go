package symbols

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

// Extractor parses files and returns their symbols. It owns a tree-sitter
// parser and must not be used concurrently; create one per goroutine.
type Extractor struct {
	parser *sitter.Parser
}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{parser: sitter.NewParser()}
}

// Close releases the parser.
func (e *Extractor) Close() {
	if e.parser != nil {
		e.parser.Close()
		e.parser = nil
	}
}

// Extract returns the symbols of src in source order. Unsupported languages
// yield no symbols and no error.
func (e *Extractor) Extract(ctx context.Context, src []byte, language string) ([]Symbol, error) {
	if language == "markdown" {
		return Headings(src), nil
	}

	g, ok := grammars[language]
	if !ok {
		return nil, nil
	}

	e.parser.SetLanguage(g.lang)
	tree, err := e.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, jerrors.New(jerrors.ErrCodeParseFailed, fmt.Sprintf("parse %s source", language), err)
	}
	if tree == nil {
		return nil, jerrors.New(jerrors.ErrCodeParseFailed, fmt.Sprintf("parse %s source: no tree", language), nil)
	}
	defer tree.Close()

	var out []Symbol
	walk(tree.RootNode(), func(n *sitter.Node) bool {
		return g.collect(n, src, &out)
	})
	return out, nil
}

// walk visits n depth first. fn returns whether to descend into n.
func walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), fn)
	}
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func nameOf(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}
	return ""
}

// enclosingName returns the name of the nearest ancestor of one of types.
func enclosingName(n *sitter.Node, src []byte, types ...string) string {
	for p := n.Parent(); p != nil; p = p.Parent() {
		for _, t := range types {
			if p.Type() == t {
				return nameOf(p, src)
			}
		}
	}
	return ""
}

func add(out *[]Symbol, n *sitter.Node, src []byte, name string, typ Type, container string) {
	if name == "" {
		return
	}
	*out = append(*out, Symbol{
		Name:      name,
		Type:      typ,
		Container: container,
		Line:      int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		Signature: signature(n.Content(src)),
	})
}

// signature is the first line of a declaration up to its opening brace.
func signature(content string) string {
	line, _, _ := strings.Cut(content, "\n")
	if i := strings.Index(line, "{"); i > 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
