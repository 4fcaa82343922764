package symbols

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// grammar describes how to find symbols in one tree-sitter language.
type grammar struct {
	lang *sitter.Language
	// collect appends the symbols declared by n, if any, and reports whether
	// the walk should descend into n's children.
	collect func(n *sitter.Node, src []byte, out *[]Symbol) bool
}

// grammars is keyed by the language names produced by scanner.DetectLanguage.
var grammars = map[string]grammar{
	"go":         {lang: golang.GetLanguage(), collect: collectGo},
	"typescript": {lang: typescript.GetLanguage(), collect: collectScript},
	"tsx":        {lang: tsx.GetLanguage(), collect: collectScript},
	"javascript": {lang: javascript.GetLanguage(), collect: collectScript},
	"python":     {lang: python.GetLanguage(), collect: collectPython},
}

// Supported reports whether symbols can be extracted for language.
func Supported(language string) bool {
	if language == "markdown" {
		return true
	}
	_, ok := grammars[language]
	return ok
}

// Languages lists the supported language names.
func Languages() []string {
	langs := []string{"markdown"}
	for name := range grammars {
		langs = append(langs, name)
	}
	return langs
}

func collectGo(n *sitter.Node, src []byte, out *[]Symbol) bool {
	switch n.Type() {
	case "source_file":
		return true
	case "function_declaration":
		add(out, n, src, nameOf(n, src), TypeFunction, "")
	case "method_declaration":
		add(out, n, src, nameOf(n, src), TypeMethod, goReceiver(n, src))
	case "type_declaration":
		for _, spec := range namedChildren(n) {
			if spec.Type() != "type_spec" && spec.Type() != "type_alias" {
				continue
			}
			typ := TypeType
			if body := spec.ChildByFieldName("type"); body != nil && body.Type() == "interface_type" {
				typ = TypeInterface
			}
			add(out, spec, src, nameOf(spec, src), typ, "")
		}
	case "const_declaration", "var_declaration":
		typ := TypeVariable
		if n.Type() == "const_declaration" {
			typ = TypeConstant
		}
		for _, spec := range specs(n) {
			for _, id := range namedChildren(spec) {
				if id.Type() != "identifier" {
					break
				}
				add(out, spec, src, id.Content(src), typ, "")
			}
		}
	}
	// Only top-level declarations are navigable.
	return false
}

// specs returns the const_spec/var_spec nodes of a declaration, looking
// through the var_spec_list wrapper used by grouped var declarations.
func specs(decl *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range namedChildren(decl) {
		switch c.Type() {
		case "const_spec", "var_spec":
			out = append(out, c)
		case "var_spec_list":
			out = append(out, specs(c)...)
		}
	}
	return out
}

// goReceiver returns the receiver type name of a method, without pointer.
func goReceiver(n *sitter.Node, src []byte) string {
	recv := n.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	var name string
	walk(recv, func(c *sitter.Node) bool {
		if name == "" && c.Type() == "type_identifier" {
			name = c.Content(src)
		}
		return name == ""
	})
	return name
}

func collectScript(n *sitter.Node, src []byte, out *[]Symbol) bool {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		add(out, n, src, nameOf(n, src), TypeFunction, "")
		return false
	case "class_declaration", "abstract_class_declaration":
		add(out, n, src, nameOf(n, src), TypeClass, "")
		return true
	case "method_definition":
		add(out, n, src, nameOf(n, src), TypeMethod, enclosingName(n, src, "class_declaration", "abstract_class_declaration"))
		return false
	case "interface_declaration":
		add(out, n, src, nameOf(n, src), TypeInterface, "")
		return false
	case "type_alias_declaration":
		add(out, n, src, nameOf(n, src), TypeType, "")
		return false
	case "enum_declaration":
		add(out, n, src, nameOf(n, src), TypeEnum, "")
		return false
	case "lexical_declaration", "variable_declaration":
		if !topLevel(n) {
			return false
		}
		for _, decl := range namedChildren(n) {
			if decl.Type() != "variable_declarator" {
				continue
			}
			// Destructuring patterns declare no single name.
			if id := decl.ChildByFieldName("name"); id == nil || id.Type() != "identifier" {
				continue
			}
			typ := TypeVariable
			if isConst(n, src) {
				typ = TypeConstant
			}
			if v := decl.ChildByFieldName("value"); v != nil {
				switch v.Type() {
				case "arrow_function", "function", "function_expression":
					typ = TypeFunction
				}
			}
			add(out, n, src, nameOf(decl, src), typ, "")
		}
		return false
	case "statement_block", "function_body":
		return false
	}
	return true
}

// topLevel reports whether a declaration sits at module level, possibly
// wrapped in an export statement.
func topLevel(n *sitter.Node) bool {
	p := n.Parent()
	if p != nil && p.Type() == "export_statement" {
		p = p.Parent()
	}
	return p != nil && p.Type() == "program"
}

func isConst(n *sitter.Node, src []byte) bool {
	kind := n.ChildByFieldName("kind")
	if kind != nil {
		return kind.Content(src) == "const"
	}
	first := n.Child(0)
	return first != nil && first.Content(src) == "const"
}

func collectPython(n *sitter.Node, src []byte, out *[]Symbol) bool {
	switch n.Type() {
	case "function_definition":
		if cls := enclosingName(n, src, "class_definition"); cls != "" && directMember(n) {
			add(out, n, src, nameOf(n, src), TypeMethod, cls)
		} else {
			add(out, n, src, nameOf(n, src), TypeFunction, "")
		}
		return true
	case "class_definition":
		add(out, n, src, nameOf(n, src), TypeClass, "")
		return true
	}
	return true
}

// directMember reports whether a python function is defined directly in a
// class body rather than nested inside another function.
func directMember(n *sitter.Node) bool {
	p := n.Parent()
	if p != nil && p.Type() == "decorated_definition" {
		p = p.Parent()
	}
	return p != nil && p.Type() == "block" && p.Parent() != nil && p.Parent().Type() == "class_definition"
}
