// Package parser is the collaborator that turns source files into artifact
// trees. It wraps tree-sitter grammars; the kinds and ordered/unordered
// child semantics it declares are all the merge core ever sees of a
// language.
package parser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/t03i/jdime/internal/artifact"
)

// Language identifies a supported grammar.
type Language string

const (
	LangGo     Language = "go"
	LangPython Language = "python"
)

// ParseError reports an input that could not be parsed. Under the combined
// strategy it triggers the fallback to the line-based merge.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s: %s", e.Path, e.Reason)
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// DetectLanguage maps a file name to its grammar.
func DetectLanguage(path string) (Language, error) {
	switch filepath.Ext(path) {
	case ".go":
		return LangGo, nil
	case ".py":
		return LangPython, nil
	default:
		return "", &ParseError{Path: path, Reason: "unsupported file type"}
	}
}

// Parser produces artifact trees from source bytes. A new tree-sitter
// parser is created per Parse call, so a Parser value is safe to share.
type Parser struct {
	languages map[Language]*tree_sitter.Language
}

// New creates a parser with the Go and Python grammars registered.
func New() *Parser {
	return &Parser{
		languages: map[Language]*tree_sitter.Language{
			LangGo:     tree_sitter.NewLanguage(tree_sitter_go.Language()),
			LangPython: tree_sitter.NewLanguage(tree_sitter_python.Language()),
		},
	}
}

// Parse builds the artifact tree of one source file in the given revision.
func (p *Parser) Parse(ctx context.Context, path string, source []byte, rev artifact.Revision) (*artifact.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lang, err := DetectLanguage(path)
	if err != nil {
		return nil, err
	}
	tsLang := p.languages[lang]

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, &ParseError{Path: path, Reason: "parser returned no tree"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &ParseError{Path: path, Reason: "syntax errors in input"}
	}

	unit := convert(root, source, rev)
	unit.Renumber()
	return unit, nil
}

// convert maps a tree-sitter subtree onto the artifact model. Nodes
// without named children become token leaves carrying their exact source
// text; named constructs carry their identifying name as payload so the
// matchers can pair them across revisions.
func convert(node *tree_sitter.Node, source []byte, rev artifact.Revision) *artifact.Artifact {
	count := uint(node.NamedChildCount())
	kind := mapKind(node.Kind(), count == 0)

	payload := ""
	if count == 0 {
		payload = node.Utf8Text(source)
	} else if name := node.ChildByFieldName("name"); name != nil {
		payload = name.Utf8Text(source)
	}

	a := artifact.New(rev, kind, payload)
	for i := uint(0); i < count; i++ {
		a.AddChild(convert(node.NamedChild(i), source, rev))
	}
	return a
}

// mapKind folds the grammar's node kinds onto the model's kind set.
func mapKind(tsKind string, leaf bool) artifact.Kind {
	switch tsKind {
	case "source_file", "module":
		return artifact.KindCompilationUnit
	case "type_declaration", "type_spec", "class_definition":
		return artifact.KindClass
	case "function_declaration", "method_declaration", "function_definition":
		return artifact.KindMethod
	}
	switch {
	case strings.HasSuffix(tsKind, "_statement"),
		strings.HasSuffix(tsKind, "_declaration"),
		tsKind == "block",
		tsKind == "short_var_declaration":
		return artifact.KindStatement
	case leaf:
		return artifact.KindToken
	default:
		return artifact.KindExpression
	}
}
