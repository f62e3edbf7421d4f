// Package surface reads the public surface of Java and Kotlin files with
// tree-sitter: the top-level type declarations, their declared supertypes and
// the declared types of their outermost members. Nested declarations and
// local members are never inspected.
package surface

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/depinfer/pkg/sourcefact"
)

// Sentinel errors for surface parsing.
var (
	// ErrUnsupportedLanguage is returned for languages without a grammar.
	ErrUnsupportedLanguage = errors.New("surface: unsupported language")
	// ErrMemberType marks a member whose declared type could not be read.
	ErrMemberType = errors.New("surface: unreadable member type")

	errNoRootNode = errors.New("surface: no root node")
	errPoolType   = errors.New("surface: pool returned unexpected type")
	errWalkPanic  = errors.New("surface: walk panicked")
)

const errorNodeType = "ERROR"

type walkFunc func(root sitter.Node, src []byte) []sourcefact.Declaration

// Parser parses source files into surface declarations. Tree-sitter parsers
// are pooled per language, so a single Parser serves concurrent callers.
type Parser struct {
	pools   map[sourcefact.Language]*sync.Pool
	walkers map[sourcefact.Language]walkFunc
}

// NewParser creates a Parser for every language with a bundled grammar.
func NewParser() *Parser {
	parser := &Parser{
		pools: make(map[sourcefact.Language]*sync.Pool, len(languageFuncs)),
		walkers: map[sourcefact.Language]walkFunc{
			sourcefact.LangJava:   javaDeclarations,
			sourcefact.LangKotlin: kotlinDeclarations,
		},
	}

	for lang := range languageFuncs {
		tsLang := grammar(lang)

		parser.pools[lang] = &sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(tsLang)

				return tsParser
			},
		}
	}

	return parser
}

// Supports reports whether the language has a grammar.
func (p *Parser) Supports(lang sourcefact.Language) bool {
	_, ok := p.pools[lang]

	return ok
}

// Parse returns the top-level declarations of src. Its method value
// satisfies sourcefact.SurfaceFunc.
func (p *Parser) Parse(ctx context.Context, lang sourcefact.Language, src []byte) ([]sourcefact.Declaration, error) {
	pool, ok := p.pools[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}

	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("surface: parse %s: %w", lang, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	return p.walkers[lang](root, src), nil
}

// withMembers runs a member walk for one declaration. A failure or a panic
// leaves the supertype facts in place and records the error.
func withMembers(decl sourcefact.Declaration, walk func() ([]string, error)) (result sourcefact.Declaration) {
	result = decl

	defer func() {
		if recovered := recover(); recovered != nil {
			result = decl
			result.Err = fmt.Errorf("%w: %v", errWalkPanic, recovered)
		}
	}()

	types, err := walk()
	if err != nil {
		result.Err = err

		return result
	}

	for _, typeName := range types {
		if typeName != "" {
			result.Facts = append(result.Facts, sourcefact.Fact{Symbol: typeName, Kind: sourcefact.FactMemberType})
		}
	}

	return result
}

func nodeText(n sitter.Node, src []byte) string {
	if n.IsNull() {
		return ""
	}

	start, end := n.StartByte(), n.EndByte()
	if start > end || end > uint(len(src)) {
		return ""
	}

	return string(src[start:end])
}

func namedChildren(n sitter.Node) []sitter.Node {
	if n.IsNull() {
		return nil
	}

	count := n.NamedChildCount()
	children := make([]sitter.Node, 0, count)

	for idx := range count {
		children = append(children, n.NamedChild(idx))
	}

	return children
}

func firstChildOfType(n sitter.Node, types ...string) sitter.Node {
	for _, child := range namedChildren(n) {
		for _, typ := range types {
			if child.Type() == typ {
				return child
			}
		}
	}

	return sitter.Node{}
}

func containsError(n sitter.Node) bool {
	if n.IsNull() {
		return false
	}

	if n.Type() == errorNodeType {
		return true
	}

	for _, child := range namedChildren(n) {
		if containsError(child) {
			return true
		}
	}

	return false
}

// hasModifier reports whether a member carries any of the given modifiers.
func hasModifier(member sitter.Node, src []byte, words ...string) bool {
	modifiers := firstChildOfType(member, "modifiers")
	if modifiers.IsNull() {
		return false
	}

	for _, word := range strings.Fields(nodeText(modifiers, src)) {
		if slices.Contains(words, word) {
			return true
		}
	}

	return false
}

func memberError(member sitter.Node, src []byte) error {
	return fmt.Errorf("%w: %q", ErrMemberType, firstLine(nodeText(member, src)))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")

	return line
}
