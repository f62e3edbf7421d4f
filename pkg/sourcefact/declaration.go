package sourcefact

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

const (
	packageKeyword = "package"
	importKeyword  = "import"
	optionKeyword  = "option java_package"
	wildcard       = "*"
)

var declarationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*([^*]|\*+[^*/])*\*+/`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Ident", Pattern: "[\\p{L}_$][\\p{L}\\p{N}_$]*|`[^`]+`"},
	{Name: "Punct", Pattern: `[.*;=]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type packageClause struct {
	Path []string `parser:"'package' @Ident ( '.' @Ident )*"`
}

type importClause struct {
	Static bool     `parser:"'import' @'static'?"`
	Path   []string `parser:"@Ident ( '.' @( Ident | '*' ) )*"`
	Alias  string   `parser:"( 'as' @Ident )? ';'?"`
}

type javaPackageOption struct {
	Value string `parser:"'option' 'java_package' '=' @String ';'?"`
}

var (
	packageParser = participle.MustBuild[packageClause](
		participle.Lexer(declarationLexer),
		participle.Elide("Whitespace", "Comment"),
	)
	importParser = participle.MustBuild[importClause](
		participle.Lexer(declarationLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(2),
	)
	optionParser = participle.MustBuild[javaPackageOption](
		participle.Lexer(declarationLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.Unquote("String"),
	)
)

// Import is a parsed import statement.
type Import struct {
	// Path holds the dotted segments as written, without a static member.
	Path []string
	// Static is set for member imports; the member segment is already dropped.
	Static bool
	// Alias is the local name given with "as", if any.
	Alias string
}

// Wildcard reports whether the import brings in every symbol of a package or type.
func (imp Import) Wildcard() bool {
	return len(imp.Path) > 0 && imp.Path[len(imp.Path)-1] == wildcard
}

// Package returns everything before the last segment, or "" for a single-segment import.
func (imp Import) Package() string {
	if len(imp.Path) < 2 { //nolint:mnd // a package needs at least one segment before the symbol.
		return ""
	}

	return strings.Join(imp.Path[:len(imp.Path)-1], ".")
}

// Symbol returns the imported short name, or "" for wildcard imports.
func (imp Import) Symbol() string {
	if len(imp.Path) == 0 || imp.Wildcard() {
		return ""
	}

	return imp.Path[len(imp.Path)-1]
}

// Declarations only count at column 0; indented text is string or block
// content such as a Kotlin raw string or a Java text block.

// IsPackageLine reports whether the line starts a package declaration.
func IsPackageLine(line string) bool {
	return hasKeyword(line, packageKeyword)
}

// IsImportLine reports whether the line starts an import statement.
func IsImportLine(line string) bool {
	return hasKeyword(line, importKeyword)
}

// IsJavaPackageOptionLine reports whether the line is a protobuf java_package option.
func IsJavaPackageOptionLine(line string) bool {
	return strings.HasPrefix(line, optionKeyword)
}

func hasKeyword(line, keyword string) bool {
	rest, ok := strings.CutPrefix(line, keyword)

	return ok && rest != "" && (rest[0] == ' ' || rest[0] == '\t')
}

// ParsePackage returns the package named by a package declaration line.
// Anything after the dotted name (a terminator, a comment) is ignored.
func ParsePackage(line string) (string, error) {
	clause, err := packageParser.ParseString("", line, participle.AllowTrailing(true))
	if err != nil {
		return "", fmt.Errorf("package: %w", err)
	}

	return joinSegments(clause.Path), nil
}

// ParseImport parses plain, static and aliased import statements.
//
//	import a.b.C;               -> Path [a b C]
//	import a.b.*;               -> Path [a b *]
//	import static a.b.C.member; -> Path [a b C], Static
//	import a.b.C as D           -> Path [a b C], Alias D
func ParseImport(line string) (Import, error) {
	clause, err := importParser.ParseString("", line)
	if err != nil {
		return Import{}, fmt.Errorf("import: %w", err)
	}

	path := make([]string, len(clause.Path))
	for i, segment := range clause.Path {
		path[i] = strings.Trim(segment, "`")
	}

	if clause.Static {
		path = path[:len(path)-1]
	}

	return Import{Path: path, Static: clause.Static, Alias: strings.Trim(clause.Alias, "`")}, nil
}

// ParseJavaPackageOption returns the quoted value of an `option java_package` line.
func ParseJavaPackageOption(line string) (string, error) {
	option, err := optionParser.ParseString("", line)
	if err != nil {
		return "", fmt.Errorf("option java_package: %w", err)
	}

	return option.Value, nil
}

func joinSegments(segments []string) string {
	trimmed := make([]string, len(segments))
	for i, segment := range segments {
		trimmed[i] = strings.Trim(segment, "`")
	}

	return strings.Join(trimmed, ".")
}
