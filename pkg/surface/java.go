package surface

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/depinfer/pkg/sourcefact"
)

var javaTypeDeclarations = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
}

var javaSupertypeClauses = map[string]bool{
	"superclass":         true,
	"super_interfaces":   true,
	"extends_interfaces": true,
}

// javaImplicitlyPublic holds the bodies whose members are public without a modifier.
var javaImplicitlyPublic = map[string]bool{
	"interface_body":       true,
	"annotation_type_body": true,
}

var javaMembers = map[string]bool{
	"method_declaration":   true,
	"field_declaration":    true,
	"constant_declaration": true,
}

func javaDeclarations(root sitter.Node, src []byte) []sourcefact.Declaration {
	var decls []sourcefact.Declaration

	for _, child := range namedChildren(root) {
		if !javaTypeDeclarations[child.Type()] {
			continue
		}

		decl := sourcefact.Declaration{Name: nodeText(child.ChildByFieldName("name"), src)}

		for _, clause := range namedChildren(child) {
			if !javaSupertypeClauses[clause.Type()] {
				continue
			}

			for _, typ := range javaClauseTypes(clause) {
				decl.Facts = append(decl.Facts, sourcefact.Fact{
					Symbol: javaTypeName(typ, src),
					Kind:   sourcefact.FactSupertype,
				})
			}
		}

		body := child.ChildByFieldName("body")
		decls = append(decls, withMembers(decl, func() ([]string, error) {
			return javaMemberTypes(body, src)
		}))
	}

	return decls
}

// javaClauseTypes returns the type nodes of an extends/implements clause.
func javaClauseTypes(clause sitter.Node) []sitter.Node {
	var types []sitter.Node

	for _, child := range namedChildren(clause) {
		if child.Type() == "type_list" {
			types = append(types, namedChildren(child)...)

			continue
		}

		types = append(types, child)
	}

	return types
}

func javaTypeName(typ sitter.Node, src []byte) string {
	switch typ.Type() {
	case "generic_type":
		children := namedChildren(typ)
		if len(children) == 0 {
			return ""
		}

		return javaTypeName(children[0], src)
	case "annotated_type":
		children := namedChildren(typ)
		if len(children) == 0 {
			return ""
		}

		return javaTypeName(children[len(children)-1], src)
	case "void_type", "integral_type", "floating_point_type", "boolean_type", "type_parameters":
		return ""
	default:
		return nodeText(typ, src)
	}
}

func javaMemberTypes(body sitter.Node, src []byte) ([]string, error) {
	var types []string

	implicitPublic := !body.IsNull() && javaImplicitlyPublic[body.Type()]

	for _, member := range javaBodyMembers(body) {
		if member.Type() == errorNodeType {
			return nil, memberError(member, src)
		}

		if !javaMembers[member.Type()] || !javaVisible(member, src, implicitPublic) {
			continue
		}

		typ := member.ChildByFieldName("type")
		if typ.IsNull() {
			continue
		}

		if containsError(typ) {
			return nil, memberError(member, src)
		}

		types = append(types, javaTypeName(typ, src))
	}

	return types, nil
}

// javaBodyMembers flattens enum bodies, whose members follow the constants.
func javaBodyMembers(body sitter.Node) []sitter.Node {
	var members []sitter.Node

	for _, child := range namedChildren(body) {
		if child.Type() == "enum_body_declarations" {
			members = append(members, namedChildren(child)...)

			continue
		}

		members = append(members, child)
	}

	return members
}

// javaVisible reports whether a member is visible outside its package.
func javaVisible(member sitter.Node, src []byte, implicitPublic bool) bool {
	if implicitPublic {
		return !hasModifier(member, src, "private")
	}

	return hasModifier(member, src, "public", "protected")
}
