package surface

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/depinfer/pkg/sourcefact"
)

var kotlinTypeNodes = map[string]bool{
	"user_type":          true,
	"nullable_type":      true,
	"parenthesized_type": true,
}

// Subtrees of a delegation specifier that never name the supertype itself.
var kotlinSupertypeSkip = map[string]bool{
	"value_arguments": true,
	"type_arguments":  true,
	"lambda_literal":  true,
	"call_suffix":     true,
}

func kotlinDeclarations(root sitter.Node, src []byte) []sourcefact.Declaration {
	var decls []sourcefact.Declaration

	for _, child := range namedChildren(root) {
		if child.Type() != "class_declaration" && child.Type() != "object_declaration" {
			continue
		}

		decl := sourcefact.Declaration{Name: kotlinName(child, src)}

		for _, specifier := range kotlinDelegationSpecifiers(child) {
			typ := kotlinSupertype(specifier)
			if typ.IsNull() {
				continue
			}

			decl.Facts = append(decl.Facts, sourcefact.Fact{Symbol: nodeText(typ, src), Kind: sourcefact.FactSupertype})
		}

		body := firstChildOfType(child, "class_body", "enum_class_body")
		decls = append(decls, withMembers(decl, func() ([]string, error) {
			return kotlinMemberTypes(body, src)
		}))
	}

	return decls
}

func kotlinName(decl sitter.Node, src []byte) string {
	if name := decl.ChildByFieldName("name"); !name.IsNull() {
		return nodeText(name, src)
	}

	return nodeText(firstChildOfType(decl, "type_identifier"), src)
}

// kotlinDelegationSpecifiers collects the specifiers whether or not the
// grammar groups them under a delegation_specifiers node.
func kotlinDelegationSpecifiers(decl sitter.Node) []sitter.Node {
	var specifiers []sitter.Node

	for _, child := range namedChildren(decl) {
		switch {
		case child.Type() == "delegation_specifiers":
			specifiers = append(specifiers, kotlinDelegationSpecifiers(child)...)
		case strings.HasPrefix(child.Type(), "delegation_specifier"):
			specifiers = append(specifiers, child)
		}
	}

	return specifiers
}

func kotlinSupertype(n sitter.Node) sitter.Node {
	for _, child := range namedChildren(n) {
		if kotlinSupertypeSkip[child.Type()] {
			continue
		}

		if child.Type() == "user_type" || child.Type() == "nullable_type" {
			return child
		}

		if found := kotlinSupertype(child); !found.IsNull() {
			return found
		}
	}

	return sitter.Node{}
}

func kotlinMemberTypes(body sitter.Node, src []byte) ([]string, error) {
	var types []string

	for _, member := range namedChildren(body) {
		if member.Type() == errorNodeType {
			return nil, memberError(member, src)
		}

		if hasModifier(member, src, "private", "internal") {
			continue
		}

		var typ sitter.Node

		switch member.Type() {
		case "function_declaration":
			typ = kotlinReturnType(member)
		case "property_declaration":
			typ = firstChildOfType(firstChildOfType(member, "variable_declaration"), "user_type", "nullable_type")
		default:
			continue
		}

		if typ.IsNull() {
			continue
		}

		if containsError(typ) {
			return nil, memberError(member, src)
		}

		types = append(types, kotlinTypeName(typ, src))
	}

	return types, nil
}

// kotlinReturnType finds the declared return type, which follows the
// parameter list and precedes the body. Receiver types come before the
// parameters and are ignored.
func kotlinReturnType(fn sitter.Node) sitter.Node {
	seenParams := false

	for _, child := range namedChildren(fn) {
		switch {
		case child.Type() == "function_value_parameters":
			seenParams = true
		case child.Type() == "function_body":
			return sitter.Node{}
		case seenParams && kotlinTypeNodes[child.Type()]:
			return child
		}
	}

	return sitter.Node{}
}

func kotlinTypeName(typ sitter.Node, src []byte) string {
	switch typ.Type() {
	case "nullable_type", "parenthesized_type":
		inner := firstChildOfType(typ, "user_type", "nullable_type", "parenthesized_type")
		if inner.IsNull() {
			return ""
		}

		return kotlinTypeName(inner, src)
	default:
		return nodeText(typ, src)
	}
}
