// Package sourcefact turns the text of a single JVM-family source file into
// symbolic facts: the package it declares, the packages it imports, and the
// packages its public surface forces onto consumers.
//
// The surface inference is a best-effort heuristic. Type names found in
// supertype lists and member signatures are resolved only through the file's
// own import statements; anything else (same-package types, primitives,
// generic parameters, fully qualified inline references) is skipped.
package sourcefact

import (
	"context"

	"github.com/Sumatoshi-tech/depinfer/pkg/strset"
)

// Origin tells whether a file belongs to the library or the test source set.
type Origin int

const (
	// OriginLibrary marks production sources.
	OriginLibrary Origin = iota
	// OriginTest marks test sources.
	OriginTest
)

// String returns the origin name.
func (o Origin) String() string {
	if o == OriginTest {
		return "test"
	}

	return "library"
}

// Language identifies the source language of a file.
type Language string

const (
	// LangJava is Java source.
	LangJava Language = "java"
	// LangKotlin is Kotlin source.
	LangKotlin Language = "kotlin"
	// LangProto is a protocol buffers schema.
	LangProto Language = "proto"
)

// Kind is the structural kind of a source file.
type Kind int

const (
	// KindGeneral is a regular source file with imports and type declarations.
	KindGeneral Kind = iota
	// KindSchema is an interface-definition file that only declares a package.
	KindSchema
)

// Kind returns the structural kind of files written in the language.
func (l Language) Kind() Kind {
	if l == LangProto {
		return KindSchema
	}

	return KindGeneral
}

// File is the input of an extraction: one source file and its classification.
type File struct {
	Path     string
	Origin   Origin
	Language Language
	Content  []byte
}

// SourceUnit holds the facts extracted from one source file.
type SourceUnit struct {
	Path             string     `json:"path"             yaml:"path"`
	Origin           Origin     `json:"-"                yaml:"-"`
	DeclaredPackage  string     `json:"declared_package" yaml:"declared_package"`
	ImportedPackages strset.Set `json:"imported"         yaml:"imported"`
	ExportedPackages strset.Set `json:"exported"         yaml:"exported"`
}

// FactKind tells where a type name was found in a declaration.
type FactKind int

const (
	// FactSupertype is a declared superclass or implemented interface.
	FactSupertype FactKind = iota
	// FactMemberType is the declared type of a function or property.
	FactMemberType
)

// Fact is a type name referenced by a declaration's public surface.
type Fact struct {
	Symbol string
	Kind   FactKind
}

// Declaration is a top-level type declaration and the facts found on it.
// Err is set when member types could not be read; supertype facts collected
// before the failure are still present.
type Declaration struct {
	Name  string
	Facts []Fact
	Err   error
}

// SurfaceFunc parses a source file and returns its top-level declarations.
// It is the only part of the extractor that understands language grammar.
type SurfaceFunc func(ctx context.Context, lang Language, src []byte) ([]Declaration, error)
