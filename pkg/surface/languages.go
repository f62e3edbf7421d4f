package surface

import (
	"sync"
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/alexaandru/go-sitter-forest/java"
	"github.com/alexaandru/go-sitter-forest/kotlin"

	"github.com/Sumatoshi-tech/depinfer/pkg/sourcefact"
)

// languageFuncs maps source languages to their tree-sitter GetLanguage functions.
var languageFuncs = map[sourcefact.Language]func() unsafe.Pointer{
	sourcefact.LangJava:   java.GetLanguage,
	sourcefact.LangKotlin: kotlin.GetLanguage,
}

var languageCache sync.Map

// grammar returns the tree-sitter Language for the given source language, or nil if not supported.
func grammar(lang sourcefact.Language) *sitter.Language {
	if cached, ok := languageCache.Load(lang); ok {
		tsLang, castOK := cached.(*sitter.Language)
		if castOK {
			return tsLang
		}
	}

	fn, ok := languageFuncs[lang]
	if !ok {
		return nil
	}

	tsLang := sitter.NewLanguage(fn())
	languageCache.Store(lang, tsLang)

	return tsLang
}
