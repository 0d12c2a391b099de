// Package casing converts identifiers to PascalCase.
package casing

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ToPascal title-cases every underscore-separated word of name using fixed
// American English casing rules and drops the underscores.
//
// Only the first letter of a word is changed; the remainder keeps its case, so
// "UserId" and "URL" come back unchanged.
func ToPascal(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' })
	if len(words) == 0 {
		return ""
	}

	// A Caser carries state between calls and is not safe for concurrent use.
	title := cases.Title(language.AmericanEnglish, cases.NoLower)

	var b strings.Builder
	b.Grow(len(name))
	for _, w := range words {
		b.WriteString(title.String(w))
	}
	return b.String()
}

// IsPascal reports whether name is already in the form ToPascal produces.
func IsPascal(name string) bool {
	return ToPascal(name) == name
}
