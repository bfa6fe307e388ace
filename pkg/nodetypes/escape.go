package nodetypes

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// reservedKeywords get a "__" suffix when a whole escaped name matches one.
// Changing this list renames generated identifiers.
var reservedKeywords = []string{
	"boolean", "case", "date", "float", "int", "key", "of", "order", "ref",
	"string", "subtype", "type", "unique", "varchar",
}

// symbolNames maps punctuation to the word used in identifiers.
// Changing this table renames generated identifiers.
var symbolNames = map[rune]string{
	'{':  "lbrace",
	'}':  "rbrace",
	'<':  "langle",
	'>':  "rangle",
	'[':  "lbracket",
	']':  "rbracket",
	'(':  "lparen",
	')':  "rparen",
	'|':  "pipe",
	'=':  "equal",
	'~':  "tilde",
	'?':  "question",
	'`':  "backtick",
	'^':  "caret",
	'!':  "bang",
	'#':  "hash",
	'%':  "percent",
	'&':  "ampersand",
	'.':  "dot",
	',':  "comma",
	'/':  "slash",
	':':  "colon",
	';':  "semicolon",
	'"':  "dquote",
	'*':  "star",
	'+':  "plus",
	'-':  "minus",
	'@':  "at",
}

// NodeTypeName returns the unescaped name for a (kind, named) pair.
// Unnamed kinds get an "_unnamed" suffix so they never collide with a named
// kind of the same text.
func NodeTypeName(kind string, named bool) string {
	if named {
		return kind
	}
	return kind + "_unnamed"
}

// EscapeName returns name rewritten into a valid identifier. It is total.
func EscapeName(name string) string {
	var b strings.Builder
	lower := cases.Lower(language.Und)

	if strings.HasPrefix(name, "_") {
		b.WriteString("underscore")
	}
	for _, c := range name {
		if word, ok := symbolNames[c]; ok {
			b.WriteString(word)
			continue
		}
		// Uppercase includes Other_Uppercase (circled and roman numeral
		// letters) and lowers with full case mapping, so İ becomes two runes.
		if unicode.In(c, unicode.Upper, unicode.Other_Uppercase) {
			b.WriteString(lower.String(string(c)))
			b.WriteByte('_')
			continue
		}
		b.WriteRune(c)
	}

	result := b.String()
	if slices.Contains(reservedKeywords, result) {
		result += "__"
	}
	return result
}

// ClassName converts an escaped, snake_case schema name to a class name by
// upper-casing the first letter of every underscore-separated word. Only
// ASCII letters are upper-cased.
func ClassName(dbschemeName string) string {
	var b strings.Builder
	for _, word := range strings.Split(dbschemeName, "_") {
		r, size := utf8.DecodeRuneInString(word)
		if size == 0 {
			continue
		}
		if 'a' <= r && r <= 'z' {
			r -= 'a' - 'A'
		}
		b.WriteRune(r)
		b.WriteString(word[size:])
	}
	return b.String()
}
