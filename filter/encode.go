package filter

import (
	"strings"
	"unicode"
)

// Encoder renders a sanitized filter tree as a SQL boolean expression in
// some dialect. The explain action is served through this interface.
type Encoder interface {
	// Encode converts a tree to SQL. A nil tree encodes to "TRUE".
	Encode(n *Node) string
}

var _ Encoder = (*DuckDBEncoder)(nil)

// EncoderOptions configures encoding behavior.
type EncoderOptions struct {
	// ColumnMapping renames dataset columns in the generated SQL, e.g. to
	// qualify them with a table alias. Unmapped columns keep their names.
	ColumnMapping map[string]string
}

// quoteLiteral renders s as a single-quoted SQL string.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// sqlKeywords are words DuckDB will not accept as bare column names.
var sqlKeywords = func() map[string]struct{} {
	words := strings.Fields(`
		all alter and as asc between by case cast check constraint create date
		default delete desc distinct drop else end except exists false first
		foreign from group having in index inner insert interval intersect into
		is join key last left like limit not null nulls offset on or order outer
		primary references right select set table then time timestamp true union
		unique update values when where`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// quoteIdentifier double-quotes name unless it is a bare identifier: ASCII letters, digits and underscores, not starting with a
// digit, and not a keyword.
func quoteIdentifier(name string) string {
	if isBareIdentifier(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isBareIdentifier(name string) bool {
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return false
	}
	invalid := strings.IndexFunc(name, func(r rune) bool {
		return r != '_' && (r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)))
	})
	if invalid >= 0 {
		return false
	}
	_, reserved := sqlKeywords[strings.ToLower(name)]
	return !reserved
}
