package inventory

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var foldCaser = cases.Fold()

// NormalizeName canonicalises a product name for fuzzy matching between
// order line items and the catalog. Rules:
//   - Unicode NFKC normalisation (full-width forms, ligatures)
//   - case folding
//   - every dash variant becomes a plain ASCII hyphen
//   - whitespace runs collapse to a single space, spaces around hyphens drop
//   - leading/trailing whitespace is trimmed
func NormalizeName(name string) string {
	s := norm.NFKC.String(name)
	s = foldCaser.String(s)

	s = strings.Map(func(r rune) rune {
		switch r {
		case '‐', '‑', '‒', '–', '—', '―', '−':
			return '-'
		case '\t', '\n', '\r', ' ', '　':
			return ' '
		}
		return r
	}, s)

	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, " - ", "-")
	s = strings.ReplaceAll(s, "- ", "-")
	s = strings.ReplaceAll(s, " -", "-")
	return s
}
