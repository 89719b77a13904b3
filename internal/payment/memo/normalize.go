// Package memo recovers record identifiers from free-text bank transfer memos.
package memo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize folds a memo into the canonical form shared by the QR generator
// and the parser: diacritics stripped, đ/Đ mapped to D, upper-cased, and
// whitespace collapsed. Both sides must use this exact transform so generated
// memos survive the bank channel's own re-rendering.
func Normalize(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	folded = strings.ReplaceAll(folded, "đ", "d")
	folded = strings.ReplaceAll(folded, "Đ", "D")
	folded = strings.ToUpper(folded)
	return strings.Join(strings.Fields(folded), " ")
}
