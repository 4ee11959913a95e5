package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var arabicLetters = strings.NewReplacer(
	"أ", "ا",
	"إ", "ا",
	"آ", "ا",
	"ٱ", "ا",
	"ى", "ي",
	"ة", "ه",
	"ـ", "",
)

var folder = cases.Fold()

// Fold normalizes text for matching: case folded, accents and Arabic
// diacritics removed, alef and ya variants unified.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = arabicLetters.Replace(out)
	return strings.Join(strings.Fields(folder.String(out)), " ")
}
