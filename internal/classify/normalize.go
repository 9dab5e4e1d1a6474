package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/Veraticus/spicecat/internal/taxonomy"
)

// Normalize canonicalizes a raw bank description using the default noise
// characters.
func Normalize(raw string) string {
	return NormalizeWith(raw, taxonomy.DefaultNoiseChars)
}

// NormalizeWith folds raw to NFKC lowercase, replaces every rune in noise
// with a space and collapses whitespace. It never fails; empty input yields
// empty output.
func NormalizeWith(raw, noise string) string {
	if raw == "" {
		return ""
	}

	// Casers keep state and must not be shared between goroutines.
	s := cases.Lower(language.Und).String(norm.NFKC.String(raw))

	if noise != "" {
		s = strings.Map(func(r rune) rune {
			if strings.ContainsRune(noise, r) {
				return ' '
			}
			return r
		}, s)
	}

	return strings.Join(strings.Fields(s), " ")
}
