// Package match implements the fuzzy name matching used for venue
// enrichment and deduplication. Both functions are pure and deterministic
// so matching behavior can be tested without network access.
package match

import (
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Normalize lowercases a venue name, strips punctuation, and collapses
// whitespace so that "Luigi's Pizza" and "luigis pizza" compare equal.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NameSimilarity scores two venue names on a 0-100 scale using a token-set
// ratio over normalized inputs. Token-set comparison tolerates reordered
// words and extra tokens such as a trailing neighborhood name.
func NameSimilarity(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}
	return fuzzy.TokenSetRatio(na, nb)
}
