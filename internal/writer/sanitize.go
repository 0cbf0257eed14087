package writer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sanitize returns s with invalid UTF-8, control characters and other
// non-printable runes removed, so the text is always accepted by the report
// writers. Whitespace of any kind becomes a plain space and the result is
// NFC normalized.
func Sanitize(s string) string {
	t := transform.Chain(
		runes.ReplaceIllFormed(),
		runes.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return ' '
			}
			return r
		}),
		runes.Remove(runes.Predicate(disallowed)),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.TrimSpace(strings.Map(func(r rune) rune {
			if disallowed(r) {
				return -1
			}
			return r
		}, strings.ToValidUTF8(s, "")))
	}
	return strings.TrimSpace(out)
}

// disallowed reports runes that cannot be written to the report. Letters,
// marks, numbers, punctuation and symbols of every script are kept.
func disallowed(r rune) bool {
	if r == ' ' {
		return false
	}
	return r == utf8.RuneError || !unicode.IsPrint(r)
}
