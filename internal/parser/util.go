package parser

import (
	"strings"
	"unicode"

	"github.com/cloudflare/ahocorasick"
)

// markerPunctuation is replaced by spaces before marker tokens are matched, so
// "ABC SDN. BHD." and "ABC (SDN BHD)" still match "SDN BHD".
const markerPunctuation = ",.()"

// phraseMatcher reports whether a line contains any of a fixed set of phrases.
// Phrases and lines are compared in upper case. Surrounding spaces in a
// phrase are significant.
type phraseMatcher struct {
	m        *ahocorasick.Matcher
	original []string
}

func newPhraseMatcher(phrases []string) *phraseMatcher {
	pm := &phraseMatcher{}
	patterns := make([][]byte, 0, len(phrases))
	for _, p := range phrases {
		up := strings.ToUpper(p)
		if strings.TrimSpace(up) == "" {
			continue
		}
		pm.original = append(pm.original, p)
		patterns = append(patterns, []byte(up))
	}
	if len(patterns) > 0 {
		pm.m = ahocorasick.NewMatcher(patterns)
	}
	return pm
}

// match reports whether any phrase occurs in the upper-cased line. When
// several occur, the one configured earliest wins, whatever its position in
// the line.
func (pm *phraseMatcher) match(upper string) (string, bool) {
	if pm.m == nil {
		return "", false
	}
	hits := pm.m.Match([]byte(upper))
	if len(hits) == 0 {
		return "", false
	}
	first := hits[0]
	for _, h := range hits[1:] {
		if h < first {
			first = h
		}
	}
	return strings.TrimSpace(pm.original[first]), true
}

// markerPatterns normalizes marker tokens the way markerForm normalizes lines
// and pads ASCII tokens with spaces so they only match whole tokens. Markers from scripts written without spaces match as substrings.
func markerPatterns(markers []string) []string {
	out := make([]string, 0, len(markers))
	for _, m := range markers {
		m = strings.Join(strings.Fields(blankMarkerPunctuation(strings.ToUpper(m))), " ")
		if m == "" {
			continue
		}
		if isASCII(m) {
			m = " " + m + " "
		}
		out = append(out, m)
	}
	return out
}

// markerForm upper-cases line, blanks out marker punctuation, collapses
// whitespace and pads the result so every token is space delimited.
func markerForm(line string) string {
	up := blankMarkerPunctuation(strings.ToUpper(line))
	return " " + strings.Join(strings.Fields(up), " ") + " "
}

// blankMarkerPunctuation is applied to lines and marker tokens alike, so a
// token written as "PTE. LTD." matches the same lines as "PTE LTD".
func blankMarkerPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(markerPunctuation, r) {
			return ' '
		}
		return r
	}, s)
}

// nameAfterSeparator returns the trimmed text after the last separator in
// line, or the whole line when no separator occurs.
func nameAfterSeparator(line string, separators []string) string {
	cut := -1
	width := 0
	for _, sep := range separators {
		if i := strings.LastIndex(line, sep); i >= 0 && i+len(sep) > cut+width {
			cut, width = i, len(sep)
		}
	}
	if cut < 0 {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(line[cut+width:])
}

// isProperName reports whether line is made only of letters, spaces and the
// allowed punctuation, with at least one letter.
func isProperName(line, punctuation string) bool {
	letters := 0
	for _, r := range line {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsSpace(r), strings.ContainsRune(punctuation, r):
		default:
			return false
		}
	}
	return letters > 0
}

// hasDigit reports whether line contains a decimal digit in any script.
func hasDigit(line string) bool {
	return strings.IndexFunc(line, unicode.IsDigit) >= 0
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
