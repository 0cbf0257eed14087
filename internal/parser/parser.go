// Package parser segments extracted statement text into entity groups. Each
// line is classified by a fixed sequence of rules: name rules first, then the
// exclusion filter, then the digit test for transaction lines.
package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/config"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/metrics"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
)

// Rule names reported in classifications and traces.
const (
	RuleKeyword    = "keyword"
	RuleProperName = "proper-name"
	RuleMarker     = "entity-marker"
	RuleExclusion  = "exclusion"
	RuleDigit      = "digit"
)

// Classification is the outcome for a single line. Name is set only for
// name lines; Match holds the keyword, marker or exclusion phrase that fired.
type Classification struct {
	Class models.LineClass
	Rule  string
	Name  string
	Match string
}

// nameRule recognizes a name line and returns the entity name it carries.
type nameRule struct {
	id    string
	match func(line string) (name, matched string, ok bool)
}

// Classifier groups statement lines under entity names. It holds no state
// between calls and is safe for concurrent use.
type Classifier struct {
	rules     []nameRule
	exclusion *phraseMatcher
}

// New builds a Classifier from a lexicon.
func New(lex config.Lexicon) (*Classifier, error) {
	for _, r := range lex.NamePunctuation {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return nil, fmt.Errorf("name punctuation %q must not contain letters, digits or spaces", lex.NamePunctuation)
		}
	}
	keywords := trimAll(lex.IndicatorKeywords)
	separators := nonEmpty(lex.Separators)
	if len(keywords) > 0 && len(separators) == 0 {
		return nil, fmt.Errorf("indicator keywords need at least one separator")
	}

	c := &Classifier{exclusion: newPhraseMatcher(trimAll(lex.ExclusionPhrases))}

	if len(keywords) > 0 {
		kw := newPhraseMatcher(keywords)
		c.rules = append(c.rules, nameRule{id: RuleKeyword, match: func(line string) (string, string, bool) {
			hit, ok := kw.match(strings.ToUpper(line))
			if !ok {
				return "", "", false
			}
			name := nameAfterSeparator(line, separators)
			return name, hit, name != ""
		}})
	}

	punctuation := lex.NamePunctuation
	c.rules = append(c.rules, nameRule{id: RuleProperName, match: func(line string) (string, string, bool) {
		return line, "", isProperName(line, punctuation)
	}})

	if markers := markerPatterns(lex.EntityMarkers); len(markers) > 0 {
		mk := newPhraseMatcher(markers)
		c.rules = append(c.rules, nameRule{id: RuleMarker, match: func(line string) (string, string, bool) {
			hit, ok := mk.match(markerForm(line))
			return line, hit, ok
		}})
	}
	return c, nil
}

// Classify applies the rules to one trimmed, non-empty line.
func (c *Classifier) Classify(line string) Classification {
	for _, r := range c.rules {
		if name, hit, ok := r.match(line); ok {
			return Classification{Class: models.LineName, Rule: r.id, Name: name, Match: hit}
		}
	}
	if hit, ok := c.exclusion.match(strings.ToUpper(line)); ok {
		return Classification{Class: models.LineExcluded, Rule: RuleExclusion, Match: hit}
	}
	if hasDigit(line) {
		return Classification{Class: models.LineData, Rule: RuleDigit}
	}
	return Classification{Class: models.LineDiscarded}
}

// Group classifies text into a new Grouping.
func (c *Classifier) Group(text string) *models.Grouping {
	g := models.NewGrouping()
	c.GroupInto(g, text)
	return g
}

// GroupInto classifies text and appends the result to g, so several documents
// can share one Grouping. Each call starts without a current entity.
func (c *Classifier) GroupInto(g *models.Grouping, text string) {
	c.walk(text, func(_ int, line string, cls Classification, cur cursor) {
		class := cls.Class
		switch class {
		case models.LineName:
			g.Ensure(cls.Name)
		case models.LineData:
			if name, ok := cur.current(); ok {
				g.Append(name, line)
			} else {
				class = models.LineOrphan
			}
		}
		metrics.Lines.WithLabelValues(string(class)).Inc()
	})
}

// Trace reports the classification of every non-empty line of text.
func (c *Classifier) Trace(text string) []models.LineTrace {
	var out []models.LineTrace
	c.walk(text, func(num int, line string, cls Classification, cur cursor) {
		t := models.LineTrace{LineNum: num, Text: line, Class: cls.Class, Rule: cls.Rule}
		name, ok := cur.current()
		switch {
		case cls.Class == models.LineData && !ok:
			t.Class = models.LineOrphan
		case cls.Class == models.LineData, cls.Class == models.LineName:
			t.Entity = name
		}
		out = append(out, t)
	})
	return out
}

// walk runs the single forward pass. fn sees the cursor after the line has
// been applied.
func (c *Classifier) walk(text string, fn func(num int, line string, cls Classification, cur cursor)) {
	var cur cursor
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		cls := c.Classify(line)
		if cls.Class == models.LineName {
			cur = cur.enter(cls.Name)
		}
		fn(i+1, line, cls, cur)
	}
}

type cursorState int

const (
	noEntity cursorState = iota
	hasEntity
)

// cursor tracks the entity that data lines are attributed to.
type cursor struct {
	state cursorState
	name  string
}

func (c cursor) enter(name string) cursor {
	return cursor{state: hasEntity, name: name}
}

func (c cursor) current() (string, bool) {
	return c.name, c.state == hasEntity
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
