// Package chunker bounds the size of a single backend call. Paragraphs are
// split into sentences, sentences are packed greedily into chunks of at most
// a fixed number of characters, and translated chunks are rejoined with
// single spaces.
package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultBudget is the per-call character budget.
const DefaultBudget = 600

// labelDot stands in for periods inside figure and table labels while
// sentences are split.
const labelDot = "․"

// Splitter is safe for concurrent use.
type Splitter struct {
	budget    int
	label     *regexp.Regexp
	boundary  *regexp.Regexp
	paragraph *regexp.Regexp
}

// New returns a Splitter with the given budget in characters; budget <= 0
// selects DefaultBudget.
func New(budget int) *Splitter {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Splitter{
		budget:    budget,
		label:     regexp.MustCompile(`\b(?:Figure|Fig|Table|Tableau)\.?\s*\d+(?:\.\d+)*\.?`),
		boundary:  regexp.MustCompile(`[.!?]\s+`),
		paragraph: regexp.MustCompile(`\n[ \t\r]*\n`),
	}
}

// Budget returns the character budget.
func (s *Splitter) Budget() int {
	return s.budget
}

// Paragraphs splits text on blank lines and drops empty paragraphs.
func (s *Splitter) Paragraphs(text string) []string {
	var out []string
	for _, p := range s.paragraph.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Sentences splits text after each '.', '!' or '?' that is followed by
// whitespace, except inside labels such as "Fig. 3." or "Tableau 2.1".
func (s *Splitter) Sentences(text string) []string {
	protected := s.label.ReplaceAllStringFunc(text, func(m string) string {
		return strings.ReplaceAll(m, ".", labelDot)
	})

	var out []string
	start := 0
	for _, loc := range s.boundary.FindAllStringIndex(protected, -1) {
		if sentence := restoreLabels(protected[start : loc[0]+1]); sentence != "" {
			out = append(out, sentence)
		}
		start = loc[1]
	}
	if sentence := restoreLabels(protected[start:]); sentence != "" {
		out = append(out, sentence)
	}
	return out
}

func restoreLabels(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, labelDot, "."))
}

// Split packs the sentences of text into chunks of at most Budget
// characters. A sentence is only broken when it alone exceeds the budget.
func (s *Splitter) Split(text string) []string {
	var chunks []string
	current := ""
	currentLen := 0

	flush := func() {
		if current != "" {
			chunks = append(chunks, current)
		}
		current, currentLen = "", 0
	}

	for _, sentence := range s.Sentences(text) {
		n := utf8.RuneCountInString(sentence)
		switch {
		case n > s.budget:
			flush()
			chunks = append(chunks, hardSplit(sentence, s.budget)...)
		case current == "":
			current, currentLen = sentence, n
		case currentLen+1+n <= s.budget:
			current += " " + sentence
			currentLen += 1 + n
		default:
			flush()
			current, currentLen = sentence, n
		}
	}
	flush()
	return chunks
}

// Join reassembles translated chunks with single spaces.
func Join(chunks []string) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

// hardSplit cuts an oversized sentence into pieces of at most maxChars
// runes, at the last whitespace before the limit when there is one.
func hardSplit(text string, maxChars int) []string {
	var pieces []string
	remaining := text
	for utf8.RuneCountInString(remaining) > maxChars {
		split := findSplit(remaining, maxChars)
		if piece := strings.TrimSpace(remaining[:split]); piece != "" {
			pieces = append(pieces, piece)
		}
		remaining = strings.TrimSpace(remaining[split:])
	}
	if remaining != "" {
		pieces = append(pieces, remaining)
	}
	return pieces
}

// findSplit returns the byte index at which to cut text so the head holds
// at most maxChars runes.
func findSplit(text string, maxChars int) int {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return len(text)
	}
	candidate := runes[:maxChars]
	for i := len(candidate) - 1; i > 0; i-- {
		if unicode.IsSpace(candidate[i]) {
			return len(string(candidate[:i]))
		}
	}
	return len(string(candidate))
}
