// Package names finds proper names that a translation must leave alone:
// runs of title-case words such as "Jean Tremblay" or "Great Slave Lake",
// and honorifics followed by a name ("Dr. Smith", "Mme Gagnon").
package names

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/segment"
)

var defaultHonorifics = []string{
	"Dr", "Mr", "Mrs", "Ms", "Prof", "Sir", "Dame",
	"M", "Mme", "Mlle", "Me", "Pr",
}

// Function words that are capitalised at sentence start but never begin a
// name.
var defaultStopWords = []string{
	"The", "A", "An", "This", "That", "These", "Those", "In", "On", "At", "Of",
	"For", "And", "But", "Or", "To", "From", "With", "By", "As", "If", "When",
	"Le", "La", "Les", "L", "Un", "Une", "Des", "Du", "De", "D", "Ce", "Cet",
	"Cette", "Ces", "Dans", "Sur", "Pour", "Par", "Avec", "Et", "Ou", "Mais",
	"Au", "Aux", "En", "Si", "Lorsque", "Quand",
}

// Finder detects proper-name spans. It is safe for concurrent use.
type Finder struct {
	honorifics map[string]bool
	stopWords  map[string]bool
}

// New returns a Finder with the built-in English and French word lists.
func New() *Finder {
	return &Finder{
		honorifics: toSet(defaultHonorifics),
		stopWords:  toSet(defaultStopWords),
	}
}

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

type word struct {
	text       string
	start, end int
	honorific  bool
}

// FindNames returns byte spans [start, end) of the names in text, in order.
func (f *Finder) FindNames(text string) [][2]int {
	var (
		spans   [][2]int
		current []word
		pos     int
	)

	flush := func() {
		if span, ok := f.evaluate(current); ok {
			spans = append(spans, span)
		}
		current = current[:0]
	}

	seg := segment.NewWordSegmenterDirect([]byte(text))
	for seg.Segment() {
		tok := string(seg.Bytes())
		start, end := pos, pos+len(tok)
		pos = end

		if seg.Type() != segment.None {
			if !isTitle(tok) {
				flush()
				continue
			}
			if n := len(current); n > 0 && endsWithConnector(current[n-1].text) {
				current[n-1].text += tok
				current[n-1].end = end
				continue
			}
			current = append(current, word{text: tok, start: start, end: end, honorific: f.honorifics[tok]})
			continue
		}

		n := len(current)
		switch {
		case n == 0:
		case strings.TrimSpace(tok) == "":
		case tok == "." && current[n-1].honorific:
			current[n-1].end = end
		case tok == "-" || tok == "'" || tok == "’":
			current[n-1].end = end
			current[n-1].text += tok
		default:
			flush()
		}
	}
	flush()
	return spans
}

// evaluate trims leading function words and accepts the remainder when it
// holds two or more words.
func (f *Finder) evaluate(words []word) ([2]int, bool) {
	for len(words) > 0 && f.stopWords[words[0].text] {
		words = words[1:]
	}
	// a dangling connector belongs to the word that follows it
	for len(words) > 0 && endsWithConnector(words[len(words)-1].text) {
		words = words[:len(words)-1]
	}
	if len(words) < 2 {
		return [2]int{}, false
	}
	return [2]int{words[0].start, words[len(words)-1].end}, true
}

func endsWithConnector(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r == '-' || r == '\'' || r == '’'
}

// isTitle reports whether w starts with an upper-case letter and is not an
// all-caps acronym.
func isTitle(w string) bool {
	first, size := utf8.DecodeRuneInString(w)
	if !unicode.IsUpper(first) {
		return false
	}
	rest := w[size:]
	if rest == "" {
		return true
	}
	for _, r := range rest {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}
