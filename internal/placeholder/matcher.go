package placeholder

import (
	"regexp"
)

// Location is the byte range of a located token in a translated string.
type Location struct {
	Start, End int
	Form       Form
}

// Form tells how a token was found.
type Form int

const (
	FormExact Form = iota
	FormSpaced
	FormPlural
)

func (f Form) String() string {
	switch f {
	case FormExact:
		return "exact"
	case FormSpaced:
		return "spaced"
	case FormPlural:
		return "plural"
	default:
		return "unknown"
	}
}

// Matcher locates tokens in backend output, including the corrupted forms
// "PREFIX 0001" and "PREFIX0001s"/"PREFIX0001es".
type Matcher struct {
	candidate *regexp.Regexp
	token     *regexp.Regexp
}

// NewMatcher compiles the token patterns.
func NewMatcher() *Matcher {
	return &Matcher{
		candidate: regexp.MustCompile(`\b([A-Z]+)(\s*)([0-9]+)((?:e?s)?)\b`),
		token:     regexp.MustCompile(`^([A-Z]+)([0-9]+)$`),
	}
}

// IsToken reports whether s has the placeholder wire format.
func (m *Matcher) IsToken(s string) bool {
	return m.token.MatchString(s)
}

// Find locates token in text, preferring an exact occurrence, then a spaced
// one, then a pluralised one.
func (m *Matcher) Find(text, token string) (Location, bool) {
	parts := m.token.FindStringSubmatch(token)
	if parts == nil {
		return Location{}, false
	}
	prefix, digits := parts[1], parts[2]

	var spaced, plural *Location
	for _, idx := range m.candidate.FindAllStringSubmatchIndex(text, -1) {
		if text[idx[2]:idx[3]] != prefix || text[idx[6]:idx[7]] != digits {
			continue
		}
		hasSpace := idx[5] > idx[4]
		hasSuffix := idx[9] > idx[8]
		loc := Location{Start: idx[0], End: idx[1]}
		switch {
		case !hasSpace && !hasSuffix:
			loc.Form = FormExact
			return loc, true
		case hasSpace && spaced == nil:
			loc.Form = FormSpaced
			spaced = &loc
		case !hasSpace && hasSuffix && plural == nil:
			loc.Form = FormPlural
			plural = &loc
		}
	}
	if spaced != nil {
		return *spaced, true
	}
	if plural != nil {
		return *plural, true
	}
	return Location{}, false
}

// FindExact locates an uncorrupted occurrence of token.
func (m *Matcher) FindExact(text, token string) (Location, bool) {
	loc, ok := m.Find(text, token)
	if !ok || loc.Form != FormExact {
		return Location{}, false
	}
	return loc, true
}

// Missing returns the tokens of mapping that cannot be located in text by
// any form.
func (m *Matcher) Missing(text string, mapping TokenMapping) []string {
	var missing []string
	for _, mp := range mapping {
		if _, ok := m.Find(text, mp.Token); !ok {
			missing = append(missing, mp.Token)
		}
	}
	return missing
}
