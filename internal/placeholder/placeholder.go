// Package placeholder protects catalog terminology during machine translation
// by replacing each matched term with an opaque token ("TAXON0003") before the
// backend call, then restoring the correct target term afterwards. Restore
// tolerates the two corruptions backends commonly produce: a space inserted
// between prefix and number, and a plural suffix.
package placeholder

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/valpere/termshield/internal/terminology"
)

// ErrUnrecoverableToken reports a token that the backend dropped, renumbered
// or duplicated beyond what restoration tolerates.
var ErrUnrecoverableToken = errors.New("placeholder: unrecoverable token")

// Mapping records what one token stands for.
type Mapping struct {
	Token           string               `json:"token"`
	OriginalText    string               `json:"original_text"`
	Category        terminology.Category `json:"category"`
	Translation     string               `json:"translation,omitempty"`
	ShouldTranslate bool                 `json:"should_translate"`
}

// TokenMapping holds the mappings of one preprocessing pass in document order.
type TokenMapping []Mapping

// Tokens returns the token strings in document order.
func (m TokenMapping) Tokens() []string {
	out := make([]string, len(m))
	for i, mp := range m {
		out[i] = mp.Token
	}
	return out
}

// NameFinder detects proper names that must pass through untranslated.
// Spans are byte offsets [start, end) into text.
type NameFinder interface {
	FindNames(text string) [][2]int
}

type termMatcher struct {
	term      terminology.Term
	re        *regexp.Regexp
	multiWord bool
}

// Codec encodes and decodes terminology placeholders. All patterns are
// compiled by New; a Codec is safe for concurrent use.
type Codec struct {
	catalog *terminology.Catalog
	names   NameFinder
	matcher *Matcher
	native  []termMatcher
	foreign []termMatcher
}

// Option configures a Codec.
type Option func(*Codec)

// WithNameFinder enables the proper-name pass.
func WithNameFinder(f NameFinder) Option {
	return func(c *Codec) { c.names = f }
}

// New compiles the catalog search patterns for both directions.
func New(catalog *terminology.Catalog, opts ...Option) *Codec {
	c := &Codec{catalog: catalog, matcher: NewMatcher()}
	for _, opt := range opts {
		opt(c)
	}
	if catalog != nil {
		c.native = compileTerms(catalog.Terms(catalog.NativeLanguage))
		c.foreign = compileTerms(catalog.Terms(""))
	}
	return c
}

func compileTerms(terms []terminology.Term) []termMatcher {
	out := make([]termMatcher, 0, len(terms))
	for _, t := range terms {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		out = append(out, termMatcher{
			term:      t,
			re:        regexp.MustCompile(`(?i)` + regexp.QuoteMeta(t.Text)),
			multiWord: strings.ContainsAny(t.Text, " \t"),
		})
	}
	return out
}

// Matcher returns the fuzzy token matcher used by Postprocess.
func (c *Codec) Matcher() *Matcher {
	return c.matcher
}

type span struct {
	start, end  int
	category    terminology.Category
	original    string
	translation string
	translate   bool
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// Preprocess replaces every protected term in text with a fresh token.
// Matches are accepted longest-first, ties going to the earliest one; a
// match overlapping an already accepted span is dropped. Preprocess never fails: with no matches text is returned
// unchanged with an empty mapping.
func (c *Codec) Preprocess(text, sourceLang string) (string, TokenMapping) {
	matchers := c.foreign
	if c.catalog != nil && strings.EqualFold(sourceLang, c.catalog.NativeLanguage) {
		matchers = c.native
	}

	var candidates []span
	for _, tm := range matchers {
		for _, loc := range tm.re.FindAllStringIndex(text, -1) {
			if !tm.multiWord && !atWordBoundary(text, loc[0], loc[1]) {
				continue
			}
			candidates = append(candidates, span{
				start:       loc[0],
				end:         loc[1],
				category:    tm.term.Category,
				original:    text[loc[0]:loc[1]],
				translation: tm.term.Translation,
				translate:   true,
			})
		}
	}
	// Longest first; equal lengths go to the earliest match.
	sort.SliceStable(candidates, func(i, j int) bool {
		li, lj := candidates[i].end-candidates[i].start, candidates[j].end-candidates[j].start
		if li != lj {
			return li > lj
		}
		return candidates[i].start < candidates[j].start
	})

	var accepted []span
	for _, candidate := range candidates {
		if overlapsAny(candidate, accepted) {
			continue
		}
		accepted = append(accepted, candidate)
	}

	if c.names != nil {
		for _, loc := range c.names.FindNames(text) {
			candidate := span{
				start:    loc[0],
				end:      loc[1],
				category: terminology.Name,
				original: text[loc[0]:loc[1]],
			}
			if overlapsAny(candidate, accepted) {
				continue
			}
			accepted = append(accepted, candidate)
		}
	}

	if len(accepted) == 0 {
		return text, nil
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].start < accepted[j].start })

	counters := make(map[terminology.Category]int)
	mapping := make(TokenMapping, len(accepted))
	for i, s := range accepted {
		mapping[i] = Mapping{
			Token:           c.mint(text, s.category, counters),
			OriginalText:    s.original,
			Category:        s.category,
			Translation:     s.translation,
			ShouldTranslate: s.translate,
		}
	}

	// Right to left so earlier offsets stay valid.
	out := text
	for i := len(accepted) - 1; i >= 0; i-- {
		s := accepted[i]
		out = out[:s.start] + mapping[i].Token + out[s.end:]
	}
	return out, mapping
}

// mint returns the next token for category that does not already occur in text.
func (c *Codec) mint(text string, category terminology.Category, counters map[terminology.Category]int) string {
	for {
		counters[category]++
		token := fmt.Sprintf("%s%04d", category.Prefix(), counters[category])
		if !strings.Contains(text, token) {
			return token
		}
	}
}

// Postprocess restores every token in translated. Each token is located
// exactly first, then in its corrupted forms. It returns ok=false when any
// token cannot be found or a token survives the restore; the caller must
// not trust the output in that case.
func (c *Codec) Postprocess(translated string, mapping TokenMapping) (string, bool) {
	result, err := c.Restore(translated, mapping)
	return result, err == nil
}

// Restore is Postprocess with the failing token named in the error.
func (c *Codec) Restore(translated string, mapping TokenMapping) (string, error) {
	if len(mapping) == 0 {
		return translated, nil
	}

	result := translated
	for _, mp := range mapping {
		loc, ok := c.matcher.Find(result, mp.Token)
		if !ok {
			return "", fmt.Errorf("%w: %s missing", ErrUnrecoverableToken, mp.Token)
		}

		replacement := mp.OriginalText
		if mp.ShouldTranslate && mp.Translation != "" && mp.Translation != "None" {
			replacement = PreserveCapitalization(mp.OriginalText, mp.Translation, isSentenceStart(result, loc.Start))
		}
		result = result[:loc.Start] + replacement + result[loc.End:]
	}

	for _, mp := range mapping {
		if _, ok := c.matcher.FindExact(result, mp.Token); ok {
			return "", fmt.Errorf("%w: %s left after restore", ErrUnrecoverableToken, mp.Token)
		}
	}
	return result, nil
}

func isSentenceStart(text string, pos int) bool {
	preceding := strings.TrimRightFunc(text[:pos], unicode.IsSpace)
	if preceding == "" {
		return true
	}
	switch preceding[len(preceding)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// PreserveCapitalization shapes replacement after original: all-caps source
// gives an all-caps replacement, sentence-initial position capitalises the
// first letter, an all-lowercase source lowercases the replacement.
func PreserveCapitalization(original, replacement string, sentenceStart bool) string {
	if original == "" || replacement == "" {
		return replacement
	}
	if isUpper(original) {
		return strings.ToUpper(replacement)
	}
	if sentenceStart {
		r, size := utf8.DecodeRuneInString(replacement)
		return string(unicode.ToUpper(r)) + replacement[size:]
	}
	if isLower(original) {
		return strings.ToLower(replacement)
	}
	return replacement
}

func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func isLower(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsUpper(r) {
			return false
		}
		if unicode.IsLower(r) {
			cased = true
		}
	}
	return cased
}

func overlapsAny(s span, accepted []span) bool {
	for _, a := range accepted {
		if s.overlaps(a) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// atWordBoundary reports whether text[start:end] is not glued to a word
// character on either side.
func atWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}
