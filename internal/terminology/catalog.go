// Package terminology loads the protected-terminology catalog and exposes
// the per-direction search lists used by the placeholder codec.
package terminology

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultNativeLanguage is the language of the catalog keys.
const DefaultNativeLanguage = "fr"

// Category is the closed set of terminology classes. Its upper-cased form is
// the placeholder token prefix.
type Category string

const (
	Nomenclature Category = "nomenclature"
	Taxon        Category = "taxon"
	Acronym      Category = "acronym"
	Site         Category = "site"
	Name         Category = "name"
)

// Categories lists every category in token-prefix order.
var Categories = []Category{Nomenclature, Taxon, Acronym, Site, Name}

// ParseCategory maps a catalog category key to its Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown terminology category %q", s)
}

// Prefix returns the placeholder prefix for the category, e.g. "TAXON".
func (c Category) Prefix() string {
	return strings.ToUpper(string(c))
}

// Prefixes returns every category prefix.
func Prefixes() []string {
	out := make([]string, len(Categories))
	for i, c := range Categories {
		out[i] = c.Prefix()
	}
	return out
}

// Entry is one catalog term. SourceTerm is written in the catalog's native
// language and TargetTerm in the other one.
type Entry struct {
	Category   Category
	SourceTerm string
	TargetTerm string
	Gender     string
	Articles   []string
}

// Term is one searchable string for a translation direction.
type Term struct {
	Text        string
	Category    Category
	Translation string
}

// Catalog is read-only after Load and safe to share between goroutines.
type Catalog struct {
	NativeLanguage string
	entries        []Entry
	forward        []Term
	reverse        []Term
}

type termObject struct {
	En       string   `json:"en"`
	Target   string   `json:"target"`
	Gender   string   `json:"gender"`
	Articles []string `json:"articles"`
}

// Load reads a JSON catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes either {category: {term: target}} or the same map wrapped in
// a "translations" object. Targets may be strings or objects carrying
// gender/article metadata.
func Parse(data []byte) (*Catalog, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if wrapped, ok := top["translations"]; ok {
		top = nil
		if err := json.Unmarshal(wrapped, &top); err != nil {
			return nil, fmt.Errorf("failed to parse catalog translations: %w", err)
		}
	}

	var entries []Entry
	for key, raw := range top {
		category, err := ParseCategory(key)
		if err != nil {
			return nil, err
		}
		var terms map[string]json.RawMessage
		if err := json.Unmarshal(raw, &terms); err != nil {
			return nil, fmt.Errorf("category %s: %w", key, err)
		}
		for source, value := range terms {
			e, err := decodeEntry(category, source, value)
			if err != nil {
				return nil, fmt.Errorf("category %s, term %q: %w", key, source, err)
			}
			entries = append(entries, e)
		}
	}
	return New(entries), nil
}

func decodeEntry(category Category, source string, value json.RawMessage) (Entry, error) {
	e := Entry{Category: category, SourceTerm: norm.NFC.String(strings.TrimSpace(source))}

	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		e.TargetTerm = norm.NFC.String(strings.TrimSpace(s))
		return e, nil
	}

	var obj termObject
	if err := json.Unmarshal(value, &obj); err != nil {
		return e, err
	}
	target := obj.En
	if target == "" {
		target = obj.Target
	}
	e.TargetTerm = norm.NFC.String(strings.TrimSpace(target))
	e.Gender = obj.Gender
	e.Articles = obj.Articles
	return e, nil
}

// New builds a catalog from entries whose SourceTerm is in
// DefaultNativeLanguage.
func New(entries []Entry) *Catalog {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].SourceTerm < entries[j].SourceTerm
	})

	c := &Catalog{NativeLanguage: DefaultNativeLanguage, entries: entries}
	seenForward := make(map[string]bool)
	seenReverse := make(map[string]bool)
	for _, e := range entries {
		if e.SourceTerm != "" && !seenForward[strings.ToLower(e.SourceTerm)] {
			seenForward[strings.ToLower(e.SourceTerm)] = true
			c.forward = append(c.forward, Term{Text: e.SourceTerm, Category: e.Category, Translation: e.TargetTerm})
		}
		if e.TargetTerm != "" && !seenReverse[strings.ToLower(e.TargetTerm)] {
			seenReverse[strings.ToLower(e.TargetTerm)] = true
			c.reverse = append(c.reverse, Term{Text: e.TargetTerm, Category: e.Category, Translation: e.SourceTerm})
		}
	}
	sortLongestFirst(c.forward)
	sortLongestFirst(c.reverse)
	return c
}

// WithNativeLanguage overrides the language of the catalog keys.
func (c *Catalog) WithNativeLanguage(lang string) *Catalog {
	if lang != "" {
		c.NativeLanguage = strings.ToLower(lang)
	}
	return c
}

// Terms returns the search list for text written in sourceLang: the catalog
// keys when sourceLang is the native language, the translated values
// otherwise. Longer terms come first so multi-word terms are matched before
// the shorter terms they contain.
func (c *Catalog) Terms(sourceLang string) []Term {
	if c == nil {
		return nil
	}
	if strings.EqualFold(sourceLang, c.NativeLanguage) {
		return c.forward
	}
	return c.reverse
}

// Entries returns every catalog entry.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	return c.entries
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

func sortLongestFirst(terms []Term) {
	sort.SliceStable(terms, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(terms[i].Text), utf8.RuneCountInString(terms[j].Text)
		if li != lj {
			return li > lj
		}
		return terms[i].Text < terms[j].Text
	})
}
