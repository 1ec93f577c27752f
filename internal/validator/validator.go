// Package validator decides whether a backend output can be trusted: no
// leaked placeholder prefixes, every token still recoverable, and optionally
// written in the expected target language.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valpere/termshield/internal/detector"
	"github.com/valpere/termshield/internal/placeholder"
	"github.com/valpere/termshield/internal/terminology"
)

// minValidationLength is the minimum rune count required to attempt language detection.
const minValidationLength = 20

var (
	ErrEmpty             = errors.New("translation is empty")
	ErrLeakedPlaceholder = errors.New("leaked placeholder prefix")
	ErrMissingToken      = errors.New("placeholder token not recoverable")
	ErrWrongLanguage     = errors.New("translation in unexpected language")
)

// Result is the outcome of one check.
type Result struct {
	Leaked           []string
	Missing          []string
	DetectedLanguage string
	Err              error
}

// Valid reports whether the output passed every check.
func (r Result) Valid() bool {
	return r.Err == nil
}

// Validator is safe for concurrent use once built.
type Validator struct {
	matcher  *placeholder.Matcher
	prefixes []string
	det      *detector.Detector
}

// Option configures a Validator.
type Option func(*Validator)

// WithLanguageCheck enables target-language detection.
func WithLanguageCheck(d *detector.Detector) Option {
	return func(v *Validator) { v.det = d }
}

func New(opts ...Option) *Validator {
	v := &Validator{
		matcher:  placeholder.NewMatcher(),
		prefixes: terminology.Prefixes(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// LeakedPrefixes returns the category prefixes present in output but absent
// from source.
func (v *Validator) LeakedPrefixes(source, output string) []string {
	var leaked []string
	for _, p := range v.prefixes {
		if strings.Contains(output, p) && !strings.Contains(source, p) {
			leaked = append(leaked, p)
		}
	}
	return leaked
}

// MissingTokens returns the tokens of mapping the fuzzy matcher cannot find.
func (v *Validator) MissingTokens(output string, mapping placeholder.TokenMapping) []string {
	return v.matcher.Missing(output, mapping)
}

// Check validates output against the text that was sent to the backend.
// mapping may be nil for unprotected calls.
func (v *Validator) Check(source, output string, mapping placeholder.TokenMapping, targetLang string) Result {
	var r Result
	if strings.TrimSpace(output) == "" {
		r.Err = ErrEmpty
		return r
	}

	if r.Leaked = v.LeakedPrefixes(source, output); len(r.Leaked) > 0 {
		r.Err = fmt.Errorf("%w: %s", ErrLeakedPlaceholder, strings.Join(r.Leaked, ", "))
		return r
	}

	if len(mapping) > 0 {
		if r.Missing = v.MissingTokens(output, mapping); len(r.Missing) > 0 {
			r.Err = fmt.Errorf("%w: %s", ErrMissingToken, strings.Join(r.Missing, ", "))
			return r
		}
	}

	if v.det != nil && targetLang != "" {
		r.DetectedLanguage, r.Err = v.checkLanguage(output, targetLang)
	}
	return r
}

func (v *Validator) checkLanguage(output, targetLang string) (string, error) {
	text := strings.TrimSpace(output)
	// Detector is unreliable for very short texts; skip validation.
	if len([]rune(text)) < minValidationLength {
		return "", nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return "", nil
	}
	if !strings.EqualFold(detected, targetLang) {
		return detected, fmt.Errorf("%w: expected %s but detected %s", ErrWrongLanguage, targetLang, detected)
	}
	return detected, nil
}
