// Package detector identifies whether a text is English or French.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// Supported lists the language pair the pipeline translates between.
var Supported = []string{"en", "fr"}

// Detector wraps a lingua detector restricted to English and French. Building
// one loads language models; reuse the instance.
type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.French).
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the lower-case ISO 639-1 code of text.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// ResolveSource returns sourceLang, or the detected language when it is
// empty or "auto". Undetectable text falls back to fallback.
func (d *Detector) ResolveSource(text, sourceLang, fallback string) string {
	if sourceLang != "" && !strings.EqualFold(sourceLang, "auto") {
		return strings.ToLower(sourceLang)
	}
	if code, ok := d.DetectISO(text); ok {
		return code
	}
	return fallback
}

// Counterpart returns the other language of the en/fr pair.
func Counterpart(lang string) string {
	if strings.EqualFold(lang, "fr") {
		return "en"
	}
	return "fr"
}
