package translator

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// languageName turns an ISO code into its English name ("fr" -> "French"),
// falling back to the code itself.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// buildSystemPrompt instructs a chat model to translate and to leave
// placeholder tokens alone.
func buildSystemPrompt(sourceLang, targetLang string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are a professional translator. Translate the user's text from %s to %s.\n",
		languageName(sourceLang), languageName(targetLang)))
	sb.WriteString("Only respond with the translation, nothing else. No explanations, no quotes.\n")
	sb.WriteString("Upper-case placeholder tokens made of letters followed by four digits, such as NOMENCLATURE0001 or TAXON0002, ")
	sb.WriteString("must be copied exactly as they appear: do not translate, split, pluralise or renumber them.")
	return sb.String()
}

// buildCompletionPrompt is the single-string variant used by /api/generate.
func buildCompletionPrompt(text, sourceLang, targetLang string) string {
	return fmt.Sprintf("%s\n\nText:\n%s\n\nTranslation:", buildSystemPrompt(sourceLang, targetLang), text)
}
