// Package postprocess strips the chatter LLM backends wrap around a
// translation: reasoning blocks, "Here is the translation:" style lead-ins in
// English or French, trailing translator notes and wrapping quotes.
package postprocess

import (
	"regexp"
	"strings"
)

// Cleaner holds the compiled artifact patterns.
type Cleaner struct {
	thinkingBlock     *regexp.Regexp
	truncatedThinking *regexp.Regexp
	echoes            []*regexp.Regexp
	trailingNote      *regexp.Regexp
}

// NewCleaner compiles the artifact patterns.
func NewCleaner() *Cleaner {
	return &Cleaner{
		// RE2 has no backreferences, so each tag pair is listed.
		thinkingBlock: regexp.MustCompile(
			`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
		),
		truncatedThinking: regexp.MustCompile(
			`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
		),
		// Anchored at the start and terminated by a colon or a line break so
		// prose that merely begins with "Translation" survives.
		echoes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^(?:(?:certainly|sure|of course)[,.]? )?here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text)\s*(?::|\n)`),
			regexp.MustCompile(`(?i)^(?:the )?(?:refined |polished )?(?:translation|translated text)(?: is)?\s*(?::|\n)`),
			regexp.MustCompile(`(?i)^(?:bien sûr[,.]? )?voici(?: la)? (?:traduction|texte traduit)\s*(?::|\n)`),
			regexp.MustCompile(`(?i)^(?:la )?traduction(?: est)?\s*(?::|\n)`),
		},
		trailingNote: regexp.MustCompile(`(?i)\s*\([^)]*(?:translation|traduction)[^)]*\)\s*$`),
	}
}

var defaultCleaner = NewCleaner()

// Clean runs the default Cleaner.
func Clean(text string) string {
	return defaultCleaner.Clean(text)
}

// Clean removes artifacts in order (reasoning blocks, lead-in echoes,
// trailing notes, quote wrapping) and returns the trimmed result.
func (c *Cleaner) Clean(text string) string {
	text = c.removeThinkingBlocks(text)
	text = c.removeInstructionEchoes(text)
	text = c.removeTrailingNote(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

func (c *Cleaner) removeThinkingBlocks(text string) string {
	text = c.thinkingBlock.ReplaceAllString(text, "")
	text = c.truncatedThinking.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func (c *Cleaner) removeInstructionEchoes(text string) string {
	for _, re := range c.echoes {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

func (c *Cleaner) removeTrailingNote(text string) string {
	return c.trailingNote.ReplaceAllString(text, "")
}

// removeQuoteWrapping strips one matching pair of outer quotes:
//
//	"…"  '…'  «…»  “…”  ‘…’
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
