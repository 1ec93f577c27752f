package docx

import (
	"strings"
	"unicode"
)

// Redistribute cuts translated into len(lengths) pieces whose sizes follow
// the proportions of lengths. Each cut is snapped to a word boundary and
// every piece is trimmed. When fewer non-empty pieces come out than there
// are non-zero lengths, the whole text goes to the first piece.
func Redistribute(translated string, lengths []int) []string {
	pieces, _ := redistribute(translated, lengths)
	return pieces
}

// redistribute also reports, per piece, whether its cut fell on whitespace
// in translated.
func redistribute(translated string, lengths []int) ([]string, []bool) {
	n := len(lengths)
	if n == 0 {
		return nil, nil
	}
	pieces := make([]string, n)
	gaps := make([]bool, n)

	total, want := 0, 0
	for _, l := range lengths {
		if l > 0 {
			total += l
			want++
		}
	}
	runes := []rune(translated)
	if total == 0 || n == 1 {
		pieces[0] = strings.TrimSpace(translated)
		return pieces, gaps
	}

	cum, prev := 0, 0
	for i := 0; i < n-1; i++ {
		cum += lengths[i]
		cut := snap(runes, cum*len(runes)/total)
		if cut < prev {
			cut = prev
		}
		pieces[i] = strings.TrimSpace(string(runes[prev:cut]))
		gaps[i+1] = atSpace(runes, cut)
		prev = cut
	}
	pieces[n-1] = strings.TrimSpace(string(runes[prev:]))

	got := 0
	for _, p := range pieces {
		if p != "" {
			got++
		}
	}
	if got < want {
		for i := range pieces {
			pieces[i] = ""
			gaps[i] = false
		}
		pieces[0] = strings.TrimSpace(translated)
	}
	return pieces, gaps
}

// snap moves pos onto a word boundary: forward to the next space, else
// backward to the previous one.
func snap(runes []rune, pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos >= len(runes) {
		return len(runes)
	}
	if atSpace(runes, pos) {
		return pos
	}
	for i := pos; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	for i := pos; i > 0; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return 0
}

func atSpace(runes []rune, pos int) bool {
	if pos <= 0 || pos >= len(runes) {
		return false
	}
	return unicode.IsSpace(runes[pos]) || unicode.IsSpace(runes[pos-1])
}
