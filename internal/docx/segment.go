package docx

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Segment is a maximal stretch of consecutive runs sharing one formatting
// signature and one side of a hyperlink boundary.
type Segment struct {
	Runs []Run
}

func (s Segment) Text() string { return JoinRunTexts(s.Runs) }

// Len is the segment's original length in characters.
func (s Segment) Len() int { return utf8.RuneCountInString(s.Text()) }

// BuildSegments groups runs into segments. Runs without text are skipped,
// so no segment is empty.
func BuildSegments(runs []Run) []Segment {
	var segs []Segment
	for _, r := range runs {
		if r.Text() == "" {
			continue
		}
		if n := len(segs); n > 0 {
			last := segs[n-1].Runs[len(segs[n-1].Runs)-1]
			if last.Format() == r.Format() && last.IsHyperlink() == r.IsHyperlink() {
				segs[n-1].Runs = append(segs[n-1].Runs, r)
				continue
			}
		}
		segs = append(segs, Segment{Runs: []Run{r}})
	}
	return segs
}

// fillSegments writes translated across segs in proportion to their
// original lengths. The first run of each segment receives its piece and
// the remaining runs are blanked. A separating space dropped at a cut is
// put back on the side where the original segments carried it.
func fillSegments(segs []Segment, translated, lead, trail string) {
	lengths := make([]int, len(segs))
	texts := make([]string, len(segs))
	for i, s := range segs {
		texts[i] = s.Text()
		lengths[i] = utf8.RuneCountInString(texts[i])
	}
	pieces, gaps := redistribute(translated, lengths)

	last := -1
	for i := range pieces {
		if pieces[i] == "" {
			continue
		}
		if last >= 0 && gapBetween(gaps, last, i) {
			if endsWithSpace(texts[last]) || !startsWithSpace(texts[i]) {
				pieces[last] += " "
			} else {
				pieces[i] = " " + pieces[i]
			}
		}
		last = i
	}
	for i := range pieces {
		if pieces[i] != "" {
			pieces[i] = lead + pieces[i]
			break
		}
	}
	if last >= 0 {
		pieces[last] += trail
	}

	for i, s := range segs {
		for j, r := range s.Runs {
			if j == 0 {
				r.SetText(pieces[i])
				continue
			}
			r.SetText("")
		}
	}
}

func gapBetween(gaps []bool, from, to int) bool {
	for k := from + 1; k <= to; k++ {
		if gaps[k] {
			return true
		}
	}
	return false
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

// splitSpace separates leading and trailing whitespace from s.
func splitSpace(s string) (lead, core, trail string) {
	core = strings.TrimSpace(s)
	if core == "" {
		return s, "", ""
	}
	start := strings.Index(s, core)
	return s[:start], core, s[start+len(core):]
}
