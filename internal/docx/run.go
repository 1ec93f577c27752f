package docx

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/beevik/etree"
)

// Run is the unit of formatted text inside a paragraph. Plain runs and runs
// nested in a hyperlink are exposed through the same interface.
type Run interface {
	Element() *etree.Element
	Text() string
	SetText(s string)
	Format() Format
	IsHyperlink() bool
	// Hyperlink returns the w:hyperlink the run belongs or belonged to,
	// nil for plain runs.
	Hyperlink() *etree.Element
}

type textRun struct {
	el *etree.Element
}

// NewRun wraps a w:r element.
func NewRun(el *etree.Element) Run { return &textRun{el: el} }

func (r *textRun) Element() *etree.Element   { return r.el }
func (r *textRun) Text() string              { return runText(r.el) }
func (r *textRun) SetText(s string)          { setRunText(r.el, s) }
func (r *textRun) Format() Format            { return formatOf(r.el) }
func (r *textRun) IsHyperlink() bool         { return false }
func (r *textRun) Hyperlink() *etree.Element { return nil }

// hyperlinkRun is a run that sits, or sat, inside a w:hyperlink. It keeps
// its hyperlink identity after unwrapping so merging and segmentation never
// join anchor text with the surrounding prose.
type hyperlinkRun struct {
	textRun
	link *etree.Element
}

func (r *hyperlinkRun) IsHyperlink() bool         { return true }
func (r *hyperlinkRun) Hyperlink() *etree.Element { return r.link }

// GetAllRuns returns the runs of a paragraph in document order, descending
// into hyperlinks.
func GetAllRuns(p *etree.Element) []Run {
	var runs []Run
	for _, child := range p.ChildElements() {
		switch {
		case isW(child, "r"):
			runs = append(runs, &textRun{el: child})
		case isW(child, "hyperlink"):
			for _, r := range child.ChildElements() {
				if isW(r, "r") {
					runs = append(runs, &hyperlinkRun{textRun: textRun{el: r}, link: child})
				}
			}
		}
	}
	return runs
}

// SkippedRuns counts the runs GetAllRuns does not reach: runs nested in
// inline wrappers such as w:ins, w:smartTag, w:fldSimple or an inline w:sdt.
func SkippedRuns(p *etree.Element) int {
	n := 0
	for _, child := range p.ChildElements() {
		if isW(child, "r") || isW(child, "hyperlink") {
			continue
		}
		n += countRuns(child)
	}
	return n
}

func countRuns(el *etree.Element) int {
	if isW(el, "r") {
		return 1
	}
	n := 0
	for _, child := range el.ChildElements() {
		n += countRuns(child)
	}
	return n
}

// ParagraphText is the concatenated text of every run in p.
func ParagraphText(p *etree.Element) string {
	return JoinRunTexts(GetAllRuns(p))
}

// Format is the formatting signature that decides whether two runs look the
// same. A black color and an unset color compare equal.
type Format struct {
	Bold      bool
	Italic    bool
	Underline bool
	Font      string
	Size      string
	Color     string
}

func (f Format) String() string {
	return fmt.Sprintf("b=%t i=%t u=%t font=%q size=%q color=%q",
		f.Bold, f.Italic, f.Underline, f.Font, f.Size, f.Color)
}

func formatOf(r *etree.Element) Format {
	var f Format
	rPr := r.SelectElement("w:rPr")
	if rPr == nil {
		return f
	}
	for _, el := range rPr.ChildElements() {
		if el.Space != "w" {
			continue
		}
		switch el.Tag {
		case "b":
			f.Bold = onOff(el)
		case "i":
			f.Italic = onOff(el)
		case "u":
			val := el.SelectAttrValue("w:val", "single")
			f.Underline = val != "none" && val != ""
		case "rFonts":
			f.Font = el.SelectAttrValue("w:ascii", el.SelectAttrValue("w:hAnsi", ""))
		case "sz":
			f.Size = el.SelectAttrValue("w:val", "")
		case "color":
			f.Color = normalizeColor(el.SelectAttrValue("w:val", ""))
		}
	}
	return f
}

func onOff(el *etree.Element) bool {
	switch strings.ToLower(el.SelectAttrValue("w:val", "true")) {
	case "0", "false", "off":
		return false
	}
	return true
}

func normalizeColor(c string) string {
	switch strings.ToLower(c) {
	case "", "auto", "000000":
		return ""
	}
	return strings.ToUpper(c)
}

func isW(el *etree.Element, tag string) bool {
	return el.Space == "w" && el.Tag == tag
}

// runText renders the content of r: w:t text, a tab for w:tab and a line
// break for w:br and w:cr, in child order.
func runText(r *etree.Element) string {
	var sb strings.Builder
	for _, el := range r.ChildElements() {
		switch {
		case isW(el, "t"):
			sb.WriteString(el.Text())
		case isW(el, "tab"):
			sb.WriteByte('\t')
		case isW(el, "br"), isW(el, "cr"):
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func isContent(el *etree.Element) bool {
	return isW(el, "t") || isW(el, "tab") || isW(el, "br") || isW(el, "cr")
}

// setRunText replaces the text content of r with s, where the first
// content element was. Tabs in s become w:tab and line breaks become w:br;
// existing tab and break elements are reused in order so their attributes
// survive.
func setRunText(r *etree.Element, s string) {
	pos := -1
	var tabs, breaks []*etree.Element
	for _, el := range r.ChildElements() {
		if !isContent(el) {
			continue
		}
		if pos < 0 {
			pos = el.Index()
		}
		switch {
		case isW(el, "tab"):
			tabs = append(tabs, el)
		case isW(el, "br"), isW(el, "cr"):
			breaks = append(breaks, el)
		}
		r.RemoveChild(el)
	}
	if s == "" {
		return
	}
	if pos < 0 {
		pos = len(r.Child)
	}

	insert := func(el *etree.Element) {
		r.InsertChildAt(pos, el)
		pos++
	}
	text := func(chunk string) {
		if chunk == "" {
			return
		}
		t := etree.NewElement("w:t")
		t.SetText(chunk)
		if chunk != strings.TrimSpace(chunk) {
			t.CreateAttr("xml:space", "preserve")
		}
		insert(t)
	}

	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '\t' && s[i] != '\n' {
			continue
		}
		text(s[start:i])
		start = i + 1
		if s[i] == '\t' {
			if len(tabs) > 0 {
				insert(tabs[0])
				tabs = tabs[1:]
			} else {
				insert(etree.NewElement("w:tab"))
			}
			continue
		}
		if len(breaks) > 0 {
			insert(breaks[0])
			breaks = breaks[1:]
		} else {
			insert(etree.NewElement("w:br"))
		}
	}
	text(s[start:])
}

// textOnly reports whether r carries nothing but properties and text, so
// its content can move into a neighbour without losing a tab, break,
// drawing or field.
func textOnly(r *etree.Element) bool {
	for _, el := range r.ChildElements() {
		if !isW(el, "rPr") && !isW(el, "t") {
			return false
		}
	}
	return true
}

// MergeIdenticalRuns folds each run into its predecessor when both carry
// the same formatting, share a parent and sit on the same side of a
// hyperlink boundary. The absorbed runs are removed from the tree.
func MergeIdenticalRuns(runs []Run) []Run {
	out := make([]Run, 0, len(runs))
	for _, r := range runs {
		if n := len(out); n > 0 && mergeable(out[n-1], r) {
			prev := out[n-1]
			prev.SetText(prev.Text() + r.Text())
			if parent := r.Element().Parent(); parent != nil {
				parent.RemoveChild(r.Element())
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

func mergeable(a, b Run) bool {
	if a.IsHyperlink() != b.IsHyperlink() || a.Hyperlink() != b.Hyperlink() {
		return false
	}
	if a.Element().Parent() != b.Element().Parent() {
		return false
	}
	if !textOnly(a.Element()) || !textOnly(b.Element()) {
		return false
	}
	return a.Format() == b.Format()
}

// HasFormattingDifferences reports whether the runs carrying visible text
// use two or more formatting signatures.
func HasFormattingDifferences(runs []Run) bool {
	var first *Format
	for _, r := range runs {
		if strings.TrimSpace(r.Text()) == "" {
			continue
		}
		f := r.Format()
		if first == nil {
			first = &f
			continue
		}
		if f != *first {
			return true
		}
	}
	return false
}

// JoinRunTexts concatenates run texts. A space is inserted where a
// hyperlink run meets a plain run and neither side brings whitespace.
func JoinRunTexts(runs []Run) string {
	var sb strings.Builder
	var prev Run
	for _, r := range runs {
		t := r.Text()
		if t == "" {
			continue
		}
		if prev != nil && prev.IsHyperlink() != r.IsHyperlink() {
			last, _ := utf8.DecodeLastRuneInString(sb.String())
			next, _ := utf8.DecodeRuneInString(t)
			if !unicode.IsSpace(last) && !unicode.IsSpace(next) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t)
		prev = r
	}
	return sb.String()
}

// rPr elements that must follow w:highlight.
var afterHighlight = map[string]bool{
	"u": true, "effect": true, "bdr": true, "shd": true, "fitText": true,
	"vertAlign": true, "rtl": true, "cs": true, "em": true, "lang": true,
	"eastAsianLayout": true, "specVanish": true, "oMath": true,
}

// Highlight sets the highlight color of r, replacing any existing one.
func Highlight(r Run, color string) {
	el := r.Element()
	rPr := el.SelectElement("w:rPr")
	if rPr == nil {
		rPr = etree.NewElement("w:rPr")
		el.InsertChildAt(0, rPr)
	}
	if h := rPr.SelectElement("w:highlight"); h != nil {
		h.CreateAttr("w:val", color)
		return
	}
	h := etree.NewElement("w:highlight")
	h.CreateAttr("w:val", color)
	for _, child := range rPr.ChildElements() {
		if child.Space == "w" && afterHighlight[child.Tag] {
			rPr.InsertChildAt(child.Index(), h)
			return
		}
	}
	rPr.AddChild(h)
}

// HighlightColor returns the highlight color of r, empty when unset.
func HighlightColor(r Run) string {
	rPr := r.Element().SelectElement("w:rPr")
	if rPr == nil {
		return ""
	}
	h := rPr.SelectElement("w:highlight")
	if h == nil {
		return ""
	}
	return h.SelectAttrValue("w:val", "")
}
