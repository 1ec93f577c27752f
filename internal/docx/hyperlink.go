package docx

import (
	"strings"

	"github.com/beevik/etree"
)

// DefaultHighlightColor marks text that came from a hyperlink anchor.
const DefaultHighlightColor = "yellow"

// HyperlinkRecord describes a hyperlink removed from the document so a
// reviewer can restore it.
type HyperlinkRecord struct {
	OriginalText string `json:"original_text"`
	FullSentence string `json:"full_sentence"`
	URL          string `json:"url"`
}

// ExtractHyperlinks records and unwraps every hyperlink of p. The returned
// runs are the paragraph's runs after unwrapping; former anchor runs still
// report IsHyperlink.
func ExtractHyperlinks(p *etree.Element, rels Relationships) ([]HyperlinkRecord, []Run) {
	runs := GetAllRuns(p)
	sentence := strings.TrimSpace(JoinRunTexts(runs))

	var records []HyperlinkRecord
	for _, child := range p.ChildElements() {
		if !isW(child, "hyperlink") {
			continue
		}
		var anchor strings.Builder
		for _, r := range child.ChildElements() {
			if isW(r, "r") {
				anchor.WriteString(runText(r))
			}
		}
		records = append(records, HyperlinkRecord{
			OriginalText: strings.TrimSpace(anchor.String()),
			FullSentence: sentence,
			URL:          hyperlinkURL(child, rels),
		})
		unwrap(child)
	}
	return records, runs
}

func hyperlinkURL(link *etree.Element, rels Relationships) string {
	var url string
	if rel, ok := rels[link.SelectAttrValue("r:id", "")]; ok {
		url = rel.Target
	}
	if anchor := link.SelectAttrValue("w:anchor", ""); anchor != "" {
		url += "#" + anchor
	}
	return url
}

// unwrap replaces el with its children at the same position.
func unwrap(el *etree.Element) {
	parent := el.Parent()
	if parent == nil {
		return
	}
	idx := el.Index()
	children := append([]etree.Token(nil), el.Child...)
	parent.RemoveChild(el)
	for i, c := range children {
		el.RemoveChild(c)
		parent.InsertChildAt(idx+i, c)
	}
}
