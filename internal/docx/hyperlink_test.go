package docx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractHyperlinks(t *testing.T) {
	p := paragraph(t, run("Before ")+linkRun("rId5", "Link Text")+run(" after."))
	rels := Relationships{"rId5": {ID: "rId5", Type: relTypeHyperlink, Target: "https://example.org/a", TargetMode: "External"}}

	records, runs := ExtractHyperlinks(p, rels)

	require.Len(t, records, 1)
	assert.Equal(t, HyperlinkRecord{
		OriginalText: "Link Text",
		FullSentence: "Before Link Text after.",
		URL:          "https://example.org/a",
	}, records[0])

	assert.Empty(t, p.SelectElements("w:hyperlink"))
	assert.Equal(t, []string{"Before ", "Link Text", " after."}, texts(runs))
	for _, r := range runs {
		assert.Same(t, p, r.Element().Parent())
	}
	assert.True(t, runs[1].IsHyperlink())
	assert.Equal(t, "Before Link Text after.", ParagraphText(p))
}

func TestExtractHyperlinks_Anchor(t *testing.T) {
	p := paragraph(t, `<w:hyperlink w:anchor="results"><w:r><w:t>see results</w:t></w:r></w:hyperlink>`)

	records, _ := ExtractHyperlinks(p, Relationships{})

	require.Len(t, records, 1)
	assert.Equal(t, "#results", records[0].URL)
}

func TestExtractHyperlinks_None(t *testing.T) {
	p := paragraph(t, run("plain text"))

	records, runs := ExtractHyperlinks(p, Relationships{})

	assert.Empty(t, records)
	assert.Len(t, runs, 1)
}
