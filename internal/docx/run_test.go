package docx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAllRuns_DescendsIntoHyperlinks(t *testing.T) {
	p := paragraph(t, run("Before ")+linkRun("rId5", "Link Text")+run(" after."))

	runs := GetAllRuns(p)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"Before ", "Link Text", " after."}, texts(runs))
	assert.False(t, runs[0].IsHyperlink())
	assert.True(t, runs[1].IsHyperlink())
	assert.NotNil(t, runs[1].Hyperlink())
	assert.False(t, runs[2].IsHyperlink())
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{"black equals unset", `<w:r><w:rPr><w:color w:val="000000"/></w:rPr><w:t>x</w:t></w:r>`, run("x"), true},
		{"auto equals unset", `<w:r><w:rPr><w:color w:val="auto"/></w:rPr><w:t>x</w:t></w:r>`, run("x"), true},
		{"red differs", `<w:r><w:rPr><w:color w:val="FF0000"/></w:rPr><w:t>x</w:t></w:r>`, run("x"), false},
		{"bold off equals plain", `<w:r><w:rPr><w:b w:val="0"/></w:rPr><w:t>x</w:t></w:r>`, run("x"), true},
		{"bold differs", boldRun("x"), run("x"), false},
		{"underline none equals plain", `<w:r><w:rPr><w:u w:val="none"/></w:rPr><w:t>x</w:t></w:r>`, run("x"), true},
		{"size differs", `<w:r><w:rPr><w:sz w:val="28"/></w:rPr><w:t>x</w:t></w:r>`, run("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := GetAllRuns(paragraph(t, tt.a+tt.b))
			require.Len(t, runs, 2)
			assert.Equal(t, tt.equal, runs[0].Format() == runs[1].Format())
		})
	}
}

func TestMergeIdenticalRuns(t *testing.T) {
	t.Run("same format merges", func(t *testing.T) {
		p := paragraph(t, run("hello wor")+run("ld foo bar"))
		runs := MergeIdenticalRuns(GetAllRuns(p))
		require.Len(t, runs, 1)
		assert.Equal(t, "hello world foo bar", runs[0].Text())
		assert.Len(t, GetAllRuns(p), 1)
	})

	t.Run("different format kept", func(t *testing.T) {
		p := paragraph(t, run("a")+boldRun("b")+run("c"))
		runs := MergeIdenticalRuns(GetAllRuns(p))
		assert.Equal(t, []string{"a", "b", "c"}, texts(runs))
	})

	t.Run("never across a hyperlink", func(t *testing.T) {
		p := paragraph(t, `<w:r><w:rPr><w:rStyle w:val="Hyperlink"/></w:rPr><w:t>x</w:t></w:r>`+linkRun("rId1", "y"))
		runs := MergeIdenticalRuns(GetAllRuns(p))
		assert.Len(t, runs, 2)
	})

	t.Run("runs with non-text content kept", func(t *testing.T) {
		p := paragraph(t, run("a")+`<w:r><w:tab/><w:t>b</w:t></w:r>`)
		runs := MergeIdenticalRuns(GetAllRuns(p))
		assert.Len(t, runs, 2)
	})
}

func TestHasFormattingDifferences(t *testing.T) {
	tests := []struct {
		name  string
		inner string
		want  bool
	}{
		{"uniform", run("a ") + run("b"), false},
		{"bold segment", run("a ") + boldRun("b"), true},
		{"blank bold run ignored", run("a") + boldRun(" "), false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasFormattingDifferences(GetAllRuns(paragraph(t, tt.inner))))
		})
	}
}

func TestJoinRunTexts(t *testing.T) {
	tests := []struct {
		name  string
		inner string
		want  string
	}{
		{"plain runs concatenate", run("hello wor") + run("ld"), "hello world"},
		{"space at hyperlink boundary", run("Visit") + linkRun("rId1", "our site") + run("today."), "Visit our site today."},
		{"existing whitespace kept", run("Visit ") + linkRun("rId1", "our site") + run(" today."), "Visit our site today."},
		{"empty runs skipped", run("a") + `<w:r/>` + run("b"), "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinRunTexts(GetAllRuns(paragraph(t, tt.inner))))
		})
	}
}

func TestSetText(t *testing.T) {
	p := paragraph(t, `<w:r><w:t>one</w:t><w:t>two</w:t></w:r>`+`<w:r><w:tab/></w:r>`)
	runs := GetAllRuns(p)

	runs[0].SetText(" padded ")
	assert.Equal(t, " padded ", runs[0].Text())
	assert.Len(t, runs[0].Element().SelectElements("w:t"), 1)
	assert.Equal(t, "preserve", runs[0].Element().SelectElement("w:t").SelectAttrValue("xml:space", ""))

	runs[1].SetText("")
	assert.Nil(t, runs[1].Element().SelectElement("w:t"))
}

func TestSetText_TabsAndBreaks(t *testing.T) {
	p := paragraph(t, `<w:r><w:rPr><w:i/></w:rPr><w:t>x</w:t></w:r>`+`<w:r><w:rPr><w:b/></w:rPr></w:r>`)
	runs := GetAllRuns(p)

	runs[0].SetText("a\tb\nc")
	assert.Equal(t, "a\tb\nc", runs[0].Text())
	assert.Equal(t, []string{"rPr", "t", "tab", "t", "br", "t"}, childTags(runs[0].Element()))

	runs[1].SetText("\tend")
	assert.Equal(t, "\tend", runs[1].Text())
	assert.Equal(t, []string{"rPr", "tab", "t"}, childTags(runs[1].Element()))

	runs[0].SetText("")
	assert.Equal(t, []string{"rPr"}, childTags(runs[0].Element()))
}

func TestHighlight(t *testing.T) {
	p := paragraph(t, `<w:r><w:rPr><w:b/><w:u w:val="single"/></w:rPr><w:t>x</w:t></w:r>`+run("y"))
	runs := GetAllRuns(p)

	Highlight(runs[0], "yellow")
	Highlight(runs[0], "green")
	Highlight(runs[1], DefaultHighlightColor)

	assert.Equal(t, "green", HighlightColor(runs[0]))
	rPr := runs[0].Element().SelectElement("w:rPr")
	require.Len(t, rPr.SelectElements("w:highlight"), 1)
	children := rPr.ChildElements()
	assert.Equal(t, []string{"b", "highlight", "u"}, []string{children[0].Tag, children[1].Tag, children[2].Tag})

	assert.Equal(t, "yellow", HighlightColor(runs[1]))
	assert.Equal(t, "rPr", runs[1].Element().ChildElements()[0].Tag)
}
