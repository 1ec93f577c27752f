package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"

	"github.com/beevik/etree"
)

// NotesTitle heads the hyperlink notes document.
const NotesTitle = "Hyperlink Translation Notes"

var notesHeader = []string{"Original Text", "Full Sentence", "URL"}

const (
	nsW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	notesContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/><Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/></Types>`

	notesPackageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

	notesDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`

	notesStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style><w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:outlineLvl w:val="0"/></w:pPr><w:rPr><w:b/><w:sz w:val="32"/></w:rPr></w:style><w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/><w:tblPr><w:tblBorders><w:top w:val="single" w:sz="4" w:space="0" w:color="auto"/><w:left w:val="single" w:sz="4" w:space="0" w:color="auto"/><w:bottom w:val="single" w:sz="4" w:space="0" w:color="auto"/><w:right w:val="single" w:sz="4" w:space="0" w:color="auto"/><w:insideH w:val="single" w:sz="4" w:space="0" w:color="auto"/><w:insideV w:val="single" w:sz="4" w:space="0" w:color="auto"/></w:tblBorders></w:tblPr></w:style></w:styles>`
)

// WriteNotes writes the hyperlink notes document to path.
func WriteNotes(path string, records []HyperlinkRecord) error {
	data, err := BuildNotes(records)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write notes %s: %w", path, err)
	}
	return nil
}

// BuildNotes renders a document holding a level-1 heading and a grid table
// with one row per record under an Original Text, Full Sentence, URL header.
func BuildNotes(records []HyperlinkRecord) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("w:document")
	root.CreateAttr("xmlns:w", nsW)
	root.CreateAttr("xmlns:r", nsR)
	body := root.CreateElement("w:body")

	heading := body.CreateElement("w:p")
	heading.CreateElement("w:pPr").CreateElement("w:pStyle").CreateAttr("w:val", "Heading1")
	addRun(heading, NotesTitle)

	tbl := body.CreateElement("w:tbl")
	tblPr := tbl.CreateElement("w:tblPr")
	tblPr.CreateElement("w:tblStyle").CreateAttr("w:val", "TableGrid")
	width := tblPr.CreateElement("w:tblW")
	width.CreateAttr("w:w", "0")
	width.CreateAttr("w:type", "auto")
	grid := tbl.CreateElement("w:tblGrid")
	for range notesHeader {
		grid.CreateElement("w:gridCol")
	}
	addRow(tbl, notesHeader)
	for _, rec := range records {
		addRow(tbl, []string{rec.OriginalText, rec.FullSentence, rec.URL})
	}
	body.CreateElement("w:sectPr")

	document, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render notes: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(notesContentTypes)},
		{"_rels/.rels", []byte(notesPackageRels)},
		{documentPart, document},
		{"word/_rels/document.xml.rels", []byte(notesDocumentRels)},
		{"word/styles.xml", []byte(notesStyles)},
	} {
		w, err := zw.Create(f.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", f.name, err)
		}
		if _, err := w.Write(f.data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish notes: %w", err)
	}
	return buf.Bytes(), nil
}

func addRow(tbl *etree.Element, cells []string) {
	tr := tbl.CreateElement("w:tr")
	for _, text := range cells {
		p := tr.CreateElement("w:tc").CreateElement("w:p")
		addRun(p, text)
	}
}

func addRun(p *etree.Element, text string) {
	t := p.CreateElement("w:r").CreateElement("w:t")
	t.CreateAttr("xml:space", "preserve")
	t.SetText(text)
}
