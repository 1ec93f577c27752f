// Package docx translates Word documents in place. Only the text of runs
// changes: paragraphs, tables, headers, footers and every untouched package
// part are written back as they were read.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/beevik/etree"
)

const (
	documentPart = "word/document.xml"

	relTypeHyperlink = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	relTypeHeader    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	relTypeFooter    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
)

var (
	ErrNotDocx     = errors.New("docx: not a word document")
	ErrPartMissing = errors.New("docx: package part missing")
)

// Relationship is one entry of a part's relationship table.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

// External reports whether the target is a URL rather than a package part.
func (r Relationship) External() bool {
	return strings.EqualFold(r.TargetMode, "External")
}

// Relationships maps relationship ids to entries.
type Relationships map[string]Relationship

// Document is an opened .docx package. Parsed parts are re-serialised on
// Save; every other entry is copied through unchanged.
type Document struct {
	files  []*zip.File
	byName map[string]*zip.File
	parsed map[string]*etree.Document
	rels   map[string]Relationships
}

// Open reads the package at path.
func Open(name string) (*Document, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return Read(bytes.NewReader(data), int64(len(data)))
}

// Read parses a package from r.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDocx, err)
	}
	d := &Document{
		files:  zr.File,
		byName: make(map[string]*zip.File, len(zr.File)),
		parsed: make(map[string]*etree.Document),
		rels:   make(map[string]Relationships),
	}
	for _, f := range zr.File {
		d.byName[f.Name] = f
	}
	if _, ok := d.byName[documentPart]; !ok {
		return nil, fmt.Errorf("%w: no %s", ErrNotDocx, documentPart)
	}
	return d, nil
}

// Part returns the parsed XML of a package part. Parts fetched here are
// written back by Save.
func (d *Document) Part(name string) (*etree.Document, error) {
	if doc, ok := d.parsed[name]; ok {
		return doc, nil
	}
	f, ok := d.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartMissing, name)
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	d.parsed[name] = doc
	return doc, nil
}

// Body returns the w:body element of the main document part.
func (d *Document) Body() (*etree.Element, error) {
	doc, err := d.Part(documentPart)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: empty %s", ErrNotDocx, documentPart)
	}
	body := root.SelectElement("w:body")
	if body == nil {
		return nil, fmt.Errorf("%w: %s has no body", ErrNotDocx, documentPart)
	}
	return body, nil
}

// Relationships returns the relationship table of part; a part without one
// has an empty table.
func (d *Document) Relationships(part string) (Relationships, error) {
	if rels, ok := d.rels[part]; ok {
		return rels, nil
	}
	rels := make(Relationships)
	f, ok := d.byName[relsPath(part)]
	if !ok {
		d.rels[part] = rels
		return rels, nil
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse relationships of %s: %w", part, err)
	}
	if root := doc.Root(); root != nil {
		for _, el := range root.SelectElements("Relationship") {
			rel := Relationship{
				ID:         el.SelectAttrValue("Id", ""),
				Type:       el.SelectAttrValue("Type", ""),
				Target:     el.SelectAttrValue("Target", ""),
				TargetMode: el.SelectAttrValue("TargetMode", ""),
			}
			rels[rel.ID] = rel
		}
	}
	d.rels[part] = rels
	return rels, nil
}

// ResolveTarget turns a relationship target of part into a package path.
func ResolveTarget(part, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(part), target)
}

func relsPath(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// PartRef names a header or footer part and the section slot referencing it.
type PartRef struct {
	Name string
	Kind string // "header" or "footer"
	Type string // "default", "first" or "even"
}

// HeaderFooterParts lists header and footer parts in section order, once
// each even when several sections link the same part.
func (d *Document) HeaderFooterParts() ([]PartRef, error) {
	body, err := d.Body()
	if err != nil {
		return nil, err
	}
	rels, err := d.Relationships(documentPart)
	if err != nil {
		return nil, err
	}

	var refs []PartRef
	seen := make(map[string]bool)
	for _, sect := range sectionProperties(body) {
		for _, ref := range sect.ChildElements() {
			var kind string
			switch {
			case ref.Space == "w" && ref.Tag == "headerReference":
				kind = "header"
			case ref.Space == "w" && ref.Tag == "footerReference":
				kind = "footer"
			default:
				continue
			}
			rel, ok := rels[ref.SelectAttrValue("r:id", "")]
			if !ok || rel.External() {
				continue
			}
			name := ResolveTarget(documentPart, rel.Target)
			if seen[name] {
				continue
			}
			seen[name] = true
			refs = append(refs, PartRef{Name: name, Kind: kind, Type: ref.SelectAttrValue("w:type", "default")})
		}
	}
	return refs, nil
}

// sectionProperties returns the w:sectPr elements of body in document
// order: those closing a section inside a paragraph, then the final one.
func sectionProperties(body *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, el := range body.ChildElements() {
		switch {
		case isW(el, "p"):
			if pPr := el.SelectElement("w:pPr"); pPr != nil {
				if sect := pPr.SelectElement("w:sectPr"); sect != nil {
					out = append(out, sect)
				}
			}
		case isW(el, "sectPr"):
			out = append(out, el)
		}
	}
	return out
}

// Write serialises the package to w.
func (d *Document) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, f := range d.files {
		doc, ok := d.parsed[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("failed to copy %s: %w", f.Name, err)
			}
			continue
		}
		data, err := doc.WriteToBytes()
		if err != nil {
			return fmt.Errorf("failed to serialise %s: %w", f.Name, err)
		}
		fh := f.FileHeader
		fh.Extra = nil
		part, err := zw.CreateHeader(&fh)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", f.Name, err)
		}
		if _, err := part.Write(data); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}

// Save writes the package to path.
func (d *Document) Save(name string) error {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}

// BodyText returns the text of the body paragraphs in document order, one
// per line, stopping once limit characters are collected. limit <= 0 means
// no limit.
func (d *Document) BodyText(limit int) (string, error) {
	body, err := d.Body()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	walkParagraphs(body, func(p *etree.Element) bool {
		if text := strings.TrimSpace(ParagraphText(p)); text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
		return limit <= 0 || b.Len() < limit
	})
	return b.String(), nil
}

// walkParagraphs calls fn for each paragraph under parent, descending into
// tables and content controls, until fn returns false.
func walkParagraphs(parent *etree.Element, fn func(*etree.Element) bool) bool {
	for _, el := range parent.ChildElements() {
		switch {
		case isW(el, "p"):
			if !fn(el) {
				return false
			}
		case isW(el, "tbl"):
			for _, row := range el.SelectElements("w:tr") {
				for _, cell := range row.SelectElements("w:tc") {
					if !walkParagraphs(cell, fn) {
						return false
					}
				}
			}
		case isW(el, "sdt"):
			if content := el.SelectElement("w:sdtContent"); content != nil {
				if !walkParagraphs(content, fn) {
					return false
				}
			}
		}
	}
	return true
}
