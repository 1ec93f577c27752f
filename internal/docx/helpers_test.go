package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/valpere/termshield/internal/orchestrator"
)

const namespaces = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

func paragraph(t *testing.T, inner string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<w:body `+namespaces+`><w:p>`+inner+`</w:p></w:body>`))
	return doc.Root().SelectElement("w:p")
}

func run(text string) string {
	return `<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

func boldRun(text string) string {
	return `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

func linkRun(id, text string) string {
	return `<w:hyperlink r:id="` + id + `"><w:r><w:rPr><w:rStyle w:val="Hyperlink"/></w:rPr><w:t xml:space="preserve">` + text + `</w:t></w:r></w:hyperlink>`
}

func documentXML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document ` + namespaces + `><w:body>` + body + `</w:body></w:document>`
}

func relsXML(rels ...Relationship) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		sb.WriteString(`<Relationship Id="` + r.ID + `" Type="` + r.Type + `" Target="` + r.Target + `"`)
		if r.TargetMode != "" {
			sb.WriteString(` TargetMode="` + r.TargetMode + `"`)
		}
		sb.WriteString(`/>`)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

type file struct {
	name string
	data string
}

func packageBytes(t *testing.T, files ...file) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func openPackage(t *testing.T, data []byte) *Document {
	t.Helper()
	doc, err := Read(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return doc
}

// paragraphs lists every w:p under el in document order.
func paragraphs(el *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if isW(child, "p") {
			out = append(out, child)
			continue
		}
		out = append(out, paragraphs(child)...)
	}
	return out
}

func texts(runs []Run) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.Text()
	}
	return out
}

type engineFunc func(req orchestrator.Request) orchestrator.Result

func (f engineFunc) Translate(_ context.Context, req orchestrator.Request) orchestrator.Result {
	return f(req)
}

func upper(req orchestrator.Request) orchestrator.Result {
	return orchestrator.Result{
		TranslatedText:  strings.ToUpper(req.Text),
		Backend:         orchestrator.BestBackend,
		SelectedBackend: "fake",
	}
}

func identity(req orchestrator.Request) orchestrator.Result {
	return orchestrator.Result{TranslatedText: req.Text, Backend: orchestrator.BestBackend, SelectedBackend: "fake"}
}

// recorder captures every request it answers.
type recorder struct {
	mu       sync.Mutex
	requests []orchestrator.Request
}

func (r *recorder) Translate(_ context.Context, req orchestrator.Request) orchestrator.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return upper(req)
}
