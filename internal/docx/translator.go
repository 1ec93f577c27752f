package docx

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog/log"

	"github.com/valpere/termshield/internal/chunker"
	"github.com/valpere/termshield/internal/orchestrator"
)

// Engine translates one unit of text. *orchestrator.Orchestrator satisfies
// it.
type Engine interface {
	Translate(ctx context.Context, req orchestrator.Request) orchestrator.Result
}

// Options configure a document run.
type Options struct {
	SourceLang     string
	TargetLang     string
	HighlightColor string
	// Budget is the chunk budget in characters; zero means the default.
	Budget  int
	NoCache bool
}

// Report summarises a document run.
type Report struct {
	Input      string            `json:"input,omitempty"`
	Output     string            `json:"output,omitempty"`
	NotesPath  string            `json:"notes,omitempty"`
	Paragraphs int               `json:"paragraphs"`
	Mixed      int               `json:"mixed_paragraphs"`
	Requests   int               `json:"requests"`
	Failures   int               `json:"failures"`
	Skipped    int               `json:"skipped_runs"`
	Parts      []string          `json:"parts,omitempty"`
	Hyperlinks []HyperlinkRecord `json:"hyperlinks,omitempty"`
}

// Translator walks a document and replaces the text of every paragraph.
// Paragraphs are translated one at a time in document order, so a
// Translator must not be shared between concurrent runs.
type Translator struct {
	engine   Engine
	opts     Options
	splitter *chunker.Splitter
	next     int
	report   *Report
}

// NewTranslator returns a Translator over engine.
func NewTranslator(engine Engine, opts Options) *Translator {
	if opts.HighlightColor == "" {
		opts.HighlightColor = DefaultHighlightColor
	}
	return &Translator{
		engine:   engine,
		opts:     opts,
		splitter: chunker.New(opts.Budget),
	}
}

// OutputPath names the translated copy of input.
func OutputPath(input, targetLang string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_translated_" + targetLang + ext
}

// NotesPath names the hyperlink notes written next to the translated copy.
func NotesPath(input, targetLang string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_translated_" + targetLang + "_notes.docx"
}

// TranslateFile translates input into output, auto-named when empty, and
// writes hyperlink notes when any hyperlink was removed.
func (t *Translator) TranslateFile(ctx context.Context, input, output string) (Report, error) {
	if output == "" {
		output = OutputPath(input, t.opts.TargetLang)
	}
	doc, err := Open(input)
	if err != nil {
		return Report{}, err
	}
	report, err := t.TranslateDocument(ctx, doc)
	if err != nil {
		return report, err
	}
	report.Input = input
	report.Output = output
	if err := doc.Save(output); err != nil {
		return report, err
	}
	if len(report.Hyperlinks) > 0 {
		report.NotesPath = NotesPath(input, t.opts.TargetLang)
		if err := WriteNotes(report.NotesPath, report.Hyperlinks); err != nil {
			return report, err
		}
	}
	log.Info().
		Str("input", input).
		Str("output", output).
		Int("paragraphs", report.Paragraphs).
		Int("hyperlinks", len(report.Hyperlinks)).
		Int("skipped_runs", report.Skipped).
		Msg("document translated")
	return report, nil
}

// TranslateDocument translates the body, then every header and footer part
// once, in place.
func (t *Translator) TranslateDocument(ctx context.Context, doc *Document) (Report, error) {
	t.next = 0
	t.report = &Report{}
	defer func() { t.report = nil }()

	body, err := doc.Body()
	if err != nil {
		return Report{}, err
	}
	rels, err := doc.Relationships(documentPart)
	if err != nil {
		return Report{}, err
	}
	if err := t.translateBlocks(ctx, body, rels); err != nil {
		return *t.report, err
	}

	refs, err := doc.HeaderFooterParts()
	if err != nil {
		return *t.report, err
	}
	for _, ref := range refs {
		part, err := doc.Part(ref.Name)
		if err != nil {
			log.Warn().Err(err).Str("part", ref.Name).Msg("skipping missing header/footer part")
			continue
		}
		partRels, err := doc.Relationships(ref.Name)
		if err != nil {
			return *t.report, err
		}
		if root := part.Root(); root != nil {
			if err := t.translateBlocks(ctx, root, partRels); err != nil {
				return *t.report, err
			}
		}
		t.report.Parts = append(t.report.Parts, ref.Name)
		log.Debug().Str("part", ref.Name).Str("kind", ref.Kind).Str("type", ref.Type).Msg("translated part")
	}
	return *t.report, nil
}

// translateBlocks walks block-level content: paragraphs, tables and
// content controls, recursing into table cells.
func (t *Translator) translateBlocks(ctx context.Context, parent *etree.Element, rels Relationships) error {
	for _, el := range parent.ChildElements() {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch {
		case isW(el, "p"):
			t.translateParagraph(ctx, el, rels)
		case isW(el, "tbl"):
			for _, row := range el.SelectElements("w:tr") {
				for _, cell := range row.SelectElements("w:tc") {
					if err := t.translateBlocks(ctx, cell, rels); err != nil {
						return err
					}
				}
			}
		case isW(el, "sdt"):
			if content := el.SelectElement("w:sdtContent"); content != nil {
				if err := t.translateBlocks(ctx, content, rels); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (t *Translator) translateParagraph(ctx context.Context, p *etree.Element, rels Relationships) {
	if n := SkippedRuns(p); n > 0 {
		t.count(func(r *Report) { r.Skipped += n })
		log.Debug().Int("runs", n).Msg("runs inside unsupported inline wrappers left untranslated")
	}
	runs := GetAllRuns(p)
	if strings.TrimSpace(JoinRunTexts(runs)) == "" {
		return
	}

	var links []Run
	for _, r := range runs {
		if r.IsHyperlink() {
			links = append(links, r)
		}
	}
	if len(links) > 0 {
		var records []HyperlinkRecord
		records, runs = ExtractHyperlinks(p, rels)
		t.recordLinks(records)
	}

	runs = MergeIdenticalRuns(runs)
	lead, core, trail := splitSpace(JoinRunTexts(runs))
	translated := t.translateText(ctx, core)
	t.count(func(r *Report) { r.Paragraphs++ })

	segs := BuildSegments(runs)
	if len(segs) <= 1 || !(HasFormattingDifferences(runs) || len(links) > 0) {
		writeUniform(runs, lead+translated+trail)
	} else {
		t.count(func(r *Report) { r.Mixed++ })
		fillSegments(segs, translated, lead, trail)
	}

	for _, r := range links {
		Highlight(r, t.opts.HighlightColor)
	}
}

// writeUniform puts text into the first run with visible text and blanks
// the others.
func writeUniform(runs []Run, text string) {
	written := false
	for _, r := range runs {
		if !written && strings.TrimSpace(r.Text()) != "" {
			r.SetText(text)
			written = true
			continue
		}
		if r.Text() != "" {
			r.SetText("")
		}
	}
}

// translateText translates text piece by piece between tabs and line
// breaks, which are kept as they are.
func (t *Translator) translateText(ctx context.Context, text string) string {
	parts := splitBreaks(text)
	for i := 0; i < len(parts); i += 2 {
		lead, core, trail := splitSpace(parts[i])
		parts[i] = lead + t.translateChunks(ctx, core) + trail
	}
	return strings.Join(parts, "")
}

// splitBreaks cuts text at runs of tabs and line breaks. Even indices hold
// text, odd indices the separators between them.
func splitBreaks(text string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(text); {
		if text[i] != '\t' && text[i] != '\n' {
			i++
			continue
		}
		j := i
		for j < len(text) && (text[j] == '\t' || text[j] == '\n') {
			j++
		}
		parts = append(parts, text[start:i], text[i:j])
		start, i = j, j
	}
	return append(parts, text[start:])
}

// translateChunks sends text through the engine chunk by chunk. A failed
// chunk contributes the engine's failure sentinel.
func (t *Translator) translateChunks(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	chunks := t.splitter.Split(text)
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		res := t.engine.Translate(ctx, orchestrator.Request{
			Text:       chunk,
			SourceLang: t.opts.SourceLang,
			TargetLang: t.opts.TargetLang,
			Index:      t.next,
			NoCache:    t.opts.NoCache,
		})
		t.next++
		t.count(func(r *Report) { r.Requests++ })
		if res.Failed() {
			t.count(func(r *Report) { r.Failures++ })
			log.Warn().Int("index", t.next-1).Str("error", res.Error).Msg("no valid translation for chunk")
		}
		out = append(out, res.TranslatedText)
	}
	return chunker.Join(out)
}

func (t *Translator) recordLinks(records []HyperlinkRecord) {
	t.count(func(r *Report) { r.Hyperlinks = append(r.Hyperlinks, records...) })
}

func (t *Translator) count(fn func(*Report)) {
	if t.report != nil {
		fn(t.report)
	}
}

// String is a one-line summary of the report.
func (r Report) String() string {
	s := fmt.Sprintf("%d paragraphs (%d mixed), %d requests, %d failures, %d hyperlinks",
		r.Paragraphs, r.Mixed, r.Requests, r.Failures, len(r.Hyperlinks))
	if r.Skipped > 0 {
		s += fmt.Sprintf(", %d runs skipped", r.Skipped)
	}
	return s
}
