// Package plaintext translates plain text files: paragraphs separated by
// blank lines, each split into budget-sized chunks.
package plaintext

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/valpere/termshield/internal/chunker"
	"github.com/valpere/termshield/internal/orchestrator"
)

// Engine translates one chunk.
type Engine interface {
	Translate(ctx context.Context, req orchestrator.Request) orchestrator.Result
}

// Comparer additionally exposes every backend's result.
type Comparer interface {
	TranslateAll(ctx context.Context, req orchestrator.Request) (orchestrator.Result, []orchestrator.Result)
}

type Options struct {
	SourceLang string
	TargetLang string
	Budget     int
	NoCache    bool
	// FirstIndex is the diagnostics index of the first chunk, for callers
	// that translate several texts as one run.
	FirstIndex int
	// Compare keeps each backend's result per chunk when the engine is a
	// Comparer.
	Compare bool
}

// Chunk is the record of one translated chunk.
type Chunk struct {
	Index    int                   `json:"idx"`
	Source   string                `json:"source"`
	Selected orchestrator.Result   `json:"selected"`
	All      []orchestrator.Result `json:"all,omitempty"`
}

type Report struct {
	Paragraphs int     `json:"paragraphs"`
	Requests   int     `json:"requests"`
	Failures   int     `json:"failures"`
	Chunks     []Chunk `json:"chunks"`
}

// Translate returns the translation of text with paragraphs joined by blank
// lines and chunks by single spaces. It stops early only when ctx ends.
func Translate(ctx context.Context, engine Engine, text string, opts Options) (string, Report, error) {
	splitter := chunker.New(opts.Budget)
	comparer, canCompare := engine.(Comparer)

	var (
		report Report
		out    []string
		idx    = opts.FirstIndex
	)
	for _, para := range splitter.Paragraphs(text) {
		report.Paragraphs++

		var translated []string
		for _, chunk := range splitter.Split(para) {
			if err := ctx.Err(); err != nil {
				return "", report, err
			}

			req := orchestrator.Request{
				Text:       chunk,
				SourceLang: opts.SourceLang,
				TargetLang: opts.TargetLang,
				Index:      idx,
				NoCache:    opts.NoCache,
			}
			idx++

			rec := Chunk{Index: req.Index, Source: chunk}
			if opts.Compare && canCompare {
				rec.Selected, rec.All = comparer.TranslateAll(ctx, req)
			} else {
				rec.Selected = engine.Translate(ctx, req)
			}

			report.Requests++
			if rec.Selected.Failed() {
				report.Failures++
			}
			log.Debug().Int("idx", req.Index).Str("backend", rec.Selected.SelectedBackend).Msg("chunk translated")

			report.Chunks = append(report.Chunks, rec)
			translated = append(translated, rec.Selected.TranslatedText)
		}
		out = append(out, chunker.Join(translated))
	}
	return strings.Join(out, "\n\n"), report, nil
}
