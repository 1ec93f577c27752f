package plaintext

import (
	"context"
	"fmt"
)

// TranslateRecords translates the given columns of every record after the
// first header rows, in row order. An empty columns list selects every
// column. Blank cells are copied as they are.
func TranslateRecords(ctx context.Context, engine Engine, records [][]string, columns []int, header int, opts Options) ([][]string, Report, error) {
	selected := make(map[int]bool, len(columns))
	for _, c := range columns {
		if c < 0 {
			return nil, Report{}, fmt.Errorf("invalid column %d", c)
		}
		selected[c] = true
	}

	var report Report
	out := make([][]string, len(records))
	for i, rec := range records {
		row := append([]string(nil), rec...)
		out[i] = row
		if i < header {
			continue
		}
		for col, cell := range rec {
			if len(selected) > 0 && !selected[col] {
				continue
			}
			if cell == "" {
				continue
			}

			cellOpts := opts
			cellOpts.FirstIndex = opts.FirstIndex + report.Requests
			translated, r, err := Translate(ctx, engine, cell, cellOpts)
			report.Paragraphs += r.Paragraphs
			report.Requests += r.Requests
			report.Failures += r.Failures
			report.Chunks = append(report.Chunks, r.Chunks...)
			if err != nil {
				return out, report, fmt.Errorf("row %d, column %d: %w", i, col, err)
			}
			row[col] = translated
		}
	}
	return out, report, nil
}
