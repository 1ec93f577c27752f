/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/termshield/internal/detector"
	"github.com/valpere/termshield/internal/plaintext"
)

var (
	csvInputFile  string
	csvOutputFile string
	csvSourceLang string
	csvTargetLang string
	csvColumns    []int
	csvHeader     int
	csvBackends   []string
	csvNoCache    bool
	csvDiagFile   string
)

var csvCmd = &cobra.Command{
	Use:   "csv",
	Short: "Translate columns of a CSV file",
	Long: `Translate one or more columns in a CSV file.

By default all columns are translated. Use -l to select specific columns
(0-indexed). The flag may be repeated to select multiple columns. Header rows
(--header, default 1) are copied untouched.

Example:
  termshield csv -i terms.csv -o terms_en.csv -t en -l 1 -l 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if csvInputFile == csvOutputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		f, err := os.Open(csvInputFile)
		if err != nil {
			return fmt.Errorf("failed to open input CSV: %w", err)
		}
		reader := csv.NewReader(f)
		reader.FieldsPerRecord = -1
		records, err := reader.ReadAll()
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to read CSV: %w", err)
		}
		if len(records) == 0 {
			return fmt.Errorf("CSV file is empty")
		}

		ctx := cmd.Context()

		src := csvSourceLang
		if src == "" || src == "auto" {
			src = detector.New().ResolveSource(sampleRecords(records, csvColumns, csvHeader), src, "en")
		}
		tgt := csvTargetLang
		if tgt == "" {
			tgt = detector.Counterpart(src)
		}

		engine, cleanup, err := buildEngine(ctx, cfg, csvBackends)
		if err != nil {
			return err
		}
		defer cleanup()

		out, report, err := plaintext.TranslateRecords(ctx, engine, records, csvColumns, csvHeader, plaintext.Options{
			SourceLang: src,
			TargetLang: tgt,
			Budget:     cfg.ChunkSize,
			NoCache:    csvNoCache,
		})
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(csvOutputFile), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		of, err := os.Create(csvOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output CSV: %w", err)
		}
		defer of.Close()

		w := csv.NewWriter(of)
		if err := w.WriteAll(out); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}

		if csvDiagFile != "" {
			if _, err := engine.Diagnostics().WriteJSON(csvDiagFile); err != nil {
				return err
			}
		}

		fmt.Printf("Translated %s to %s: %d cells, %d chunks, %d failed\n",
			src, tgt, report.Paragraphs, report.Requests, report.Failures)
		return nil
	},
}

// sampleRecords joins the cells that will be translated, for language
// detection.
func sampleRecords(records [][]string, columns []int, header int) string {
	var b strings.Builder
	for i, rec := range records {
		if i < header {
			continue
		}
		for col, cell := range rec {
			if len(columns) > 0 && !slices.Contains(columns, col) {
				continue
			}
			b.WriteString(cell)
			b.WriteByte('\n')
		}
		if b.Len() > 2000 {
			break
		}
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(csvCmd)

	csvCmd.Flags().StringVarP(&csvInputFile, "input", "i", "", "Input CSV file (required)")
	csvCmd.Flags().StringVarP(&csvOutputFile, "output", "o", "", "Output CSV file (required)")
	csvCmd.Flags().StringVarP(&csvSourceLang, "source", "s", "auto", "Source language code")
	csvCmd.Flags().StringVarP(&csvTargetLang, "target", "t", "", "Target language code (default: the other of en/fr)")
	csvCmd.Flags().IntSliceVarP(&csvColumns, "column", "l", nil, "Column to translate, 0-indexed (repeatable; default all)")
	csvCmd.Flags().IntVar(&csvHeader, "header", 1, "Number of header rows to copy untouched")
	csvCmd.Flags().StringSliceVar(&csvBackends, "backends", nil, "Configured backends to use (default: all)")
	csvCmd.Flags().BoolVar(&csvNoCache, "no-cache", false, "Bypass the result cache")
	csvCmd.Flags().StringVar(&csvDiagFile, "diagnostics", "", "Write diagnostics JSON when any were recorded")

	csvCmd.MarkFlagRequired("input")
	csvCmd.MarkFlagRequired("output")
}
