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
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/valpere/termshield/internal/detector"
	"github.com/valpere/termshield/internal/docx"
	"github.com/valpere/termshield/internal/store"
)

var (
	docOutput     string
	docSourceLang string
	docTargetLang string
	docBackends   []string
	docNoCache    bool
	docHighlight  string
	docDiagFile   string
	docReportFile string
)

var documentCmd = &cobra.Command{
	Use:   "document <file.docx>",
	Short: "Translate a Word document in place",
	Long: `Translate every paragraph of a .docx file, including tables, headers and
footers, keeping run formatting.

Hyperlinks are removed and their text highlighted; each removed link is listed
in a notes document written next to the input. Without --output the result is
named <name>_translated_<target>.docx.

When a database is configured the run is recorded as a job together with its
diagnostics (see "termshield diagnostics").`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		ctx := cmd.Context()

		src := docSourceLang
		if src == "" || src == "auto" {
			src = detectDocumentLanguage(input)
		}
		tgt := docTargetLang
		if tgt == "" {
			tgt = detector.Counterpart(src)
		}
		output := docOutput
		if output == "" {
			output = docx.OutputPath(input, tgt)
		}
		if output == input {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		var jobID string
		if db != nil {
			defer db.Close()
			if jobID, err = db.CreateJob(ctx, input, output, src, tgt); err != nil {
				log.Warn().Err(err).Msg("failed to record job")
			}
		}

		engine, cleanup, err := buildEngine(ctx, cfg, docBackends)
		if err != nil {
			finishJob(ctx, db, jobID, docx.Report{}, err)
			return err
		}
		defer cleanup()

		highlight := docHighlight
		if highlight == "" {
			highlight = cfg.HighlightColor
		}
		tr := docx.NewTranslator(engine, docx.Options{
			SourceLang:     src,
			TargetLang:     tgt,
			HighlightColor: highlight,
			Budget:         cfg.ChunkSize,
			NoCache:        docNoCache,
		})

		report, runErr := tr.TranslateFile(ctx, input, output)
		finishJob(ctx, db, jobID, report, runErr)
		if db != nil && jobID != "" && !engine.Diagnostics().Empty() {
			if err := db.SaveDiagnostics(context.WithoutCancel(ctx), jobID, engine.Diagnostics().Snapshot()); err != nil {
				log.Warn().Err(err).Str("job", jobID).Msg("failed to save diagnostics")
			}
		}
		if runErr != nil {
			return runErr
		}

		if docDiagFile != "" {
			if _, err := engine.Diagnostics().WriteJSON(docDiagFile); err != nil {
				return err
			}
		}
		if docReportFile != "" {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode report: %w", err)
			}
			if err := os.WriteFile(docReportFile, data, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		}

		fmt.Println(report.String())
		if jobID != "" {
			fmt.Printf("Job: %s\n", jobID)
		}
		return nil
	},
}

// detectDocumentLanguage guesses the source language from the first body
// paragraphs, falling back to English.
func detectDocumentLanguage(input string) string {
	const fallback = "en"
	doc, err := docx.Open(input)
	if err != nil {
		return fallback
	}
	sample, err := doc.BodyText(2000)
	if err != nil {
		return fallback
	}
	lang := detector.New().ResolveSource(sample, "auto", fallback)
	log.Info().Str("lang", lang).Msg("detected source language")
	return lang
}

func finishJob(ctx context.Context, db *store.Store, jobID string, report docx.Report, runErr error) {
	if db == nil || jobID == "" {
		return
	}
	err := db.FinishJob(context.WithoutCancel(ctx), jobID, store.JobResult{
		NotesFile:  report.NotesPath,
		Paragraphs: report.Paragraphs,
		Hyperlinks: len(report.Hyperlinks),
		Failures:   report.Failures,
		Err:        runErr,
	})
	if err != nil {
		log.Warn().Err(err).Str("job", jobID).Msg("failed to finish job")
	}
}

func init() {
	rootCmd.AddCommand(documentCmd)

	documentCmd.Flags().StringVarP(&docOutput, "output", "o", "", "Output .docx (default: <name>_translated_<target>.docx)")
	documentCmd.Flags().StringVarP(&docSourceLang, "source", "s", "auto", "Source language code")
	documentCmd.Flags().StringVarP(&docTargetLang, "target", "t", "", "Target language code (default: the other of en/fr)")
	documentCmd.Flags().StringSliceVar(&docBackends, "backends", nil, "Configured backends to use (default: all)")
	documentCmd.Flags().BoolVar(&docNoCache, "no-cache", false, "Bypass the result cache")
	documentCmd.Flags().StringVar(&docHighlight, "highlight", "", "Highlight color for former hyperlink text (default: config highlight_color)")
	documentCmd.Flags().StringVar(&docDiagFile, "diagnostics", "", "Write diagnostics JSON when any were recorded")
	documentCmd.Flags().StringVar(&docReportFile, "report", "", "Write the run report as JSON")
}
