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
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/valpere/termshield/internal/detector"
	"github.com/valpere/termshield/internal/markdown"
	"github.com/valpere/termshield/internal/plaintext"
	"github.com/valpere/termshield/internal/store"
)

var (
	inputFile  string
	outputFile string
	sourceLang string
	targetLang string

	backendNames []string
	noCache      bool
	fuzzyMatch   float64
	compare      bool
	reportFile   string
	diagFile     string
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a text or markdown file",
	Long: `Translate a plain text or markdown file through every configured backend
and keep the best result per chunk.

Paragraphs are separated by blank lines. Markdown input (.md) is reduced to
plain text first. Catalog terms are replaced by placeholder tokens before each
backend call and restored afterwards.

When no target is given the other language of the en/fr pair is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		raw, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		text := string(raw)
		switch strings.ToLower(filepath.Ext(inputFile)) {
		case ".md", ".markdown":
			text = markdown.ToPlainText(raw)
		}

		ctx := cmd.Context()

		src := detector.New().ResolveSource(text, sourceLang, "en")
		if sourceLang == "" || sourceLang == "auto" {
			log.Info().Str("lang", src).Msg("detected source language")
		}
		tgt := targetLang
		if tgt == "" {
			tgt = detector.Counterpart(src)
		}

		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		if db != nil && !noCache {
			if cached, ok := lookupMemory(ctx, db, text, src, tgt); ok {
				if err := writeOutput(outputFile, cached); err != nil {
					return err
				}
				fmt.Printf("Translated %s to %s (from translation memory)\n", src, tgt)
				return nil
			}
		}

		engine, cleanup, err := buildEngine(ctx, cfg, backendNames)
		if err != nil {
			return err
		}
		defer cleanup()

		translated, report, err := plaintext.Translate(ctx, engine, text, plaintext.Options{
			SourceLang: src,
			TargetLang: tgt,
			Budget:     cfg.ChunkSize,
			NoCache:    noCache,
			Compare:    compare,
		})
		if err != nil {
			return err
		}

		if err := writeOutput(outputFile, translated); err != nil {
			return err
		}

		if reportFile != "" {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode report: %w", err)
			}
			if err := os.WriteFile(reportFile, data, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		}

		if diagFile != "" {
			written, err := engine.Diagnostics().WriteJSON(diagFile)
			if err != nil {
				return err
			}
			if written {
				log.Info().Str("path", diagFile).Msg("diagnostics written")
			}
		}

		if db != nil && !noCache && report.Failures == 0 {
			err := db.Remember(ctx, store.MemoryEntry{
				SourceText: text,
				SourceLang: src,
				TargetLang: tgt,
				FinalText:  translated,
				Backend:    strings.Join(engine.Backends(), ","),
			})
			if err != nil {
				log.Warn().Err(err).Msg("failed to save translation memory")
			}
		}

		summary := engine.Diagnostics().Summary()
		fmt.Printf("Translated %s to %s: %d paragraphs, %d chunks, %d failed\n",
			src, tgt, report.Paragraphs, report.Requests, report.Failures)
		fmt.Printf("Diagnostics: %d find/replace, %d extra token, %d retry\n",
			summary.FindReplaceErrors, summary.ExtraTokenErrors, summary.RetryDebug)
		return nil
	},
}

// lookupMemory tries an exact translation memory hit, then a fuzzy one when
// --fuzzy is set.
func lookupMemory(ctx context.Context, db *store.Store, text, src, tgt string) (string, bool) {
	cached, ok, err := db.Lookup(ctx, text, src, tgt)
	if err != nil {
		log.Warn().Err(err).Msg("translation memory lookup failed")
		return "", false
	}
	if ok || fuzzyMatch <= 0 {
		return cached, ok
	}
	cached, ok, err = db.FuzzyLookup(ctx, text, src, tgt, fuzzyMatch)
	if err != nil {
		log.Warn().Err(err).Msg("fuzzy translation memory lookup failed")
		return "", false
	}
	return cached, ok
}

func writeOutput(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file to translate (required)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for translation (required)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language code")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code (default: the other of en/fr)")

	translateCmd.Flags().StringSliceVar(&backendNames, "backends", nil, "Configured backends to use (default: all)")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the result cache and translation memory")
	translateCmd.Flags().Float64Var(&fuzzyMatch, "fuzzy", 0, "Accept translation memory entries at least this similar (0-1)")
	translateCmd.Flags().BoolVar(&compare, "compare", false, "Keep every backend's result in the report")
	translateCmd.Flags().StringVar(&reportFile, "report", "", "Write a JSON report of every chunk")
	translateCmd.Flags().StringVar(&diagFile, "diagnostics", "", "Write diagnostics JSON when any were recorded")

	translateCmd.MarkFlagRequired("input")
	translateCmd.MarkFlagRequired("output")
}
