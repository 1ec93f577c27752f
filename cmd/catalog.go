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
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/termshield/internal/terminology"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the terminology catalog",
	Long: `List the terms of the configured catalog and preview how text is
protected before it is sent to a backend.

The catalog is a JSON file mapping categories (nomenclature, taxon, acronym,
site, name) to source terms and their translations.`,
}

var catalogCategory string

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		var filter terminology.Category
		if catalogCategory != "" {
			if filter, err = terminology.ParseCategory(catalogCategory); err != nil {
				return err
			}
		}

		entries := cat.Entries()
		if len(entries) == 0 {
			fmt.Println("Catalog is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "CATEGORY\tSOURCE (%s)\tTARGET\tGENDER\tARTICLES\n", cat.NativeLanguage)
		for _, e := range entries {
			if filter != "" && e.Category != filter {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.Category, e.SourceTerm, e.TargetTerm, e.Gender, strings.Join(e.Articles, ","))
		}
		return w.Flush()
	},
}

var catalogCheckLang string

var catalogCheckCmd = &cobra.Command{
	Use:   "check <text>",
	Short: "Show the placeholder tokens a text would be sent with",
	Long: `Replace catalog terms (and detected names, with --detect-names) in the
given text by placeholder tokens and print the protected text and the token
mapping.

Example:
  termshield catalog check "Le Ministère des Forêts publie le rapport." --lang fr`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		codec, err := buildCodec(cfg)
		if err != nil {
			return err
		}

		protected, mapping := codec.Preprocess(strings.Join(args, " "), catalogCheckLang)
		fmt.Println(protected)
		if len(mapping) == 0 {
			fmt.Println("No terms protected.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TOKEN\tCATEGORY\tORIGINAL\tRESTORED AS")
		for _, m := range mapping {
			restored := m.OriginalText
			if m.ShouldTranslate && m.Translation != "" {
				restored = m.Translation
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Token, m.Category, m.OriginalText, restored)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogListCmd.Flags().StringVar(&catalogCategory, "category", "", "Only list this category")
	catalogCheckCmd.Flags().StringVar(&catalogCheckLang, "lang", "fr", "Language of the text")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogCheckCmd)
}
