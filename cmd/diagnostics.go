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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/termshield/internal/store"
)

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Inspect recorded document jobs and their diagnostics",
}

var jobsLimit int

var diagnosticsJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent document jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		jobs, err := db.ListJobs(cmd.Context(), jobsLimit)
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}
		if len(jobs) == 0 {
			fmt.Println("No jobs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tLANGS\tPARAGRAPHS\tLINKS\tFAILED\tCREATED\tINPUT")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s>%s\t%d\t%d\t%d\t%s\t%s\n",
				j.ID, j.Status, j.SourceLang, j.TargetLang,
				j.Paragraphs, j.Hyperlinks, j.Failures,
				j.CreatedAt.Format("2006-01-02 15:04"), j.InputFile)
		}
		return w.Flush()
	},
}

var diagnosticsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Print the diagnostics of a job as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		job, err := db.GetJob(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("job %s not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to load job: %w", err)
		}

		snap, err := db.LoadDiagnostics(cmd.Context(), job.ID)
		if err != nil {
			return fmt.Errorf("failed to load diagnostics: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	rootCmd.AddCommand(diagnosticsCmd)

	diagnosticsJobsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "Maximum number of jobs to list")

	diagnosticsCmd.AddCommand(diagnosticsJobsCmd)
	diagnosticsCmd.AddCommand(diagnosticsShowCmd)
}
