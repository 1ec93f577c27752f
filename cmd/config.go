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

	"github.com/spf13/cobra"

	"github.com/valpere/termshield/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteTemplate(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if used := vp.ConfigFileUsed(); used != "" {
			if _, err := os.Stat(used); err == nil {
				fmt.Printf("# %s\n", used)
			}
		}
		fmt.Printf("log_level:         %s\n", cfg.LogLevel)
		fmt.Printf("catalog_path:      %s\n", cfg.CatalogPath)
		fmt.Printf("catalog_language:  %s\n", cfg.CatalogLanguage)
		fmt.Printf("detect_names:      %v\n", cfg.DetectNames)
		fmt.Printf("use_find_replace:  %v\n", cfg.UseFindReplace)
		fmt.Printf("single_attempt:    %v\n", cfg.SingleAttempt)
		fmt.Printf("validate_language: %v\n", cfg.ValidateLanguage)
		fmt.Printf("chunk_size:        %d\n", cfg.ChunkSize)
		fmt.Printf("store_path:        %s\n", cfg.StorePath)
		fmt.Printf("cache:             %s\n", cfg.Cache.Kind)
		for _, b := range cfg.Backends {
			fmt.Printf("backend:           %s (%s %s)\n", b.Name, b.Kind, b.Model)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
