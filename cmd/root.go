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
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/termshield/internal/config"
)

var version = "0.1.0"

var (
	cfgFile string
	cfg     *config.Config
	vp      = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "termshield",
	Short: "Terminology-safe machine translation",
	Long: `termshield translates text and Word documents with one or more machine
translation backends while protecting catalog terminology behind placeholder
tokens, retrying backends that corrupt them, and keeping the formatting and
hyperlinks of every paragraph.

Settings come from termshield.yml, TERMSHIELD_* environment variables and flags.

Use "termshield document --help" for .docx translation.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(vp, cfgFile, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		return config.SetupLogging(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("termshield failed")
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", config.DefaultPath, "Config file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("catalog", "", "Terminology catalog JSON file")
	flags.String("store", "", "SQLite database for translation memory, jobs and diagnostics")
	flags.Bool("single-attempt", false, "Do not retry backends that corrupt placeholders")
	flags.Bool("detect-names", false, "Protect detected proper names")

	bindFlag("log_level", "log-level")
	bindFlag("catalog_path", "catalog")
	bindFlag("store_path", "store")
	bindFlag("single_attempt", "single-attempt")
	bindFlag("detect_names", "detect-names")
}

func bindFlag(key, flag string) {
	if err := vp.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}
