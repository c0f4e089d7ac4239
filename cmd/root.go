package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ocrdoc/internal/config"
	"ocrdoc/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "ocrdoc",
	Short: "ocrdoc - recognize text in images and export it as txt, docx or pdf",
	Long: `ocrdoc extracts text from a batch of images with a selectable OCR engine
and combines the results into one plain text, Word or PDF document.

Images are processed one after another in the given order using the same
language selection. The layout of the exported document (continuous,
separated or numbered, separators, font size and line spacing) is the same
for every format.

Run it as a command-line tool with "ocrdoc ocr" or as an HTTP service with
"ocrdoc serve".`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("ocrdoc executed without subcommand")

		_ = cmd.Help()
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Debug().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment configuration for a subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
