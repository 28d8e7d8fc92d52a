package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"propertylens_backend/internal/desk"
	"propertylens_backend/pkg/i18n"
	"propertylens_backend/pkg/logger"
)

var (
	serverURL    string
	storePath    string
	language     string
	outputFormat string
	token        string
	timeout      time.Duration
)

func main() {
	_ = godotenv.Load()

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "desk",
		Short: "Due-diligence desk for off-plan property documents",
		Long: `desk uploads property documents to the relay, keeps the extracted
properties and their risk assessments locally, and runs follow-up analyses.

Examples:
  # Add a property from its SPA and floor plan
  desk upload spa.pdf floorplan.pdf

  # Fix a field the extraction got wrong
  desk correct 1767225600000 "completion is Q2 2028"

  # Ask about the selected property in Russian
  desk ask "Is the payment plan typical for this developer?" --lang ru`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(envOr("LOG_LEVEL", "warn"), "text")
			if _, err := desk.ParseFormat(outputFormat); err != nil {
				return err
			}
			return nil
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&serverURL, "server", envOr("DESK_SERVER", "http://localhost:3001"), "Relay base URL")
	flags.StringVar(&storePath, "store", envOr("DESK_STORE", defaultStorePath()), "Path of the local property store")
	flags.StringVar(&language, "lang", envOr("DESK_LANG", i18n.DefaultLanguage), "Reply language (en, ru, de, ...)")
	flags.StringVarP(&outputFormat, "output", "o", "human", "Output format (human, json, yaml)")
	flags.StringVar(&token, "token", os.Getenv("DESK_TOKEN"), "Bearer token from `desk login`")
	flags.DurationVar(&timeout, "timeout", 3*time.Minute, "Timeout for each relay call")

	rootCmd.AddCommand(
		newUploadCmd(),
		newImportTextCmd(),
		newListCmd(),
		newShowCmd(),
		newAssessCmd(),
		newCorrectCmd(),
		newAnalyzeCmd(),
		newAskCmd(),
		newDeleteCmd(),
		newSelectCmd(),
		newRegisterCmd(),
		newLoginCmd(),
		newMeCmd(),
		newHealthCmd(),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "propertylens.json"
	}
	return filepath.Join(home, ".propertylens", "store.json")
}
