package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "content library ingestion tool",
	Example: `ingest serve
ingest validate -k lesson -f lesson.json
ingest normalize -k itemList quiz1.json quiz2.json
ingest sample -k activity
ingest records list -k lesson
ingest records upload -k lesson -u <uploader> lesson.json
ingest records version -i <record-id> -f lesson.json
ingest records edit -i <record-id> --set title="New title" --new-version
ingest records preview -i <record-id>`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(contextCommand)
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(normalizeCmd())
	rootCmd.AddCommand(sampleCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(fieldsCmd())
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(healthCmd())
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
