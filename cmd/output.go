package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emrgen/ingest/internal/server"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// printOutput writes v as json or yaml. It returns false for the table format.
func printOutput(format string, v any) (bool, error) {
	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, err
		}
		fmt.Println(string(data))
		return true, nil
	case outputYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return true, err
		}
		fmt.Print(string(data))
		return true, nil
	case outputTable, "":
		return false, nil
	}

	return true, fmt.Errorf("unknown output format %q", format)
}

func printRecords(records []server.RecordView) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Kind", "Uploader", "Uploaded", "Version", "Version Of"})
	for _, r := range records {
		table.Append([]string{
			r.ID,
			r.Name,
			r.Kind.String(),
			r.Uploader,
			r.UploadedAt.Local().Format(time.DateTime),
			strconv.FormatInt(r.Version, 10),
			r.VersionOf,
		})
	}
	table.Render()
}

func printRecord(r *server.RecordView, withContent bool) {
	printField("ID", r.ID)
	printField("Name", r.Name)
	printField("Kind", r.Kind.String())
	printField("Uploader", r.Uploader)
	printField("Uploaded", r.UploadedAt.Local().Format(time.DateTime))
	printField("Version", strconv.FormatInt(r.Version, 10))
	if r.VersionOf != "" {
		printField("Version of", r.VersionOf)
	}
	if withContent {
		printField("Content", "\n"+r.Content)
	}
}

func printFileResults(results []server.FileResult) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Accepted", "ID", "Error"})
	for _, r := range results {
		id := ""
		if r.Record != nil {
			id = r.Record.ID
		}
		table.Append([]string{r.Name, strconv.FormatBool(r.Accepted), id, r.Error})
	}
	table.Render()
}

func printField(label, value string) {
	color.Set(color.FgCyan)
	fmt.Print(label)
	color.Unset()
	fmt.Printf(": %s\n", value)
}

// checkMissingFlags checks if the required flags are set and returns ok if they are set
func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if !cmd.Flag(required).Changed {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Green("provide: %s\n", provided)
		}

		cmd.Println("")
		_ = cmd.Usage()

		return true
	}

	return false
}
