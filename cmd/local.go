package cmd

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/emrgen/ingest/internal/content"
	"github.com/emrgen/ingest/internal/editor"
	"github.com/emrgen/ingest/internal/intake"
	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/preview"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// The commands in this file work on local files and need no server.

func validateCmd() *cobra.Command {
	var kindName string
	var file string

	var required = []string{"kind", "file"}

	command := &cobra.Command{
		Use:     "validate",
		Short:   "validate a document against a content kind",
		Example: "ingest validate -k lesson -f lesson.json",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			kind, err := model.ParseKind(kindName)
			if err != nil {
				logrus.Error(err)
				return
			}

			data, err := os.ReadFile(file)
			if err != nil {
				logrus.Error(err)
				return
			}

			res := content.Validate(data, kind)
			if !res.Valid {
				color.Red("invalid %s: %s", kind, res.Reason)
				return
			}
			color.Green("valid %s", kind)
		},
	}

	command.Flags().StringVarP(&kindName, "kind", "k", "", "content kind (required)")
	command.Flags().StringVarP(&file, "file", "f", "", "document file (required)")

	command.Flags().SortFlags = false

	return command
}

// localFile reads a file the way the upload surface hands it over.
func localFile(path string) (intake.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return intake.File{}, err
	}

	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	return intake.File{Name: filepath.Base(path), MediaType: mediaType, Data: data}, nil
}

func normalizeCmd() *cobra.Command {
	var kindName string

	command := &cobra.Command{
		Use:     "normalize [files...]",
		Short:   "normalize and validate a batch of files without uploading them",
		Example: "ingest normalize -k itemList quiz1.json quiz2.json notes.txt",
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			kind, err := parseKindFlag(kindName)
			if err != nil {
				logrus.Error(err)
				return
			}

			files := make([]intake.File, 0, len(args))
			for _, path := range args {
				f, err := localFile(path)
				if err != nil {
					logrus.Error(err)
					return
				}
				files = append(files, f)
			}

			results, err := intake.Normalize(files)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Name", "JSON", "Valid", "Reason"})
			for _, res := range results {
				reason := ""
				valid := res.Valid
				if res.Err != nil {
					reason = res.Err.Error()
				} else if kind != "" {
					v := content.Validate([]byte(res.Content), kind)
					valid, reason = v.Valid, v.Reason
				}
				table.Append([]string{res.Name, strconv.FormatBool(res.Valid), strconv.FormatBool(valid), reason})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&kindName, "kind", "k", "", "content kind to validate against")

	return command
}

func sampleCmd() *cobra.Command {
	var kindName string

	var required = []string{"kind"}

	command := &cobra.Command{
		Use:     "sample",
		Short:   "print the sample document of a content kind",
		Example: "ingest sample -k lesson > lesson.json",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			kind, err := model.ParseKind(kindName)
			if err != nil {
				logrus.Error(err)
				return
			}

			sample, err := content.Sample(kind)
			if err != nil {
				logrus.Error(err)
				return
			}
			fmt.Println(sample)
		},
	}

	command.Flags().StringVarP(&kindName, "kind", "k", "", "content kind (required)")

	return command
}

func renderCmd() *cobra.Command {
	var file string

	var required = []string{"file"}

	command := &cobra.Command{
		Use:     "render",
		Short:   "render a document file as its preview",
		Example: "ingest render -f lesson.json",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			data, err := os.ReadFile(file)
			if err != nil {
				logrus.Error(err)
				return
			}

			view, err := preview.Render(string(data))
			if err != nil {
				color.Red("Error: %v", err)
				return
			}
			fmt.Print(view.String())
		},
	}

	command.Flags().StringVarP(&file, "file", "f", "", "document file (required)")

	return command
}

func fieldsCmd() *cobra.Command {
	var kindName string
	var file string
	var sets []string

	var required = []string{"kind", "file"}

	command := &cobra.Command{
		Use:   "fields",
		Short: "show the editable fields of a document, optionally applying edits",
		Example: `ingest fields -k lesson -f lesson.json
ingest fields -k lesson -f lesson.json --set title=Light > edited.json`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			kind, err := model.ParseKind(kindName)
			if err != nil {
				logrus.Error(err)
				return
			}

			edits, err := parseEdits(sets)
			if err != nil {
				logrus.Error(err)
				return
			}

			data, err := os.ReadFile(file)
			if err != nil {
				logrus.Error(err)
				return
			}

			session := editor.NewSession(kind)
			if err := session.Load(string(data)); err != nil {
				color.Red("Error: %v", err)
				return
			}

			if len(edits) == 0 {
				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"Path", "Label", "Value"})
				for _, f := range session.Fields() {
					table.Append([]string{f.Path, f.Label, f.Value})
				}
				table.Render()
				return
			}

			for _, e := range edits {
				if err := session.Apply(e.Path, e.Value); err != nil {
					logrus.Error(err)
					return
				}
			}

			text, err := session.Text()
			if err != nil {
				logrus.Error(err)
				return
			}
			fmt.Println(text)
		},
	}

	command.Flags().StringVarP(&kindName, "kind", "k", "", "content kind (required)")
	command.Flags().StringVarP(&file, "file", "f", "", "document file (required)")
	command.Flags().StringArrayVarP(&sets, "set", "s", nil, "field edit as path=value, repeatable")

	command.Flags().SortFlags = false

	return command
}
