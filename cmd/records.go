package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/server"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "library record commands",
}

func init() {
	recordsCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	recordsCmd.AddCommand(listRecordsCmd())
	recordsCmd.AddCommand(getRecordCmd())
	recordsCmd.AddCommand(uploadRecordsCmd())
	recordsCmd.AddCommand(saveVersionCmd())
	recordsCmd.AddCommand(listVersionsCmd())
	recordsCmd.AddCommand(editRecordCmd())
	recordsCmd.AddCommand(previewRecordCmd())
}

// parseKindFlag returns the kind named by a flag value; an empty value is no kind.
func parseKindFlag(name string) (model.Kind, error) {
	if name == "" {
		return "", nil
	}

	return model.ParseKind(name)
}

func listRecordsCmd() *cobra.Command {
	var kindName string
	var output string

	command := &cobra.Command{
		Use:     "list",
		Short:   "list library records",
		Example: "ingest records list -k lesson",
		Run: func(cmd *cobra.Command, args []string) {
			kind, err := parseKindFlag(kindName)
			if err != nil {
				logrus.Error(err)
				return
			}

			client, err := newClient()
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			records, err := client.ListRecords(context.Background(), kind)
			if err != nil {
				logrus.Error(err)
				return
			}

			if done, err := printOutput(output, records); done {
				if err != nil {
					logrus.Error(err)
				}
				return
			}
			printRecords(records)
		},
	}

	command.Flags().StringVarP(&kindName, "kind", "k", "", "content kind: itemList, activity or lesson")
	command.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")

	command.Flags().SortFlags = false

	return command
}

func getRecordCmd() *cobra.Command {
	var id string
	var output string

	var required = []string{"id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a library record",
		Example: "ingest records get -i <record-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, err := newClient()
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			record, err := client.GetRecord(context.Background(), id)
			if err != nil {
				logrus.Error(err)
				return
			}

			if done, err := printOutput(output, record); done {
				if err != nil {
					logrus.Error(err)
				}
				return
			}
			printRecord(record, true)
		},
	}

	command.Flags().StringVarP(&id, "id", "i", "", "record id (required)")
	command.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")

	command.Flags().SortFlags = false

	return command
}

func uploadRecordsCmd() *cobra.Command {
	var kindName string
	var uploader string
	var name string

	var required = []string{"kind"}

	command := &cobra.Command{
		Use:   "upload [files...]",
		Short: "upload documents to the library",
		Long: `upload documents to the library. With --name a single file is uploaded as a
manually entered document; otherwise every file is part of one bulk upload.`,
		Example: `ingest records upload -k itemList quiz1.json quiz2.json
ingest records upload -k lesson -n "Photosynthesis" -u Ada lesson.json`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			kind, err := model.ParseKind(kindName)
			if err != nil {
				logrus.Error(err)
				return
			}

			client, err := newClient()
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			if name != "" {
				if len(args) != 1 {
					color.Red("--name uploads exactly one file")
					return
				}
				data, err := os.ReadFile(args[0])
				if err != nil {
					logrus.Error(err)
					return
				}

				record, err := client.Upload(context.Background(), server.UploadRequest{
					Name:     name,
					Uploader: uploader,
					Kind:     kind,
					Content:  string(data),
				})
				if err != nil {
					logrus.Error(err)
					return
				}

				logrus.Infof("record uploaded with id: %s", record.ID)
				return
			}

			results, err := client.UploadFiles(context.Background(), kind, uploader, args)
			if err != nil {
				logrus.Error(err)
				return
			}
			printFileResults(results)
		},
	}

	command.Flags().StringVarP(&kindName, "kind", "k", "", "content kind (required)")
	command.Flags().StringVarP(&uploader, "uploader", "u", "", "uploader name")
	command.Flags().StringVarP(&name, "name", "n", "", "record name, for a single manual upload")

	command.Flags().SortFlags = false

	return command
}

func saveVersionCmd() *cobra.Command {
	var id string
	var file string
	var kindName string
	var uploader string

	var required = []string{"id", "file"}

	command := &cobra.Command{
		Use:     "version",
		Short:   "save a new version of a record",
		Example: "ingest records version -i <record-id> -f lesson.json",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			kind, err := parseKindFlag(kindName)
			if err != nil {
				logrus.Error(err)
				return
			}

			data, err := os.ReadFile(file)
			if err != nil {
				logrus.Error(err)
				return
			}

			client, err := newClient()
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			record, err := client.SaveVersion(context.Background(), id, server.SaveVersionRequest{
				Content:  string(data),
				Kind:     kind,
				Uploader: uploader,
			})
			if err != nil {
				logrus.Error(err)
				return
			}

			printRecord(record, false)
		},
	}

	command.Flags().StringVarP(&id, "id", "i", "", "id of the record to version (required)")
	command.Flags().StringVarP(&file, "file", "f", "", "file with the new content (required)")
	command.Flags().StringVarP(&kindName, "kind", "k", "", "content kind, defaults to the record's kind")
	command.Flags().StringVarP(&uploader, "uploader", "u", "", "uploader name")

	command.Flags().SortFlags = false

	return command
}

func listVersionsCmd() *cobra.Command {
	var id string

	var required = []string{"id"}

	command := &cobra.Command{
		Use:     "versions",
		Short:   "list every version of a record",
		Example: "ingest records versions -i <record-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, err := newClient()
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			records, err := client.ListVersions(context.Background(), id)
			if err != nil {
				logrus.Error(err)
				return
			}
			printRecords(records)
		},
	}

	command.Flags().StringVarP(&id, "id", "i", "", "record id (required)")

	return command
}

// parseEdits reads path=value pairs.
func parseEdits(pairs []string) ([]server.Edit, error) {
	edits := make([]server.Edit, 0, len(pairs))
	for _, pair := range pairs {
		path, value, ok := strings.Cut(pair, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid edit %q, expected path=value", pair)
		}
		edits = append(edits, server.Edit{Path: path, Value: value})
	}

	return edits, nil
}

func editRecordCmd() *cobra.Command {
	var id string
	var sets []string
	var newVersion bool
	var uploader string

	var required = []string{"id", "set"}

	command := &cobra.Command{
		Use:   "edit",
		Short: "edit fields of a record and save the result",
		Example: `ingest records edit -i <record-id> --set title="Light" --set "learningObjectives[0]=Explain" --new-version
ingest records edit -i <record-id> --set "items[1].answer=4"`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			edits, err := parseEdits(sets)
			if err != nil {
				logrus.Error(err)
				return
			}

			client, err := newClient()
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			record, err := client.Edit(context.Background(), id, server.EditRequest{
				Edits:      edits,
				NewVersion: newVersion,
				Uploader:   uploader,
			})
			if err != nil {
				logrus.Error(err)
				return
			}

			printRecord(record, true)
		},
	}

	command.Flags().StringVarP(&id, "id", "i", "", "record id (required)")
	command.Flags().StringArrayVarP(&sets, "set", "s", nil, "field edit as path=value, repeatable (required)")
	command.Flags().BoolVar(&newVersion, "new-version", false, "save as the next version of the record")
	command.Flags().StringVarP(&uploader, "uploader", "u", "", "uploader name")

	command.Flags().SortFlags = false

	return command
}

func previewRecordCmd() *cobra.Command {
	var id string
	var file string

	command := &cobra.Command{
		Use:     "preview",
		Short:   "render a record or a file through the server preview",
		Example: "ingest records preview -i <record-id>",
		Run: func(cmd *cobra.Command, args []string) {
			req := server.PreviewRequest{RecordID: id}
			if id == "" {
				if file == "" {
					color.Red("missing: --id or --file")
					return
				}
				data, err := os.ReadFile(file)
				if err != nil {
					logrus.Error(err)
					return
				}
				req.Content = string(data)
			}

			client, err := newClient()
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			token, err := client.OpenPreview(context.Background(), req)
			if err != nil {
				logrus.Error(err)
				return
			}

			res, err := client.TakePreview(context.Background(), token)
			if err != nil {
				logrus.Error(err)
				return
			}

			if res.Error != "" {
				color.Red("Error: %s", res.Error)
				return
			}
			fmt.Print(res.View.String())
		},
	}

	command.Flags().StringVarP(&id, "id", "i", "", "record id")
	command.Flags().StringVarP(&file, "file", "f", "", "file to preview")

	command.Flags().SortFlags = false

	return command
}

func healthCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "health",
		Short: "check the server health over grpc",
		Run: func(cmd *cobra.Command, args []string) {
			client, err := newClient()
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			res, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
			if err != nil {
				logrus.Error(err)
				return
			}

			printField("Status", res.Status.String())
		},
	}

	return command
}
