package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/emrgen/ingest"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFileName = "ingest"
	configDir      = "./.tmp"

	defaultServer = "localhost:4021"
	defaultGrpc   = "localhost:4020"
)

var contextCommand = &cobra.Command{
	Use:   "context",
	Short: "context commands",
}

func init() {
	contextCommand.AddCommand(setContextCommand())
	contextCommand.AddCommand(currentContextCommand())
	contextCommand.AddCommand(resetContextCommand())
}

// Context is the server the records commands talk to.
type Context struct {
	Server string `mapstructure:"server" json:"server"`
	Grpc   string `mapstructure:"grpc" json:"grpc"`
	Token  string `mapstructure:"token" json:"token"`
}

// saves the context info to the config file in ./.tmp
func setContextCommand() *cobra.Command {
	var ctx Context

	command := &cobra.Command{
		Use:   "set",
		Short: "set context",
		Run: func(cmd *cobra.Command, args []string) {
			if !cmd.Flags().Changed("server") && !cmd.Flags().Changed("grpc") && !cmd.Flags().Changed("token") {
				color.Red(`missing: --server, --grpc or --token`)
				return
			}

			current := readContext()
			if cmd.Flags().Changed("server") {
				current.Server = ctx.Server
			}
			if cmd.Flags().Changed("grpc") {
				current.Grpc = ctx.Grpc
			}
			if cmd.Flags().Changed("token") {
				current.Token = ctx.Token
			}

			if err := writeContext(current); err != nil {
				fmt.Println("error writing config file: ", err)
				return
			}
			fmt.Println("context saved")
		},
	}

	command.Flags().StringVarP(&ctx.Server, "server", "s", defaultServer, "http address of the server")
	command.Flags().StringVarP(&ctx.Grpc, "grpc", "g", defaultGrpc, "grpc address of the server")
	command.Flags().StringVarP(&ctx.Token, "token", "t", "", "access token")

	command.Flags().SortFlags = false

	return command
}

func currentContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "current",
		Short: "current context",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := readContext()
			printField("Server", ctx.Server)
			printField("Grpc", ctx.Grpc)
			token := "<none>"
			if ctx.Token != "" {
				token = "<set>"
			}
			printField("Token", token)
		},
	}

	return command
}

func resetContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "reset",
		Short: "reset context",
		Run: func(cmd *cobra.Command, args []string) {
			if err := writeContext(Context{Server: defaultServer, Grpc: defaultGrpc}); err != nil {
				fmt.Println("error writing config file: ", err)
				return
			}
			fmt.Println("context reset")
		},
	}

	return command
}

func contextFile() string {
	return filepath.Join(configDir, configFileName+".yml")
}

func writeContext(ctx Context) error {
	if err := os.MkdirAll(configDir, os.ModePerm); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(contextFile())
	v.Set("context", map[string]string{
		"server": ctx.Server,
		"grpc":   ctx.Grpc,
		"token":  ctx.Token,
	})

	return v.WriteConfigAs(contextFile())
}

func readContext() Context {
	ctx := Context{Server: defaultServer, Grpc: defaultGrpc}

	if _, err := os.Stat(contextFile()); os.IsNotExist(err) {
		return ctx
	}

	v := viper.New()
	v.SetConfigFile(contextFile())
	if err := v.ReadInConfig(); err != nil {
		fmt.Println("error reading config file: ", err)
		return ctx
	}

	if err := v.UnmarshalKey("context", &ctx); err != nil {
		fmt.Println("error unmarshalling config file: ", err)
	}

	return ctx
}

// newClient connects to the server of the current context.
func newClient() (ingest.Client, error) {
	ctx := readContext()
	return ingest.NewClient(ctx.Server, ctx.Grpc, ctx.Token)
}
