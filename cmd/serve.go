package cmd

import (
	"github.com/emrgen/ingest/internal/config"
	"github.com/emrgen/ingest/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var httpPort string
	var grpcPort string

	command := &cobra.Command{
		Use:   "serve",
		Short: "start the ingest server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.LoadConfig()
			if err != nil {
				logrus.Error(err)
				return
			}
			if httpPort != "" {
				cfg.HTTPPort = httpPort
			}
			if grpcPort != "" {
				cfg.GRPCPort = grpcPort
			}

			config.ConfigureLogging(cfg)
			server.NewServer(cfg).Start()
		},
	}

	command.Flags().StringVar(&httpPort, "http-port", "", "http port (default from config)")
	command.Flags().StringVar(&grpcPort, "grpc-port", "", "grpc port (default from config)")

	command.Flags().SortFlags = false

	return command
}
