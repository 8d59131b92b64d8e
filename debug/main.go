package main

import (
	"os"

	"github.com/emrgen/ingest/internal/config"
	"github.com/emrgen/ingest/internal/server"
	"github.com/emrgen/ingest/internal/store"
	"github.com/sirupsen/logrus"
)

// starts an in-memory server for local debugging
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	if os.Getenv("GRPC_PORT") != "" {
		cfg.GRPCPort = os.Getenv("GRPC_PORT")
	}
	if os.Getenv("HTTP_PORT") != "" {
		cfg.HTTPPort = os.Getenv("HTTP_PORT")
	}
	cfg.DB.Driver = store.DriverMemory
	cfg.Log.Level = "debug"
	config.ConfigureLogging(cfg)

	err = server.Start(cfg)
	if err != nil {
		logrus.Error(err)
	}
}
