package cmd

import (
	"github.com/emrgen/ingest/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(Migrate())
}

func Migrate() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.LoadConfig()
			if err != nil {
				logrus.Error(err)
				return
			}

			if _, err := config.GetStore(cfg); err != nil {
				logrus.Errorf("error migrating the %s database: %v", cfg.DB.Driver, err)
				return
			}

			logrus.Infof("%s database migrated", cfg.DB.Driver)
		},
	}

	return command
}
