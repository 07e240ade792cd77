package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/firmvault/pkg/configs"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/internal/storage/db"
	"github.com/yeisme/firmvault/pkg/log"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := configs.InitConfig(configPath); err != nil {
			return err
		}

		log.Init()

		client, err := db.New(cmd.Context())
		if err != nil {
			return err
		}

		if err := client.AutoMigrate(model.AllModels()...); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "database schema is up to date")

		return nil
	},
}

// registerMigrateCommand 注册迁移命令.
func registerMigrateCommand() {
	rootCmd.AddCommand(migrateCmd)
}
