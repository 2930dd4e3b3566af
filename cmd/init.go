package cmd

import (
	"errors"
	"fmt"
	"gorm.io/gorm"
	"log"
	"os"
	"path/filepath"

	"github.com/prodpal/prodpal/prodpal"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the data directory and initialize the database",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		if cfg.DatabaseType == "" {
			log.Fatal("Environment variable PP_DATABASE_TYPE not set (must be one of: sqlite, postgres)")
		}
		if cfg.Database == "" {
			log.Fatal(
				"Environment variable PP_DATABASE not set (must be a valid " +
					"database connection string or sqlite file path)",
			)
		}

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			log.Fatalf("Error creating data directory %s: %v", cfg.DataDir, err)
		}

		database := cfg.Database
		if cfg.DatabaseType == "sqlite" && !filepath.IsAbs(database) {
			database = filepath.Join(cfg.DataDir, database)
		}

		// Run database migrations
		db, err := prodpal.CreateDB(ctx, cfg.DatabaseType, database)
		if err != nil {
			log.Fatalf("Error creating database: %v", err)
		}

		var runtimeConfig prodpal.RuntimeConfig
		rv := db.Last(&runtimeConfig)
		if rv.Error != nil {
			if errors.Is(rv.Error, gorm.ErrRecordNotFound) {
				runtimeConfig = prodpal.DefaultRuntimeConfig()
				if err = db.Create(&runtimeConfig).Error; err != nil {
					log.Fatalf("Error creating runtime config: %v", err)
				}
			} else {
				log.Fatalf("Error retrieving runtime config: %s", rv.Error.Error())
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(
			out,
			"Initialization complete. You can now start the bot with the 'run' subcommand.",
		)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
