package cmd

import (
	"github.com/prodpal/prodpal/prodpal"
	"github.com/spf13/cobra"
	"log"
)

var (
	runCmd = &cobra.Command{
		Use:   "run [flags]",
		Short: "Starts the ProductivityPal bot and its status server",
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			bot, err := prodpal.New(cfg)
			if err != nil {
				log.Fatalf("error creating prodpal: %s", err.Error())
			}

			if err = bot.Run(ctx); err != nil {
				log.Fatalf("error running prodpal: %s", err.Error())
			}
		},
	}
)

func init() {
	rootCmd.AddCommand(runCmd)

	// Invoking the binary with no subcommand starts the bot.
	rootCmd.Run = runCmd.Run
}
