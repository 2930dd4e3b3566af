package cmd

import (
	"fmt"
	"github.com/prodpal/prodpal/prodpal"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of the application",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf(
			"version=%s commit=%s built: %s",
			prodpal.Version,
			prodpal.CommitSHA,
			prodpal.BuildTime,
		)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
