package main

import (
	"fmt"

	"github.com/aretw0/scriptbridge"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of scriptbridge",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scriptbridge version %s\n", scriptbridge.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
