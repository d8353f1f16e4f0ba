package main

import (
	"github.com/aretw0/scriptbridge/internal/cli"
	"github.com/spf13/cobra"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the handler execution order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.PrintOrder(cmd.Context(), sharedOptions(cmd), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(orderCmd)
}
