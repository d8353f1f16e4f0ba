package main

import (
	"github.com/aretw0/scriptbridge/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <document-id>",
	Short: "Run the handlers for one document event",
	Long:  `Loads the scripts, runs every triggered handler for the document in dependency order and commits the result.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		event, _ := cmd.Flags().GetString("event")
		jsonMode, _ := cmd.Flags().GetBool("json")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.Execute(ctx, cli.RunOptions{
			Options:    sharedOptions(cmd),
			DocumentID: args[0],
			UserID:     user,
			EventID:    event,
			JSON:       jsonMode,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("user", "u", "", "Acting user id")
	runCmd.Flags().StringP("event", "e", "", "Event id (parent_document+parent_script)")
	runCmd.Flags().Bool("json", false, "Print the result as JSON")
}
