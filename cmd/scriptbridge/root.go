package main

import (
	"fmt"
	"os"

	"github.com/aretw0/scriptbridge/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scriptbridge",
	Short: "Scriptbridge runs Lua handler scripts against a shared entity store",
	Long: `Scriptbridge loads library and handler scripts, runs the handlers for document events
and commits the mutations they buffer to the configured backing store.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing scriptbridge.yaml")
	rootCmd.PersistentFlags().String("config", "", "Explicit config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

func sharedOptions(cmd *cobra.Command) cli.Options {
	dir, _ := cmd.Flags().GetString("dir")
	file, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Options{Dir: dir, ConfigFile: file, Debug: debug}
}
