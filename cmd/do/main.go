package main

import (
	"os"

	"github.com/templui/tasktracker/cmd/do/cmd"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "do",
		Short:        "Development and admin tools for the task tracker",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.DevCmd())
	rootCmd.AddCommand(cmd.GenCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.DataCmd())
	rootCmd.AddCommand(cmd.RemoteCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
