package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kwhite/taskpulse/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "taskpulse-configure",
		Short: "Operations tool for the TaskPulse API",
		Long:  "CLI tool for checking backing services and seeding demo data",
	}

	rootCmd.AddCommand(commands.NewPingCmd())
	rootCmd.AddCommand(commands.NewSeedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
