package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"foodorder/internal/config"
	"foodorder/internal/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "foodctl",
	Short: "Operations tool for the food ordering backend",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(config.Load().IsProduction())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(checkCmd)
}
