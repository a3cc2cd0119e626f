package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"foodorder/internal/client"
)

var (
	checkURL     string
	checkBackoff time.Duration
)

// foodctl check --url http://localhost:4000
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe a running server: ping, health, root and the food list",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := client.New(checkURL, client.WithRetry(3, checkBackoff))
		out := cmd.OutOrStdout()

		pong, err := c.Ping(ctx)
		if err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		fmt.Fprintf(out, "ping    %s\n", pong)

		status, err := c.Health(ctx)
		if err != nil {
			return fmt.Errorf("health: %w", err)
		}
		fmt.Fprintf(out, "health  %s\n", status)

		root, err := c.Root(ctx)
		if err != nil {
			return fmt.Errorf("root: %w", err)
		}
		fmt.Fprintf(out, "root    %s\n", root)

		foods, err := c.ListFood(ctx)
		if err != nil {
			return fmt.Errorf("food list: %w", err)
		}
		fmt.Fprintf(out, "foods   %d items\n", len(foods))
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkURL, "url", "http://localhost:4000", "base URL of the API")
	checkCmd.Flags().DurationVar(&checkBackoff, "backoff", 2*time.Second, "wait between retries")
}
