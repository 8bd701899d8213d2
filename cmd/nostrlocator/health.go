package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/nostrlocator/health"
	"github.com/sage-x-project/nostrlocator/relaypool"
)

var healthTimeout time.Duration

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check bootstrap relay reachability",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
	addConfigFlags(healthCmd)
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 5*time.Second, "Per-relay check timeout")
}

func runHealth(cmd *cobra.Command, args []string) error {
	resolverCfg, _, err := loadConfigs()
	if err != nil {
		return err
	}

	pool := relaypool.NewWSPool(cliCollectors())
	defer pool.Close(resolverCfg.BootstrapRelays)

	checker := health.NewChecker(healthTimeout)
	checker.RegisterRelays(pool, resolverCfg.BootstrapRelays)

	results := checker.CheckAll(context.Background())
	unhealthy := 0
	for _, relayURL := range resolverCfg.BootstrapRelays {
		r, ok := results[relayURL]
		if !ok {
			continue
		}
		fmt.Printf("%-40s %-10s %s\n", relayURL, r.Status, r.Message)
		if r.Status == health.StatusUnhealthy {
			unhealthy++
		}
	}
	if unhealthy > 0 {
		return fmt.Errorf("%d of %d relays unreachable", unhealthy, len(resolverCfg.BootstrapRelays))
	}
	return nil
}
