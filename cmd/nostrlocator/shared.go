package main

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sage-x-project/nostrlocator/config"
	"github.com/sage-x-project/nostrlocator/internal/metrics"
)

var (
	configPath string
	relaysFlag string
)

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML or JSON config file (resolver/publisher sections)")
	cmd.Flags().StringVar(&relaysFlag, "relays", "", "Comma-separated relay URLs, overriding the config's bootstrap relays")
}

func loadConfigs() (config.ResolverConfig, config.PublisherConfig, error) {
	resolverCfg := config.DefaultResolverConfig()
	publisherCfg := config.DefaultPublisherConfig()
	var err error
	if configPath != "" {
		resolverCfg, publisherCfg, err = config.LoadFromFile(configPath)
		if err != nil {
			return resolverCfg, publisherCfg, err
		}
	}
	if relaysFlag != "" {
		relays := strings.Split(relaysFlag, ",")
		resolverCfg.BootstrapRelays = relays
		publisherCfg.BootstrapRelays = relays
	}
	return resolverCfg, publisherCfg, nil
}

// cliCollectors builds a standalone metrics registry for a single CLI
// invocation; there is no long-lived process to export it from.
func cliCollectors() *metrics.Collectors {
	return metrics.NewCollectors(prometheus.NewRegistry())
}
