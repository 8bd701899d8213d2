// Package config implements the resolver/publisher configuration surface
// loadable from YAML/JSON files or the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBootstrapRelays seeds a resolver/publisher when the caller
// supplies none.
var DefaultBootstrapRelays = []string{
	"wss://relay.damus.io",
	"wss://nos.lol",
}

// ResolverConfig covers the resolve-side options: which relays to use,
// the per-call deadline, and whether to run in strict mode or use gossip
// discovery by default.
type ResolverConfig struct {
	BootstrapRelays []string      `yaml:"bootstrap_relays" json:"bootstrap_relays"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	Strict          bool          `yaml:"strict" json:"strict"`
	Gossip          bool          `yaml:"gossip" json:"gossip"`
}

// PublisherConfig covers the publish-side options: which relays to use,
// the per-call deadline, and whether locators are private by default.
type PublisherConfig struct {
	BootstrapRelays []string      `yaml:"bootstrap_relays" json:"bootstrap_relays"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	PrivateLocator  bool          `yaml:"private_locator" json:"private_locator"`
}

// DefaultResolverConfig returns a 10 second resolve deadline, no
// strict mode, no gossip, and the package default bootstrap set.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		BootstrapRelays: append([]string(nil), DefaultBootstrapRelays...),
		Timeout:         10 * time.Second,
		Strict:          false,
		Gossip:          false,
	}
}

// DefaultPublisherConfig returns a 5 second publish deadline.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		BootstrapRelays: append([]string(nil), DefaultBootstrapRelays...),
		Timeout:         5 * time.Second,
		PrivateLocator:  false,
	}
}

// fileConfig is the on-disk shape LoadFromFile reads: an optional resolver
// section and an optional publisher section.
type fileConfig struct {
	Resolver  *ResolverConfig  `yaml:"resolver" json:"resolver"`
	Publisher *PublisherConfig `yaml:"publisher" json:"publisher"`
}

// LoadFromFile reads path as YAML (a JSON document parses the same way),
// and overlays whichever sections are present onto the package defaults.
func LoadFromFile(path string) (ResolverConfig, PublisherConfig, error) {
	resolver := DefaultResolverConfig()
	publisher := DefaultPublisherConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return resolver, publisher, fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return resolver, publisher, fmt.Errorf("config: parse %s as YAML: %w", path, err)
	}

	if fc.Resolver != nil {
		resolver = *fc.Resolver
	}
	if fc.Publisher != nil {
		publisher = *fc.Publisher
	}
	return resolver, publisher, nil
}

// Environment variable names recognized by LoadFromEnv.
const (
	EnvBootstrapRelays  = "NOSTR_LOCATOR_BOOTSTRAP_RELAYS"
	EnvResolveTimeoutMS = "NOSTR_LOCATOR_RESOLVE_TIMEOUT_MS"
	EnvPublishTimeoutMS = "NOSTR_LOCATOR_PUBLISH_TIMEOUT_MS"
	EnvStrict           = "NOSTR_LOCATOR_STRICT"
	EnvGossip           = "NOSTR_LOCATOR_GOSSIP"
)

// LoadFromEnv overlays the package defaults with any recognized environment
// variables, optionally loading them from a .env file first (dotenvPath may
// be empty to skip that step).
func LoadFromEnv(dotenvPath string) (ResolverConfig, PublisherConfig, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil {
			return ResolverConfig{}, PublisherConfig{}, fmt.Errorf("config: load %s: %w", dotenvPath, err)
		}
	}

	resolver := DefaultResolverConfig()
	publisher := DefaultPublisherConfig()

	if relays := os.Getenv(EnvBootstrapRelays); relays != "" {
		list := strings.Split(relays, ",")
		resolver.BootstrapRelays = list
		publisher.BootstrapRelays = list
	}
	if ms := os.Getenv(EnvResolveTimeoutMS); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil {
			return resolver, publisher, fmt.Errorf("config: parse %s: %w", EnvResolveTimeoutMS, err)
		}
		resolver.Timeout = time.Duration(v) * time.Millisecond
	}
	if ms := os.Getenv(EnvPublishTimeoutMS); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil {
			return resolver, publisher, fmt.Errorf("config: parse %s: %w", EnvPublishTimeoutMS, err)
		}
		publisher.Timeout = time.Duration(v) * time.Millisecond
	}
	if strict := os.Getenv(EnvStrict); strict != "" {
		resolver.Strict = strict == "1" || strings.EqualFold(strict, "true")
	}
	if gossip := os.Getenv(EnvGossip); gossip != "" {
		resolver.Gossip = gossip == "1" || strings.EqualFold(gossip, "true")
	}

	return resolver, publisher, nil
}
