package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/nostrlocator/event"
	"github.com/sage-x-project/nostrlocator/identity"
	"github.com/sage-x-project/nostrlocator/payload"
	"github.com/sage-x-project/nostrlocator/resolver"
)

var (
	resolveIdentifier string
	resolveLatest     bool
	resolveSecret     string
	resolveStrict     bool
	resolveGossip     bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <pubkey>",
	Short: "Resolve a pubkey's locator record",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	addConfigFlags(resolveCmd)
	resolveCmd.Flags().StringVar(&resolveIdentifier, "identifier", event.DefaultIdentifier, "Locator identifier (the \"d\" tag value)")
	resolveCmd.Flags().BoolVar(&resolveLatest, "latest", false, "Use resolve_latest instead of resolve (ignores --identifier)")
	resolveCmd.Flags().StringVar(&resolveSecret, "secret", "", "Secret key (hex or nsec) to decrypt the record with, if needed")
	resolveCmd.Flags().BoolVar(&resolveStrict, "strict", false, "Fail on decrypt/decode errors instead of returning nil, and return nil for an expired record")
	resolveCmd.Flags().BoolVar(&resolveGossip, "gossip", false, "Widen the relay set with gossip (kind 10002) discovery")
}

func runResolve(cmd *cobra.Command, args []string) error {
	target := args[0]

	var caller identity.Signer
	if resolveSecret != "" {
		signer, err := identity.NewLocalSignerFromInput(resolveSecret)
		if err != nil {
			return fmt.Errorf("parse --secret: %w", err)
		}
		caller = signer
	} else {
		signer, err := identity.GenerateLocalSigner()
		if err != nil {
			return fmt.Errorf("generate ephemeral signer: %w", err)
		}
		caller = signer
	}

	resolverCfg, _, err := loadConfigs()
	if err != nil {
		return err
	}

	r := resolver.New(resolverCfg, nil, cliCollectors())
	defer r.Close()

	opts := resolver.Options{Strict: resolveStrict, Gossip: resolveGossip}

	var p *payload.Payload
	ctx := context.Background()
	if resolveLatest {
		p, err = r.ResolveLatest(ctx, target, caller, opts)
	} else {
		p, err = r.Resolve(ctx, target, caller, resolveIdentifier, opts)
	}
	if err != nil {
		return err
	}

	if p == nil {
		fmt.Println("no record found")
		return nil
	}

	out, err := payload.Encode(*p)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
