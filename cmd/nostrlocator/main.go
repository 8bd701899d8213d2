package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nostrlocator",
	Short: "nostrlocator CLI - resolve and publish cryptographic-identity-bound endpoints",
	Long: `nostrlocator is a minimal command-line demonstrator for the library of the
same name: it resolves and publishes locator records carried as kind 30058
events on Nostr relays.

This tool supports:
- Resolving a pubkey's locator record, decrypting it if needed
- Publishing a locator record under any of the supported content modes
- Generating a fresh identity key pair
- Checking bootstrap relay reachability`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
