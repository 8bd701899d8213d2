package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/nostrlocator/identity"
)

var (
	keygenSave       string
	keygenPassphrase string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a fresh identity key pair",
	RunE:  runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVar(&keygenSave, "save", "", "Write the encrypted secret to this path instead of printing it")
	keygenCmd.Flags().StringVar(&keygenPassphrase, "passphrase", "", "Passphrase to seal the saved key file with (required with --save)")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	secret := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}

	signer, err := identity.NewLocalSignerFromInput(hex.EncodeToString(secret))
	if err != nil {
		return fmt.Errorf("build signer: %w", err)
	}

	fmt.Printf("public key: %s\n", identity.PublicKeyHex(signer.PublicKey()))

	if keygenSave == "" {
		fmt.Printf("secret key: %s\n", hex.EncodeToString(secret))
		return nil
	}

	if keygenPassphrase == "" {
		return fmt.Errorf("--save requires --passphrase")
	}
	if err := identity.SaveEncryptedKeyFile(keygenSave, secret, keygenPassphrase); err != nil {
		return fmt.Errorf("save key file: %w", err)
	}
	fmt.Printf("secret key saved to %s\n", keygenSave)
	return nil
}
