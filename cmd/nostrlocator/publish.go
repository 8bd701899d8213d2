package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/nostrlocator/event"
	"github.com/sage-x-project/nostrlocator/identity"
	"github.com/sage-x-project/nostrlocator/payload"
	"github.com/sage-x-project/nostrlocator/publisher"
)

var (
	publishMode       string
	publishSecret     string
	publishIdentifier string
	publishPrivate    bool
	publishRecipient  string
	publishRecipients string
)

var publishCmd = &cobra.Command{
	Use:   "publish <payload.json>",
	Short: "Publish a locator record",
	Long: `Publish reads a JSON payload document (v/ttl/updated_at/endpoints, the
same shape resolve prints) from the given file, or "-" for stdin, and
broadcasts it as a kind 30058 event under the chosen content mode.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	addConfigFlags(publishCmd)
	publishCmd.Flags().StringVar(&publishMode, "mode", "public", "Content mode: public, self, targeted, wrapped")
	publishCmd.Flags().StringVar(&publishSecret, "secret", "", "Publisher's secret key (hex or nsec); a fresh one is generated if omitted")
	publishCmd.Flags().StringVar(&publishIdentifier, "identifier", event.DefaultIdentifier, "Locator identifier (the \"d\" tag value)")
	publishCmd.Flags().BoolVar(&publishPrivate, "private", false, "Tag the event private")
	publishCmd.Flags().StringVar(&publishRecipient, "recipient", "", "Recipient public key (hex or npub), required for --mode targeted")
	publishCmd.Flags().StringVar(&publishRecipients, "recipients", "", "Comma-separated recipient public keys, required for --mode wrapped")
}

func runPublish(cmd *cobra.Command, args []string) error {
	mode, err := parsePublishMode(publishMode)
	if err != nil {
		return err
	}

	body, err := readPayloadFile(args[0])
	if err != nil {
		return err
	}
	p, err := payload.Decode(body)
	if err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	var signer identity.Signer
	if publishSecret != "" {
		s, err := identity.NewLocalSignerFromInput(publishSecret)
		if err != nil {
			return fmt.Errorf("parse --secret: %w", err)
		}
		signer = s
	} else {
		s, err := identity.GenerateLocalSigner()
		if err != nil {
			return fmt.Errorf("generate ephemeral signer: %w", err)
		}
		signer = s
		fmt.Fprintf(os.Stderr, "no --secret given; generated an ephemeral identity %s\n", identity.PublicKeyHex(s.PublicKey()))
	}

	req := publisher.Request{
		Mode:    mode,
		Payload: p,
		Options: event.Options{Identifier: publishIdentifier, Private: publishPrivate},
	}

	switch mode {
	case publisher.ModeTargeted:
		if publishRecipient == "" {
			return fmt.Errorf("--mode targeted requires --recipient")
		}
		pub, err := identity.NormalizePublicKey(publishRecipient)
		if err != nil {
			return fmt.Errorf("parse --recipient: %w", err)
		}
		req.Recipient = pub
	case publisher.ModeWrapped:
		if publishRecipients == "" {
			return fmt.Errorf("--mode wrapped requires --recipients")
		}
		for _, raw := range strings.Split(publishRecipients, ",") {
			pub, err := identity.NormalizePublicKey(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("parse --recipients: %w", err)
			}
			req.Recipients = append(req.Recipients, pub)
		}
	}

	_, publisherCfg, err := loadConfigs()
	if err != nil {
		return err
	}

	pub := publisher.New(publisherCfg, nil, cliCollectors())
	defer pub.Close()

	res, err := pub.Publish(context.Background(), signer, req, nil)
	if err != nil {
		return err
	}

	fmt.Printf("published event %s\n", res.Event.ID)
	fmt.Printf("  succeeded: %s\n", strings.Join(res.Success, ", "))
	if len(res.Failed) > 0 {
		fmt.Printf("  failed: %s\n", strings.Join(res.Failed, ", "))
	}
	return nil
}

func parsePublishMode(s string) (publisher.Mode, error) {
	switch strings.ToLower(s) {
	case "public":
		return publisher.ModePublic, nil
	case "self":
		return publisher.ModeSelf, nil
	case "targeted":
		return publisher.ModeTargeted, nil
	case "wrapped":
		return publisher.ModeWrapped, nil
	default:
		return 0, fmt.Errorf("unknown --mode %q (want public, self, targeted, or wrapped)", s)
	}
}

func readPayloadFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
