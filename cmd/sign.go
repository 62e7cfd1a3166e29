package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bhtechnology/snapshot-intake/internal/lead"
)

var signFlags struct {
	name    string
	email   string
	phone   string
	address string
	summary string
	notes   string
	sealed  bool
}

// signCmd mints a signed lead token for manual testing against a dev server.
var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Mint a signed lead token for testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Signing.Secret == "" {
			return eris.New("sign: signing.secret is not configured")
		}

		codec := lead.NewCodec(cfg.Signing.Secret)
		sub := &lead.Submission{
			Name:        signFlags.name,
			Email:       signFlags.email,
			Phone:       signFlags.phone,
			Address:     signFlags.address,
			Summary:     signFlags.summary,
			Notes:       signFlags.notes,
			SubmittedAt: lead.FlexTime(time.Now().UTC().Format(time.RFC3339)),
		}

		var token string
		var err error
		if signFlags.sealed {
			token, err = codec.Seal(sub)
		} else {
			token, err = codec.Encode(sub)
		}
		if err != nil {
			return err
		}

		timestamp := fmt.Sprintf("%d", time.Now().UnixMilli())
		sig, err := codec.Sign(token, timestamp)
		if err != nil {
			return err
		}

		fmt.Printf("lead_id:   %s\n", token)
		fmt.Printf("timestamp: %s\n", timestamp)
		fmt.Printf("sig:       %s\n", sig)
		fmt.Printf("\ncurl -X POST http://localhost:%d/webhook/jobs \\\n", cfg.Server.Port)
		fmt.Printf("  -H 'Content-Type: application/json' \\\n")
		fmt.Printf("  -d '{\"lead_id\":\"%s\",\"timestamp\":\"%s\",\"sig\":\"%s\"}'\n", token, timestamp, sig)
		return nil
	},
}

func init() {
	signCmd.Flags().StringVar(&signFlags.name, "name", "Test User", "submission name")
	signCmd.Flags().StringVar(&signFlags.email, "email", "test@example.com", "submission email")
	signCmd.Flags().StringVar(&signFlags.phone, "phone", "0400000000", "submission phone")
	signCmd.Flags().StringVar(&signFlags.address, "address", "123 Test St, Adelaide SA", "submission address")
	signCmd.Flags().StringVar(&signFlags.summary, "summary", "Snapshot test summary", "submission summary")
	signCmd.Flags().StringVar(&signFlags.notes, "notes", "", "submission notes")
	signCmd.Flags().BoolVar(&signFlags.sealed, "sealed", false, "emit an encrypted token")
	rootCmd.AddCommand(signCmd)
}
