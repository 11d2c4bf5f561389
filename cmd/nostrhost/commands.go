package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/spf13/cobra"

	"github.com/joncooperworks/nostrhost/crypto"
	"github.com/joncooperworks/nostrhost/crypto/keystore"
)

const publicKeyPrefix = "npub"

func newAccountsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List accounts that have a secret in the credential store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore(a.store)
			if err != nil {
				return err
			}
			accounts, err := store.ListAccounts()
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(accounts) == 0 {
				fmt.Fprintf(out, "No accounts found under service %q\n", a.store.ServiceName)
				return nil
			}
			fmt.Fprintf(out, "Accounts under service %q (%d):\n", a.store.ServiceName, len(accounts))
			for _, account := range accounts {
				fmt.Fprintf(out, "  - %s\n", account)
			}
			return nil
		},
	}
}

func newPubkeyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pubkey <account>",
		Short: "Print the public key of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.signer()
			if err != nil {
				return err
			}
			pub, err := s.PublicKey(cmd.Context(), keystore.Account(args[0]))
			if err != nil {
				return fmt.Errorf("failed to derive public key: %w", err)
			}
			npub, err := encodeNpub(pub[:])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hex:  %s\n", hex.EncodeToString(pub[:]))
			fmt.Fprintf(out, "npub: %s\n", npub)
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [file]",
		Short: "Check the id and signature of a signed event (reads stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			var evt crypto.Event
			if err := json.Unmarshal(data, &evt); err != nil {
				return fmt.Errorf("failed to parse event: %w", err)
			}
			if err := evt.CheckSignature(); err != nil {
				return fmt.Errorf("event %s is not valid: %w", evt.ID, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Event %s signed by %s\n", evt.ID, evt.PubKey)
			return nil
		},
	}
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read event file: %w", err)
	}
	return data, nil
}

func encodeNpub(pub []byte) (string, error) {
	if len(pub) != crypto.PublicKeySize {
		return "", errors.New("public key must be 32 bytes")
	}
	words, err := bech32.ConvertBits(pub, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to encode public key: %w", err)
	}
	return bech32.Encode(publicKeyPrefix, words)
}
