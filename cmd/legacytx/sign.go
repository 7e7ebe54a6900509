package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/legacy-tx/pkg/api"
	"github.com/suffix-labs/legacy-tx/pkg/crypto"
	"github.com/suffix-labs/legacy-tx/pkg/tx"
)

// loadKey parses a WIF key and checks it belongs to the client's network.
func loadKey(client *api.Client, wif string) (*crypto.PrivateKey, error) {
	key, net, err := crypto.ParsePrivateKeyWIF(wif)
	if err != nil {
		return nil, err
	}
	if net != client.Network() {
		return nil, fmt.Errorf("key is for network %q, not %q", net.Name, client.Network().Name)
	}
	return key, nil
}

func sighashCommand() *cobra.Command {
	var (
		input     int
		scriptHex string
		hashType  string
	)
	cmd := &cobra.Command{
		Use:   "sighash <hex|->",
		Short: "Compute the signature hash of an input",
		Long: `Compute the signature hash of an input.

--script is the connected script: the locking script of the spent P2PKH
output, or the redeem script of a P2SH spend.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(cmd)
			if err != nil {
				return err
			}
			txHex, err := txArg(cmd, args)
			if err != nil {
				return err
			}
			ht, err := tx.ParseSigHashType(hashType)
			if err != nil {
				return err
			}

			sighash, err := client.GetSighash(txHex, input, scriptHex, ht)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(sighash[:]))
			return nil
		},
	}
	cmd.Flags().IntVar(&input, "input", 0, "input index")
	cmd.Flags().StringVar(&scriptHex, "script", "", "connected script as hex")
	cmd.Flags().StringVar(&hashType, "hashtype", "all", "hash type (all, none, all|anyonecanpay, ...)")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func signCommand() *cobra.Command {
	var (
		inputs   []int
		wif      string
		hashType string
	)
	cmd := &cobra.Command{
		Use:   "sign <hex|->",
		Short: "Sign P2PKH inputs with a WIF key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(cmd)
			if err != nil {
				return err
			}
			txHex, err := txArg(cmd, args)
			if err != nil {
				return err
			}
			key, err := loadKey(client, wif)
			if err != nil {
				return err
			}
			ht, err := tx.ParseSigHashType(hashType)
			if err != nil {
				return err
			}

			for _, index := range inputs {
				if txHex, err = client.SignInput(txHex, index, key, ht); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), txHex)
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&inputs, "input", []int{0}, "input indices to sign")
	cmd.Flags().StringVar(&wif, "wif", "", "private key in WIF")
	cmd.Flags().StringVar(&hashType, "hashtype", "all", "hash type (all, none, all|anyonecanpay, ...)")
	_ = cmd.MarkFlagRequired("wif")
	return cmd
}

func p2shSignCommand() *cobra.Command {
	var (
		input     int
		redeemHex string
		wif       string
		hashType  string
	)
	cmd := &cobra.Command{
		Use:   "p2sh-sign <hex|->",
		Short: "Produce one signature for a P2SH input",
		Long: `Produce one signature for a P2SH input and print it as hex.

The transaction is not modified. Collect a signature from each signer and
pass them all to apply-multisig.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(cmd)
			if err != nil {
				return err
			}
			txHex, err := txArg(cmd, args)
			if err != nil {
				return err
			}
			key, err := loadKey(client, wif)
			if err != nil {
				return err
			}
			ht, err := tx.ParseSigHashType(hashType)
			if err != nil {
				return err
			}

			sig, err := client.P2SHSign(txHex, input, redeemHex, key, ht)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sig)
			return nil
		},
	}
	cmd.Flags().IntVar(&input, "input", 0, "input index")
	cmd.Flags().StringVar(&redeemHex, "redeem", "", "redeem script as hex")
	cmd.Flags().StringVar(&wif, "wif", "", "private key in WIF")
	cmd.Flags().StringVar(&hashType, "hashtype", "all", "hash type (all, none, all|anyonecanpay, ...)")
	_ = cmd.MarkFlagRequired("redeem")
	_ = cmd.MarkFlagRequired("wif")
	return cmd
}

func applyMultisigCommand() *cobra.Command {
	var (
		input      int
		redeemHex  string
		signatures []string
	)
	cmd := &cobra.Command{
		Use:   "apply-multisig <hex|->",
		Short: "Install collected multisig signatures on a P2SH input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(cmd)
			if err != nil {
				return err
			}
			txHex, err := txArg(cmd, args)
			if err != nil {
				return err
			}

			signed, err := client.ApplyMultisig(txHex, input, redeemHex, signatures)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	cmd.Flags().IntVar(&input, "input", 0, "input index")
	cmd.Flags().StringVar(&redeemHex, "redeem", "", "redeem script as hex")
	cmd.Flags().StringArrayVar(&signatures, "sig", nil, "signature as hex, in any order (repeatable)")
	_ = cmd.MarkFlagRequired("redeem")
	_ = cmd.MarkFlagRequired("sig")
	return cmd
}

func verifyCommand() *cobra.Command {
	var (
		input     int
		scriptHex string
		sigHex    string
		pubKeyHex string
	)
	cmd := &cobra.Command{
		Use:   "verify <hex|->",
		Short: "Check a SIGHASH_ALL signature for an input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(cmd)
			if err != nil {
				return err
			}
			txHex, err := txArg(cmd, args)
			if err != nil {
				return err
			}

			ok, err := client.ValidateSignature(txHex, input, scriptHex, sigHex, pubKeyHex)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("signature does not verify for input %d", input)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
	cmd.Flags().IntVar(&input, "input", 0, "input index")
	cmd.Flags().StringVar(&scriptHex, "script", "", "connected script as hex")
	cmd.Flags().StringVar(&sigHex, "sig", "", "signature as hex")
	cmd.Flags().StringVar(&pubKeyHex, "pubkey", "", "public key as hex")
	for _, name := range []string{"script", "sig", "pubkey"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
