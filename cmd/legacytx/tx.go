package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/legacy-tx/pkg/api"
	"github.com/suffix-labs/legacy-tx/pkg/bip21"
	"github.com/suffix-labs/legacy-tx/pkg/tx"
)

func createCommand() *cobra.Command {
	var (
		inputs   []string
		outputs  []string
		uri      string
		lockTime uint32
		sequence uint32
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Build an unsigned transaction",
		Long: `Build an unsigned transaction and print it as hex.

Inputs are given as <txid>:<index> and outputs as <address>:<value> with the
value in satoshis. Outputs from a payment request URI are appended after the
explicit ones.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(cmd)
			if err != nil {
				return err
			}

			proposal := &api.TransactionProposal{PaymentURI: uri}
			for _, in := range inputs {
				input := api.Input{Outpoint: in}
				if cmd.Flags().Changed("sequence") {
					input.Sequence = &sequence
				}
				proposal.Inputs = append(proposal.Inputs, input)
			}
			for _, out := range outputs {
				output, err := parseOutput(out)
				if err != nil {
					return err
				}
				proposal.Outputs = append(proposal.Outputs, output)
			}
			if cmd.Flags().Changed("locktime") {
				proposal.LockTime = &lockTime
			}

			txHex, err := client.CreateTransaction(proposal)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), txHex)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "input to spend as <txid>:<index> (repeatable)")
	cmd.Flags().StringArrayVarP(&outputs, "output", "o", nil, "output as <address>:<satoshis> (repeatable)")
	cmd.Flags().StringVar(&uri, "uri", "", "payment request URI adding outputs")
	cmd.Flags().Uint32Var(&lockTime, "locktime", 0, "transaction lock time")
	cmd.Flags().Uint32Var(&sequence, "sequence", tx.DefaultSequence, "sequence number for every input")
	return cmd
}

// parseOutput parses <address>:<satoshis>.
func parseOutput(s string) (api.Output, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return api.Output{}, fmt.Errorf("output %q: expected <address>:<satoshis>", s)
	}
	value, err := strconv.ParseUint(s[i+1:], 10, 64)
	if err != nil {
		return api.Output{}, fmt.Errorf("output %q: invalid value: %w", s, err)
	}
	return api.Output{Address: s[:i], Value: value}, nil
}

func decodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex|->",
		Short: "Decode a transaction to JSON",
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

			summary, err := client.DecodeTransaction(txHex)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
}

func txidCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "txid <hex|->",
		Short: "Print the transaction id",
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

			txid, err := client.TxID(txHex)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), txid)
			return nil
		},
	}
}

func feeCommand() *cobra.Command {
	var (
		numInputs  int
		numOutputs int
		feePerKb   uint64
	)
	cmd := &cobra.Command{
		Use:   "fee",
		Short: "Estimate the fee for a transaction shape",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := newClient(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("fee-per-kb") {
				feePerKb = cfg.FeePerKb
			}

			fee, err := api.EstimateFee(numInputs, numOutputs, feePerKb)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", fee)
			return nil
		},
	}
	cmd.Flags().IntVar(&numInputs, "inputs", 1, "number of inputs")
	cmd.Flags().IntVar(&numOutputs, "outputs", 2, "number of outputs")
	cmd.Flags().Uint64Var(&feePerKb, "fee-per-kb", tx.DefaultFeePerKb, "fee rate in satoshis per 1000 bytes")
	return cmd
}

func parseURICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-uri <uri>",
		Short: "Parse a payment request URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := api.ParsePaymentRequest(args[0])
			if err != nil {
				return fmt.Errorf("failed to parse URI: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Payment Request:")
			fmt.Fprintf(out, "  Payments: %d\n\n", len(req.Payments))

			for i, payment := range req.Payments {
				fmt.Fprintf(out, "Payment %d:\n", i+1)
				fmt.Fprintf(out, "  Address: %s\n", payment.Address)

				if payment.Amount != nil {
					fmt.Fprintf(out, "  Amount:  %s BTC\n", bip21.FormatAmount(*payment.Amount))
				} else {
					fmt.Fprintln(out, "  Amount:  (user specified)")
				}
				if payment.Label != nil {
					fmt.Fprintf(out, "  Label:   %s\n", *payment.Label)
				}
				if payment.Message != nil {
					fmt.Fprintf(out, "  Message: %s\n", *payment.Message)
				}
				fmt.Fprintln(out)
			}

			fmt.Fprintf(out, "Re-encoded URI:\n%s\n", req.Encode())
			return nil
		},
	}
}
