// legacytx CLI - legacy transaction builder and signer
//
// Every command reads and writes transactions as hex so the steps can be
// run on different machines, with the private keys only on the signer.
//
// Example usage:
//
//	# Build an unsigned transaction
//	legacytx create --input <txid>:0 --output 1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH:50000
//
//	# Sign input 0 with a WIF key
//	legacytx sign <hex> --input 0 --wif <wif>
//
//	# Inspect the result
//	legacytx decode <hex>
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/legacy-tx/pkg/api"
	"github.com/suffix-labs/legacy-tx/pkg/config"
)

const (
	programName    = "legacytx"
	programVersion = "v0.1.0"
)

var (
	globalFlags = struct {
		debug   bool
		network string
	}{}
	configFile string
)

// commonRun builds the process logger from the config and the --debug flag.
// Logs go to stderr so that stdout carries only command output.
func commonRun(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	logLevel, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	addSource := false
	if globalFlags.debug {
		logLevel = slog.LevelDebug
		addSource = true
	}
	logger := slog.New(
		slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			AddSource: addSource,
			Level:     logLevel,
		}),
	).With("component", programName)
	slog.SetDefault(logger)
	return logger, nil
}

// newClient returns an API client for the configured network.
func newClient(cmd *cobra.Command) (*api.Client, *config.Config, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, nil, fmt.Errorf("no config found in context")
	}
	net, err := cfg.Network()
	if err != nil {
		return nil, nil, err
	}
	logger, err := commonRun(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	return api.New(net, logger).WithFeePerKb(cfg.FeePerKb), cfg, nil
}

// txArg returns the transaction hex argument, reading stdin for "-".
func txArg(cmd *cobra.Command, args []string) (string, error) {
	if args[0] != "-" {
		return strings.TrimSpace(args[0]), nil
	}
	buf, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimSpace(string(buf)), nil
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", programName, programVersion)
		},
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Build, sign and inspect legacy transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().
		StringVarP(&globalFlags.network, "network", "n", "", "network to use (main or test)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Override config with command line flags
		if globalFlags.network != "" {
			cfg.NetworkName = globalFlags.network
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	// Subcommands
	rootCmd.AddCommand(createCommand())
	rootCmd.AddCommand(decodeCommand())
	rootCmd.AddCommand(txidCommand())
	rootCmd.AddCommand(feeCommand())
	rootCmd.AddCommand(sighashCommand())
	rootCmd.AddCommand(signCommand())
	rootCmd.AddCommand(p2shSignCommand())
	rootCmd.AddCommand(applyMultisigCommand())
	rootCmd.AddCommand(verifyCommand())
	rootCmd.AddCommand(parseURICommand())
	rootCmd.AddCommand(versionCommand())

	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
